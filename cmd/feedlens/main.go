package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/feedlens/pkg/bookmark"
	"github.com/umputun/feedlens/pkg/config"
	"github.com/umputun/feedlens/pkg/domain"
	"github.com/umputun/feedlens/pkg/feed"
	"github.com/umputun/feedlens/pkg/pipeline"
	"github.com/umputun/feedlens/pkg/store"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" description:"config file (defaults apply if omitted)"`
	Feeds   string `short:"f" long:"feeds" env:"FEEDS" default:"feed.json" description:"feed source list, JSON"`
	Output  string `short:"o" long:"output" env:"OUTPUT" description:"output parquet file (overrides config)"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	log.Printf("[INFO] starting feedlens version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] run failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] completed")
}

// run executes one full pipeline pass: load config and sources, process every
// feed, persist the result. Per-feed failures are settled inside the pipeline;
// only setup and persistence failures surface here.
func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sources, err := config.LoadSources(opts.Feeds)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		log.Printf("[WARN] no sources configured in %s", opts.Feeds)
	}

	p := pipeline.New(
		feed.NewParser(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxRetries, cfg.HTTP.Backoff),
		feed.NewNormalizer(cfg.Filter.MaxEntriesPerFeed, time.Duration(cfg.Filter.ExpiryDays)*24*time.Hour),
		bookmark.NewClient(cfg.Bookmark.Endpoint, cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxRetries, cfg.HTTP.Backoff),
		cfg.Pipeline.MaxWorkers,
	)

	log.Printf("[INFO] processing %d feeds", len(sources))
	results := p.Run(ctx, sources)

	return persist(cfg, results)
}

// persist writes the parquet output and the optional JSON snapshot.
// This is the only fatal path after setup: the run's exit status reflects
// persistence alone, not upstream per-feed failures.
func persist(cfg *config.Config, results []domain.FeedResult) error {
	rows := store.Flatten(results)
	if err := store.WriteParquet(cfg.Output.File, rows); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}
	log.Printf("[INFO] wrote %d rows to %s", len(rows), cfg.Output.File)

	if cfg.Output.JSONFile != "" {
		if err := store.WriteJSON(cfg.Output.JSONFile, results); err != nil {
			return fmt.Errorf("failed to persist json snapshot: %w", err)
		}
		log.Printf("[INFO] wrote json snapshot to %s", cfg.Output.JSONFile)
	}
	return nil
}

func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, err
		}
	}
	if opts.Output != "" {
		cfg.Output.File = opts.Output
	}
	return cfg, nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
