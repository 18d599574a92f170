package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	HTTP struct {
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=Per-attempt timeout for outbound HTTP calls"`
		MaxRetries int           `yaml:"max_retries" json:"max_retries" jsonschema:"default=3,minimum=1,description=Attempts per outbound call"`
		Backoff    time.Duration `yaml:"backoff" json:"backoff" jsonschema:"description=Initial exponential backoff delay"`
		UserAgent  string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for outbound requests"`
	} `yaml:"http" json:"http" jsonschema:"description=Outbound HTTP and retry policy shared by feed fetch and bookmark lookup"`

	Bookmark struct {
		Endpoint string `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://b.hatena.ne.jp/entry/json/,description=Bookmark metadata service endpoint"`
	} `yaml:"bookmark" json:"bookmark" jsonschema:"description=Bookmark enrichment service"`

	Filter struct {
		ExpiryDays        int `yaml:"expiry_days" json:"expiry_days" jsonschema:"default=30,description=Entries older than this many days are dropped"`
		MaxEntriesPerFeed int `yaml:"max_entries_per_feed" json:"max_entries_per_feed" jsonschema:"default=100,description=Cap on items considered per feed"`
	} `yaml:"filter" json:"filter" jsonschema:"description=Entry filtering"`

	Pipeline struct {
		MaxWorkers int `yaml:"max_workers" json:"max_workers" jsonschema:"default=4,description=Maximum feeds processed concurrently"`
	} `yaml:"pipeline" json:"pipeline" jsonschema:"description=Pipeline concurrency"`

	Output struct {
		File     string `yaml:"file" json:"file" jsonschema:"default=result.parquet,description=Columnar output file overwritten each run"`
		JSONFile string `yaml:"json_file" json:"json_file,omitempty" jsonschema:"description=Optional JSON snapshot of the full result list"`
	} `yaml:"output" json:"output" jsonschema:"description=Output files"`
}

// Default returns a configuration with all defaults applied,
// used when no config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file, expanding environment variables
// and filling defaults for everything left unset
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 10 * time.Second
	}
	if c.HTTP.MaxRetries == 0 {
		c.HTTP.MaxRetries = 3
	}
	if c.HTTP.Backoff == 0 {
		c.HTTP.Backoff = 500 * time.Millisecond
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = "Mozilla/5.0 (compatible; feedlens/1.0; +https://github.com/umputun/feedlens)"
	}

	if c.Bookmark.Endpoint == "" {
		c.Bookmark.Endpoint = "https://b.hatena.ne.jp/entry/json/"
	}

	if c.Filter.ExpiryDays == 0 {
		c.Filter.ExpiryDays = 30
	}
	if c.Filter.MaxEntriesPerFeed == 0 {
		c.Filter.MaxEntriesPerFeed = 100
	}

	if c.Pipeline.MaxWorkers == 0 {
		c.Pipeline.MaxWorkers = 4
	}

	if c.Output.File == "" {
		c.Output.File = "result.parquet"
	}
}
