package feed

import "net/http"

// setFeedHeaders adds request headers on top of the configured user agent,
// some feed hosts reject obviously scripted clients
func setFeedHeaders(req *http.Request) {
	// prefer feed content types but accept anything a server may return
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,text/html;q=0.7,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}
