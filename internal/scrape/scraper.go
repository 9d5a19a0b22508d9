// Package scrape provides chained page fetching: direct HTTP first, Jina
// Reader and Firecrawl as managed fallbacks for blocked or JS-heavy sites.
package scrape

import (
	"context"

	"github.com/sells-group/targeting-cli/internal/model"
)

// Result holds a scraped page with its source.
type Result struct {
	Page   model.ScrapedPage
	Source string // e.g. "local_http", "jina", "firecrawl"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
