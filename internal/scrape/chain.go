package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/pkg/firecrawl"
)

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	scrapers []Scraper
	fcClient firecrawl.Client // optional: enables batch scrape fallback
}

// NewChain creates a Chain with the given scrapers.
// Scrapers are tried in order; the first successful result is returned.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// WithFirecrawlClient enables batch scrape fallback for ScrapeAll.
func (c *Chain) WithFirecrawlClient(fc firecrawl.Client) *Chain {
	c.fcClient = fc
	return c
}

// Scrape tries each scraper in order for a single URL.
// Returns the first successful result, or an error if all fail.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

// ScrapeAll fetches a batch of URLs concurrently and returns the pages
// keyed by requested URL; URLs that fail everywhere are absent from the
// map. maxConcurrent bounds the fan-out. Each URL runs through the primary
// scrapers first; when a Firecrawl client is configured the leftovers go
// through a single Firecrawl batch-scrape call instead of one fallback
// request per URL.
func (c *Chain) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) map[string]model.ScrapedPage {
	var (
		mu      sync.Mutex
		pages   = make(map[string]model.ScrapedPage, len(urls))
		batched []string
	)

	primary, useBatch := c.primaryScrapers()

	g, gCtx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}

	for _, u := range urls {
		g.Go(func() error {
			for _, s := range primary {
				if !s.Supports(u) {
					continue
				}
				result, err := s.Scrape(gCtx, u)
				if err == nil && result != nil {
					mu.Lock()
					pages[u] = result.Page
					mu.Unlock()
					return nil
				}
				if err != nil {
					zap.L().Debug("scrape: primary scraper failed",
						zap.String("scraper", s.Name()),
						zap.String("url", u),
						zap.Error(err),
					)
				}
			}

			if useBatch {
				mu.Lock()
				batched = append(batched, u)
				mu.Unlock()
			} else {
				zap.L().Debug("scrape: url failed on every scraper", zap.String("url", u))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(batched) > 0 {
		c.batchScrapeFirecrawl(ctx, batched, pages)
	}
	return pages
}

// primaryScrapers splits a trailing Firecrawl scraper off the chain when
// the batch client is configured, so multi-URL fallbacks are collected
// into one batch call instead of hitting the per-URL adapter.
func (c *Chain) primaryScrapers() ([]Scraper, bool) {
	last := len(c.scrapers) - 1
	if c.fcClient == nil || last < 1 || c.scrapers[last].Name() != "firecrawl" {
		return c.scrapers, false
	}
	return c.scrapers[:last], true
}

// batchScrapeFirecrawl sends the leftover URLs to Firecrawl's batch API,
// polls for completion, and merges the results into pages. Firecrawl
// reports the page's own URL, so a redirected page keys under its final
// address.
func (c *Chain) batchScrapeFirecrawl(ctx context.Context, urls []string, pages map[string]model.ScrapedPage) {
	zap.L().Info("scrape: batch-scraping via firecrawl",
		zap.Int("urls", len(urls)),
	)

	resp, err := c.fcClient.BatchScrape(ctx, firecrawl.BatchScrapeRequest{
		URLs:    urls,
		Formats: []string{"markdown"},
	})
	if err != nil {
		zap.L().Warn("scrape: firecrawl batch scrape failed", zap.Error(err))
		return
	}

	status, err := firecrawl.PollBatchScrape(ctx, c.fcClient, resp.ID,
		firecrawl.WithPollInterval(2*time.Second),
		firecrawl.WithPollCap(10*time.Second),
	)
	if err != nil {
		zap.L().Warn("scrape: firecrawl batch scrape poll failed", zap.Error(err))
		return
	}

	received := 0
	for _, d := range status.Data {
		if d.Markdown == "" {
			continue
		}
		pages[d.URL] = model.ScrapedPage{
			URL:        d.URL,
			Title:      d.Title,
			Markdown:   d.Markdown,
			StatusCode: d.StatusCode,
		}
		received++
	}

	zap.L().Info("scrape: firecrawl batch scrape complete",
		zap.Int("requested", len(urls)),
		zap.Int("received", received),
	)
}
