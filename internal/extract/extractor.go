package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/scrape"
)

// Extractor produces a WebsiteContent snapshot for a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (*model.WebsiteContent, error)
}

// ChainExtractor scrapes through a scrape.Chain and parses whichever
// representation the winning scraper produced: HTML from the local fetcher
// via goquery, markdown from Jina/Firecrawl.
type ChainExtractor struct {
	chain   *scrape.Chain
	timeout time.Duration
}

// NewChainExtractor builds a ChainExtractor. timeout bounds one extraction
// end to end; zero means 30s.
func NewChainExtractor(chain *scrape.Chain, timeout time.Duration) *ChainExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChainExtractor{chain: chain, timeout: timeout}
}

// Extract fetches and parses one URL.
func (e *ChainExtractor) Extract(ctx context.Context, url string) (*model.WebsiteContent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.chain.Scrape(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: scrape %s", url)
	}

	content, err := parsePage(result.Page, url)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("extract: content extracted",
		zap.String("url", url),
		zap.String("source", result.Source),
		zap.Int("headings", len(content.Headings)),
		zap.Int("paragraphs", len(content.Paragraphs)),
		zap.Int("ctas", len(content.CTAs)),
	)

	return content, nil
}

// ExtractAll fetches and parses a batch of URLs, keyed by requested URL.
// The scrape chain fans out underneath (bounded by maxConcurrent) and
// routes fallbacks through Firecrawl's batch API when configured. URLs
// that fail to fetch or parse are absent from the map; a batch never
// errors as a whole.
func (e *ChainExtractor) ExtractAll(ctx context.Context, urls []string, maxConcurrent int) map[string]*model.WebsiteContent {
	if len(urls) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout*time.Duration(len(urls)))
	defer cancel()

	pages := e.chain.ScrapeAll(ctx, urls, maxConcurrent)
	out := make(map[string]*model.WebsiteContent, len(pages))
	for url, page := range pages {
		content, err := parsePage(page, url)
		if err != nil {
			zap.L().Warn("extract: parse failed",
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		out[url] = content
	}
	return out
}

// parsePage picks the right parser for a scraped page.
func parsePage(page model.ScrapedPage, url string) (*model.WebsiteContent, error) {
	if page.HTML != "" {
		content, err := FromHTML(strings.NewReader(page.HTML), "text/html", url)
		if err != nil {
			return nil, eris.Wrapf(err, "extract: parse html %s", url)
		}
		if content.Title == "" {
			content.Title = page.Title
		}
		return content, nil
	}
	return FromMarkdown(page.Markdown, page.Title, url), nil
}
