package extract

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/scrape"
)

type stubScraper struct {
	pages map[string]model.ScrapedPage
}

func (s *stubScraper) Name() string           { return "stub" }
func (s *stubScraper) Supports(_ string) bool { return true }

func (s *stubScraper) Scrape(_ context.Context, url string) (*scrape.Result, error) {
	page, ok := s.pages[url]
	if !ok {
		return nil, eris.Errorf("no page for %s", url)
	}
	return &scrape.Result{Page: page, Source: "stub"}, nil
}

func TestExtract_ParsesMarkdownPage(t *testing.T) {
	chain := scrape.NewChain(&stubScraper{pages: map[string]model.ScrapedPage{
		"https://a.example": {
			URL:      "https://a.example",
			Title:    "Acme",
			Markdown: "# Automate your workflow\n\nStart a free trial today.",
		},
	}})
	e := NewChainExtractor(chain, time.Second)

	content, err := e.Extract(context.Background(), "https://a.example")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", content.URL)
	assert.Contains(t, content.Headings, "Automate your workflow")
}

func TestExtract_ScrapeFailure(t *testing.T) {
	chain := scrape.NewChain(&stubScraper{})
	e := NewChainExtractor(chain, time.Second)

	_, err := e.Extract(context.Background(), "https://down.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://down.example")
}

func TestExtractAll_KeysByURLAndSkipsFailures(t *testing.T) {
	chain := scrape.NewChain(&stubScraper{pages: map[string]model.ScrapedPage{
		"https://a.example": {URL: "https://a.example", Title: "A", Markdown: "# A"},
		"https://c.example": {URL: "https://c.example", Title: "C", Markdown: "# C"},
	}})
	e := NewChainExtractor(chain, time.Second)

	urls := []string{"https://a.example", "https://b.example", "https://c.example"}
	out := e.ExtractAll(context.Background(), urls, 1)

	require.Len(t, out, 2)
	assert.Contains(t, out, "https://a.example")
	assert.NotContains(t, out, "https://b.example")
	assert.Equal(t, "C", out["https://c.example"].Title)
}

func TestExtractAll_NoURLs(t *testing.T) {
	e := NewChainExtractor(scrape.NewChain(&stubScraper{}), time.Second)
	assert.Nil(t, e.ExtractAll(context.Background(), nil, 3))
}
