package model

// WebsiteContent is an immutable snapshot of a scraped page, broken into the
// structural elements the classifier and targeting generator consume. Produced
// once per analyzed URL and discarded after classification; only derived
// fields are persisted.
type WebsiteContent struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Paragraphs  []string `json:"paragraphs,omitempty"`
	ListItems   []string `json:"list_items,omitempty"`
	CTAs        []string `json:"ctas,omitempty"`
	NavLinks    []string `json:"nav_links,omitempty"`
}

// IsEmpty reports whether the snapshot carries no usable text at all.
func (c *WebsiteContent) IsEmpty() bool {
	return c.Title == "" && c.Description == "" &&
		len(c.Headings) == 0 && len(c.Paragraphs) == 0 &&
		len(c.ListItems) == 0 && len(c.CTAs) == 0
}

// ScrapedPage represents a page fetched by a scraper before structural
// extraction. Markdown holds the readable body (Jina/Firecrawl output or
// stripped HTML).
type ScrapedPage struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Markdown   string `json:"markdown"`
	HTML       string `json:"html,omitempty"`
	StatusCode int    `json:"status_code"`
}

// TokenUsage tracks token consumption across AI calls.
type TokenUsage struct {
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens"`
	Cost                float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheCreationTokens += other.CacheCreationTokens
	t.CacheReadTokens += other.CacheReadTokens
	t.Cost += other.Cost
}
