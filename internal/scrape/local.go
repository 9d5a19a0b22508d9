package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/targeting-cli/internal/model"
)

// LocalScraper fetches raw HTML via net/http. Free, no API calls. Falls
// through to Jina/Firecrawl when the site blocks bots or serves a JS shell.
// Requests are rate-limited per host so competitor batches don't hammer a
// single domain.
type LocalScraper struct {
	client       *http.Client
	maxBodyBytes int64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithRateLimit sets the per-host request rate and burst.
func WithRateLimit(perSecond float64, burst int) LocalOption {
	return func(l *LocalScraper) {
		l.perHost = rate.Limit(perSecond)
		l.burst = burst
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) LocalOption {
	return func(l *LocalScraper) {
		l.maxBodyBytes = n
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) LocalOption {
	return func(l *LocalScraper) {
		l.client.Timeout = d
	}
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper(opts ...LocalOption) *LocalScraper {
	l := &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxBodyBytes: 512 * 1024,
		limiters:     make(map[string]*rate.Limiter),
		perHost:      rate.Limit(2),
		burst:        4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// limiter returns the rate limiter for a URL's host, creating it on first use.
func (l *LocalScraper) limiter(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.perHost, l.burst)
		l.limiters[host] = lim
	}
	return lim
}

// Scrape fetches a URL and returns its raw HTML alongside a plaintext body.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if err := l.limiter(targetURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "local_http: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TargetingBot/1.0)")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	// Block detection.
	blocked, blockType := DetectBlock(resp, body)
	if blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	if len(body) < 100 {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		Page: model.ScrapedPage{
			URL:        targetURL,
			Title:      extractTitle(body),
			HTML:       string(body),
			StatusCode: resp.StatusCode,
		},
		Source: "local_http",
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}
