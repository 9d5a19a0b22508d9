package scrape

import (
	"net/http"
	"strings"
)

// BlockType names the anti-bot wall a fetch ran into, recorded so the
// chain knows to hand the URL to a rendering scraper instead.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// challengeMarkers appear on Cloudflare interstitial pages regardless of
// status code. Checked before captcha markers since challenge pages often
// embed a captcha widget of their own.
var challengeMarkers = []string{
	"checking your browser",
	"cf-browser-verification",
}

// jsShellMaxBytes bounds the JS-shell heuristic: a page with real content
// is bigger than an empty bootstrap document.
const jsShellMaxBytes = 2000

// DetectBlock inspects a fetched response for anti-bot protection and
// reports which wall was hit, if any.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if deniedStatus(resp.StatusCode) && servedByCloudflare(resp.Header) {
		return true, BlockCloudflare
	}

	page := strings.ToLower(string(body))
	switch {
	case containsAny(page, challengeMarkers),
		strings.Contains(page, "cloudflare") && strings.Contains(page, "challenge"):
		return true, BlockCloudflare
	case strings.Contains(page, "captcha"):
		// Covers reCAPTCHA and hCaptcha widgets too.
		return true, BlockCaptcha
	case len(body) < jsShellMaxBytes && looksLikeJSShell(page):
		return true, BlockJSShell
	}

	return false, BlockNone
}

func deniedStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusServiceUnavailable
}

func servedByCloudflare(h http.Header) bool {
	return h.Get("cf-ray") != "" ||
		h.Get("cf-cache-status") != "" ||
		h.Get("server") == "cloudflare"
}

// looksLikeJSShell flags bootstrap documents that carry no content without
// a script runtime: a noscript warning or an immediate meta refresh.
func looksLikeJSShell(page string) bool {
	if strings.Contains(page, "<noscript") && strings.Contains(page, "javascript") {
		return true
	}
	return strings.Contains(page, `meta http-equiv="refresh"`)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
