package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>AcmeFlow - Workflow Automation</title>
  <meta name="description" content="Automate your team's workflow in minutes.">
  <script>console.log("should never appear");</script>
  <style>.hero { color: red; }</style>
</head>
<body>
  <header>
    <nav>
      <a href="/product">Product</a>
      <a href="/pricing">Pricing</a>
      <a href="/pricing">Pricing</a>
    </nav>
  </header>
  <h1>Automate everything</h1>
  <h2>Built for busy teams</h2>
  <h3>Integrations included</h3>
  <p>AcmeFlow connects every tool your team already uses into one automated workflow.</p>
  <p>Short.</p>
  <ul>
    <li>Unlimited workflows</li>
    <li>Role-based access</li>
  </ul>
  <button>Start free trial</button>
  <a href="/demo">Schedule a demo</a>
  <a href="/about">About our company history and the people behind it, a very long anchor text that keeps going</a>
  <input type="submit" value="Sign up">
</body>
</html>`

func TestFromHTML(t *testing.T) {
	content, err := FromHTML(strings.NewReader(samplePage), "text/html; charset=utf-8", "https://acme.example")
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example", content.URL)
	assert.Equal(t, "AcmeFlow - Workflow Automation", content.Title)
	assert.Equal(t, "Automate your team's workflow in minutes.", content.Description)

	assert.Equal(t, []string{"Automate everything", "Built for busy teams", "Integrations included"}, content.Headings)

	// Nav links deduplicated.
	assert.Equal(t, []string{"Product", "Pricing"}, content.NavLinks)

	// Buttons, submit values, and action anchors; long anchors skipped.
	assert.Contains(t, content.CTAs, "Start free trial")
	assert.Contains(t, content.CTAs, "Schedule a demo")
	assert.Contains(t, content.CTAs, "Sign up")
	assert.Len(t, content.CTAs, 3)

	// Short paragraphs and script/style text filtered out.
	require.Len(t, content.Paragraphs, 1)
	assert.Contains(t, content.Paragraphs[0], "connects every tool")
	assert.NotContains(t, strings.Join(content.Paragraphs, " "), "should never appear")

	assert.Equal(t, []string{"Unlimited workflows", "Role-based access"}, content.ListItems)
}

func TestFromHTML_OGDescriptionFallback(t *testing.T) {
	page := `<html><head>
		<meta property="og:description" content="Fallback description.">
	</head><body></body></html>`

	content, err := FromHTML(strings.NewReader(page), "text/html", "https://x.example")
	require.NoError(t, err)
	assert.Equal(t, "Fallback description.", content.Description)
}

func TestFromHTML_CollapsesWhitespace(t *testing.T) {
	page := "<html><body><h1>  Spaced \n\t out   heading </h1></body></html>"

	content, err := FromHTML(strings.NewReader(page), "text/html", "https://x.example")
	require.NoError(t, err)
	require.Len(t, content.Headings, 1)
	assert.Equal(t, "Spaced out heading", content.Headings[0])
}

func TestIsCTA(t *testing.T) {
	assert.True(t, isCTA("Get started"))
	assert.True(t, isCTA("BOOK NOW"))
	assert.False(t, isCTA(""))
	assert.False(t, isCTA("Our story"))
	assert.False(t, isCTA("Learn more about our fifty-year history of excellence in precision manufacturing"))
}
