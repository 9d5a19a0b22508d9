package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# Automate everything

AcmeFlow connects every tool your team already uses into one automated workflow.

## Built for busy teams

Spend less time clicking and more time shipping. Our customers report saving
ten hours a week.

- Unlimited workflows
- Role-based access
* Priority support

[Start free trial](https://acme.example/signup) or [read the docs](https://acme.example/docs).

Get started with AcmeFlow today
`

func TestFromMarkdown(t *testing.T) {
	content := FromMarkdown(sampleMarkdown, "AcmeFlow", "https://acme.example")

	assert.Equal(t, "AcmeFlow", content.Title)
	assert.Equal(t, []string{"Automate everything", "Built for busy teams"}, content.Headings)
	assert.Equal(t, []string{"Unlimited workflows", "Role-based access", "Priority support"}, content.ListItems)

	// Multi-line paragraphs join; link syntax is stripped from body text.
	require.NotEmpty(t, content.Paragraphs)
	assert.Contains(t, content.Paragraphs[1], "ten hours a week")
	for _, p := range content.Paragraphs {
		assert.NotContains(t, p, "](")
	}

	// CTA from link text plus the short emphatic line.
	assert.Contains(t, content.CTAs, "Start free trial")
	assert.Contains(t, content.CTAs, "Get started with AcmeFlow today")
	assert.NotContains(t, content.CTAs, "read the docs")

	// First paragraph stands in for the missing meta description.
	assert.Equal(t, content.Paragraphs[0], content.Description)
}

func TestFromMarkdown_Empty(t *testing.T) {
	content := FromMarkdown("", "", "https://x.example")
	assert.Empty(t, content.Headings)
	assert.Empty(t, content.Paragraphs)
	assert.Empty(t, content.CTAs)
	assert.Empty(t, content.Description)
}

func TestExtractLinkTexts(t *testing.T) {
	texts := extractLinkTexts("See [pricing](https://x/p) and [Book a demo](https://x/d) now")
	assert.Equal(t, []string{"pricing", "Book a demo"}, texts)

	assert.Empty(t, extractLinkTexts("no links here"))
}

func TestStripMarkdownLinks(t *testing.T) {
	assert.Equal(t, "Start here and go", stripMarkdownLinks("[Start here](https://x) and **go**"))
	assert.Equal(t, "plain text", stripMarkdownLinks("plain text"))
}

func TestDedupe(t *testing.T) {
	out := dedupe([]string{"Sign up", "sign UP", "Donate"})
	assert.Equal(t, []string{"Sign up", "Donate"}, out)
}
