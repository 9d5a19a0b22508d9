package extract

import (
	"strings"

	"github.com/sells-group/targeting-cli/internal/model"
)

// FromMarkdown parses reader-style markdown (Jina/Firecrawl output) into
// WebsiteContent. Markdown lacks the DOM cues HTML gives us, so CTAs are
// recovered from link text and short emphatic lines carrying action verbs.
func FromMarkdown(markdown, title, pageURL string) *model.WebsiteContent {
	content := &model.WebsiteContent{
		URL:   pageURL,
		Title: strings.TrimSpace(title),
	}

	var paragraph []string
	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		p := strings.TrimSpace(strings.Join(paragraph, " "))
		paragraph = paragraph[:0]
		if len(p) > 20 {
			content.Paragraphs = append(content.Paragraphs, p)
		}
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			flushParagraph()

		case strings.HasPrefix(line, "#"):
			flushParagraph()
			heading := strings.TrimSpace(strings.TrimLeft(line, "# "))
			heading = stripMarkdownLinks(heading)
			if heading != "" {
				content.Headings = append(content.Headings, heading)
			}

		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ "):
			flushParagraph()
			item := stripMarkdownLinks(strings.TrimSpace(line[2:]))
			if item != "" {
				content.ListItems = append(content.ListItems, item)
			}

		default:
			for _, link := range extractLinkTexts(line) {
				if isCTA(link) {
					content.CTAs = append(content.CTAs, link)
				}
			}
			paragraph = append(paragraph, stripMarkdownLinks(line))
		}
	}
	flushParagraph()

	// Short emphatic standalone lines ("Get Started Today") read as CTAs too.
	for _, p := range content.Paragraphs {
		if len(p) <= 40 && isCTA(p) {
			content.CTAs = append(content.CTAs, p)
		}
	}

	content.CTAs = dedupe(content.CTAs)

	// Jina puts the meta description nowhere in the body; use the first
	// paragraph as a stand-in when it reads like one.
	if content.Description == "" && len(content.Paragraphs) > 0 && len(content.Paragraphs[0]) < 300 {
		content.Description = content.Paragraphs[0]
	}

	return content
}

// extractLinkTexts returns the display text of all [text](url) links in a line.
func extractLinkTexts(line string) []string {
	var texts []string
	for {
		open := strings.Index(line, "[")
		if open < 0 {
			break
		}
		close := strings.Index(line[open:], "](")
		if close < 0 {
			break
		}
		texts = append(texts, strings.TrimSpace(line[open+1:open+close]))
		line = line[open+close+2:]
	}
	return texts
}

// stripMarkdownLinks replaces [text](url) with text and removes emphasis markers.
func stripMarkdownLinks(s string) string {
	for {
		open := strings.Index(s, "[")
		if open < 0 {
			break
		}
		close := strings.Index(s[open:], "](")
		if close < 0 {
			break
		}
		end := strings.Index(s[open+close:], ")")
		if end < 0 {
			break
		}
		s = s[:open] + s[open+1:open+close] + s[open+close+end+1:]
	}
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key := strings.ToLower(it)
		if !seen[key] {
			seen[key] = true
			out = append(out, it)
		}
	}
	return out
}
