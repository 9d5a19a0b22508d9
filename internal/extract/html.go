// Package extract turns scraped pages into structured WebsiteContent:
// title, description, headings, paragraphs, list items, CTAs, and nav links.
package extract

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/sells-group/targeting-cli/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ctaVerbs are the action phrases that mark a link or button as a
// call-to-action. Matched case-insensitively against the element text.
var ctaVerbs = []string{
	"get started",
	"sign up",
	"start free trial",
	"free trial",
	"schedule a demo",
	"request a demo",
	"book a demo",
	"buy now",
	"add to cart",
	"shop now",
	"checkout",
	"subscribe",
	"contact us",
	"contact sales",
	"request a quote",
	"get a quote",
	"book now",
	"book an appointment",
	"learn more",
	"try it free",
	"join now",
	"donate",
	"apply now",
	"download",
}

// FromHTML parses raw HTML into WebsiteContent. Non-UTF8 input is decoded
// using the detected charset before parsing.
func FromHTML(r io.Reader, contentType, pageURL string) (*model.WebsiteContent, error) {
	buf := new(bytes.Buffer)
	_, _ = io.Copy(buf, r)
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, err
	}

	// Remove script & style
	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	content := &model.WebsiteContent{
		URL:   pageURL,
		Title: cleanText(doc.Find("title").First().Text()),
	}

	content.Description = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if content.Description == "" {
		content.Description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	// Headings, document order h1 → h3.
	doc.Find("h1,h2,h3").Each(func(i int, s *goquery.Selection) {
		if txt := cleanText(s.Text()); txt != "" {
			content.Headings = append(content.Headings, txt)
		}
	})

	// Nav links first, so CTA detection can skip pure navigation anchors.
	navSeen := map[string]bool{}
	doc.Find("nav a, header a").Each(func(i int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		if txt == "" || navSeen[strings.ToLower(txt)] {
			return
		}
		navSeen[strings.ToLower(txt)] = true
		content.NavLinks = append(content.NavLinks, txt)
	})

	// CTAs: buttons, submit inputs, and anchors whose text carries an action verb.
	ctaSeen := map[string]bool{}
	addCTA := func(txt string) {
		key := strings.ToLower(txt)
		if txt == "" || ctaSeen[key] {
			return
		}
		ctaSeen[key] = true
		content.CTAs = append(content.CTAs, txt)
	}
	doc.Find("button, input[type=submit]").Each(func(i int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		if txt == "" {
			txt = cleanText(s.AttrOr("value", ""))
		}
		if txt != "" {
			addCTA(txt)
		}
	})
	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		if isCTA(txt) {
			addCTA(txt)
		}
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if txt := cleanText(s.Text()); len(txt) > 20 {
			content.Paragraphs = append(content.Paragraphs, txt)
		}
	})

	doc.Find("li").Each(func(i int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		// Skip nav items that were already captured as links.
		if txt != "" && !navSeen[strings.ToLower(txt)] {
			content.ListItems = append(content.ListItems, txt)
		}
	})

	return content, nil
}

// isCTA reports whether element text reads like a call-to-action.
func isCTA(txt string) bool {
	if txt == "" || len(txt) > 60 {
		return false
	}
	lower := strings.ToLower(txt)
	for _, verb := range ctaVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
