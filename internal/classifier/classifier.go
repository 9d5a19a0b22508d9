// Package classifier derives a SiteProfile (business model, value
// propositions, audience signals, and content themes) from extracted website
// content. Pure functions over declarative rule tables: no I/O, no
// randomness, and never an error. Sparse input yields low-confidence
// defaults instead of failure.
package classifier

import (
	"fmt"
	"strings"

	"github.com/sells-group/targeting-cli/internal/model"
)

// Classify runs the full rule-table analysis over one content snapshot.
func Classify(content *model.WebsiteContent) *model.SiteProfile {
	text := aggregateText(content)

	bm := classifyBusinessModel(text)
	profile := &model.SiteProfile{
		BusinessModel:     bm,
		ValuePropositions: extractValueProps(content),
		AudienceInsights:  detectAudience(text),
		ContentThemes:     extractThemes(content),
	}
	profile.Confidence = overallConfidence(content, bm.Confidence)
	return profile
}

// aggregateText lowercases and joins every text field the rules score against.
func aggregateText(content *model.WebsiteContent) string {
	var sb strings.Builder
	add := func(s string) {
		if s != "" {
			sb.WriteString(s)
			sb.WriteByte(' ')
		}
	}
	add(content.Title)
	add(content.Description)
	for _, h := range content.Headings {
		add(h)
	}
	for _, p := range content.Paragraphs {
		add(p)
	}
	for _, li := range content.ListItems {
		add(li)
	}
	for _, cta := range content.CTAs {
		add(cta)
	}
	for _, nav := range content.NavLinks {
		add(nav)
	}
	return strings.ToLower(sb.String())
}

// classifyBusinessModel scores the aggregated text against each business
// model vocabulary in fixed priority order. The highest distinct-hit count
// wins; a tie keeps the earlier rule.
func classifyBusinessModel(text string) model.BusinessModelClassification {
	best := model.BusinessModelClassification{
		Type:        model.BusinessModelOther,
		Description: "No clear business model signals detected",
		Confidence:  0.3,
	}
	bestHits := 0

	for _, rule := range vocab.BusinessModels {
		hits := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = model.BusinessModelClassification{
				Type:        rule.Type,
				Description: fmt.Sprintf("Matched %d distinct %s signals in page copy", hits, rule.Type),
				Confidence:  hitConfidence(hits),
			}
		}
	}

	return best
}

// hitConfidence maps distinct keyword hits to a confidence score. Monotonic
// in hit density, capped at 0.95.
func hitConfidence(hits int) float64 {
	conf := 0.30 + 0.08*float64(hits)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}
