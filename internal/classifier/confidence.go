package classifier

import "github.com/sells-group/targeting-cli/internal/model"

// overallConfidence blends content richness with business model signal
// strength, each weighted equally. Sparse input (2 headings, 1 paragraph, no
// CTAs) lands below 0.7 even with a strong model signal; rich input with a
// clear signal lands well above 0.5.
func overallConfidence(content *model.WebsiteContent, modelConfidence float64) float64 {
	richness := 0.0

	richness += 0.3 * ratio(len(content.Headings), 5)
	richness += 0.3 * ratio(len(content.Paragraphs), 5)
	richness += 0.2 * ratio(len(content.CTAs), 3)
	if content.Title != "" {
		richness += 0.1
	}
	if content.Description != "" {
		richness += 0.1
	}

	conf := 0.5*richness + 0.5*modelConfidence
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// ratio returns n/target clamped to [0,1].
func ratio(n, target int) float64 {
	if n >= target {
		return 1.0
	}
	if n <= 0 {
		return 0.0
	}
	return float64(n) / float64(target)
}
