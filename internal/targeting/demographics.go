package targeting

import (
	"strings"

	"github.com/sells-group/targeting-cli/internal/model"
)

// deriveDemographics builds a demographic block from page signals alone. The
// base is a broad 25-54, all-gender, US/CA/UK, English-language audience;
// textual cues narrow the age band and regional cues reorder the country
// list. Used by the rules path and whenever the AI omits demographics.
func deriveDemographics(analysis *model.WebsiteAnalysis) model.Demographics {
	d := model.Demographics{
		AgeMin:  25,
		AgeMax:  54,
		Genders: []string{"all"},
		Locations: []model.Location{
			{Type: "country", Name: "United States"},
			{Type: "country", Name: "Canada"},
			{Type: "country", Name: "United Kingdom"},
		},
		Languages: []string{"en"},
	}

	text := technicalText(&analysis.Technical)
	bm := analysis.Profile.BusinessModel.Type

	switch {
	case strings.Contains(text, "student") || strings.Contains(text, "college"):
		d.AgeMin, d.AgeMax = 18, 34
	case strings.Contains(text, "senior") || strings.Contains(text, "retirement") || strings.Contains(text, "medicare"):
		d.AgeMin, d.AgeMax = 55, 65
	case strings.Contains(text, "executive") || strings.Contains(text, "enterprise"):
		d.AgeMin, d.AgeMax = 35, 65
	case bm == model.BusinessModelEcommerce && strings.Contains(text, "fashion"):
		d.AgeMin, d.AgeMax = 18, 44
	case bm == model.BusinessModelEcommerce && strings.Contains(text, "luxury"):
		d.AgeMin, d.AgeMax = 30, 65
	}

	switch g := analysis.Profile.AudienceInsights.GenderHint; g {
	case "female", "male":
		d.Genders = []string{g}
	}

	if strings.Contains(text, " uk ") || strings.Contains(text, "london") || strings.Contains(text, "united kingdom") {
		d.Locations = promoteCountry(d.Locations, "United Kingdom")
	}

	return d
}

// technicalText flattens the technical block into one lowercased string for
// cue matching.
func technicalText(t *model.Technical) string {
	var sb strings.Builder
	sb.WriteString(" ")
	sb.WriteString(t.Title)
	sb.WriteString(" ")
	sb.WriteString(t.Description)
	for _, s := range t.Headings {
		sb.WriteString(" ")
		sb.WriteString(s)
	}
	for _, s := range t.Paragraphs {
		sb.WriteString(" ")
		sb.WriteString(s)
	}
	for _, s := range t.CTAs {
		sb.WriteString(" ")
		sb.WriteString(s)
	}
	sb.WriteString(" ")
	return strings.ToLower(sb.String())
}

// promoteCountry moves the named country to the front of the location list,
// adding it if absent.
func promoteCountry(locs []model.Location, name string) []model.Location {
	out := []model.Location{{Type: "country", Name: name}}
	for _, l := range locs {
		if l.Name != name {
			out = append(out, l)
		}
	}
	return out
}
