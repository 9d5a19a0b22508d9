package classifier

import (
	"strings"

	"github.com/sells-group/targeting-cli/internal/model"
)

// maxValueProps bounds the extracted value proposition list.
const maxValueProps = 5

// extractValueProps scans headings (primary signal) then the description.
// Position determines a decaying strength score; each accepted proposition is
// categorized by keyword match, defaulting to "overview".
func extractValueProps(content *model.WebsiteContent) []model.ValueProposition {
	var props []model.ValueProposition

	for i, heading := range content.Headings {
		heading = strings.TrimSpace(heading)
		if heading == "" {
			continue
		}
		props = append(props, model.ValueProposition{
			Text:     heading,
			Category: categorizeValueProp(heading),
			Strength: positionStrength(i),
		})
		if len(props) >= maxValueProps {
			return props
		}
	}

	if desc := strings.TrimSpace(content.Description); desc != "" {
		props = append(props, model.ValueProposition{
			Text:     desc,
			Category: categorizeValueProp(desc),
			Strength: 0.5,
		})
	}

	if len(props) > maxValueProps {
		props = props[:maxValueProps]
	}
	return props
}

// positionStrength decays from 0.9 for the first heading down to a 0.5 floor.
func positionStrength(position int) float64 {
	strength := 0.9 - 0.1*float64(position)
	if strength < 0.5 {
		strength = 0.5
	}
	return strength
}

// categorizeValueProp matches proposition text against the category
// vocabularies in fixed order; the first matching category wins.
func categorizeValueProp(text string) model.ValuePropCategory {
	lower := strings.ToLower(text)
	for _, rule := range vocab.ValueProps {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return model.ValuePropOverview
}
