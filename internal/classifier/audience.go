package classifier

import (
	"strings"

	"github.com/sells-group/targeting-cli/internal/model"
)

// detectAudience pattern-matches audience signals in the aggregated text.
// Every category returns an absent result, never an error, when nothing
// matches. The input is already lowercased.
func detectAudience(text string) model.AudienceInsights {
	insights := model.AudienceInsights{}

	for _, title := range vocab.Audience.JobTitles {
		if containsWord(text, title) {
			insights.JobTitles = append(insights.JobTitles, title)
		}
	}

	for _, marker := range vocab.Audience.PainMarkers {
		if phrase := phraseAfter(text, marker); phrase != "" {
			insights.PainPoints = append(insights.PainPoints, phrase)
		}
	}

	for _, marker := range vocab.Audience.GoalMarkers {
		if phrase := phraseAfter(text, marker); phrase != "" {
			insights.Goals = append(insights.Goals, phrase)
		}
	}

	for _, marker := range vocab.Audience.BehaviorMarkers {
		if strings.Contains(text, marker) {
			insights.Behaviors = append(insights.Behaviors, marker)
		}
	}

	insights.AgeHint = detectAgeHint(text)
	insights.GenderHint = detectGenderHint(text)

	return insights
}

// containsWord checks for a whole-word match, so "ceo" doesn't fire on
// "oceanic". Multi-word titles fall back to substring match.
func containsWord(text, word string) bool {
	if strings.Contains(word, " ") || strings.Contains(word, "-") {
		return strings.Contains(text, word)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		startOK := start == 0 || !isAlpha(text[start-1])
		endOK := end == len(text) || !isAlpha(text[end])
		if startOK && endOK {
			return true
		}
		idx = end
	}
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// phraseAfter returns the marker plus up to eight following words, clipped at
// sentence boundaries. Empty when the marker is absent.
func phraseAfter(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	rest := text[idx:]
	if cut := strings.IndexAny(rest, ".!?\n"); cut > 0 {
		rest = rest[:cut]
	}
	words := strings.Fields(rest)
	markerWords := len(strings.Fields(marker))
	if len(words) > markerWords+8 {
		words = words[:markerWords+8]
	}
	return strings.Join(words, " ")
}

func detectAgeHint(text string) string {
	switch {
	case strings.Contains(text, "student") || strings.Contains(text, "college"):
		return "18-34"
	case strings.Contains(text, "senior") || strings.Contains(text, "retirement") || strings.Contains(text, "medicare"):
		return "55+"
	case strings.Contains(text, "executive") || strings.Contains(text, "enterprise"):
		return "35-65"
	}
	return ""
}

func detectGenderHint(text string) string {
	women := strings.Contains(text, "women") || strings.Contains(text, "for her")
	men := strings.Contains(text, " men") || strings.Contains(text, "for him")
	switch {
	case women && !men:
		return "female"
	case men && !women:
		return "male"
	}
	return ""
}
