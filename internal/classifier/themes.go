package classifier

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/targeting-cli/internal/model"
)

// maxThemes bounds the extracted theme list.
const maxThemes = 5

// minTokenLen filters short stopword-like tokens from frequency analysis.
const minTokenLen = 5

var titleCaser = cases.Title(language.English)

// extractThemes runs token-frequency analysis over paragraph and heading text
// and groups tokens into named theme clusters. Relevance is proportional to
// normalized cluster frequency; output is sorted descending and truncated.
func extractThemes(content *model.WebsiteContent) []model.ContentTheme {
	freq := make(map[string]int)
	total := 0

	count := func(text string) {
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			tok = strings.Trim(tok, ".,!?:;\"'()[]")
			if len(tok) < minTokenLen {
				continue
			}
			freq[tok]++
			total++
		}
	}
	for _, h := range content.Headings {
		count(h)
	}
	for _, p := range content.Paragraphs {
		count(p)
	}

	if total == 0 {
		return nil
	}

	var themes []model.ContentTheme
	clustered := make(map[string]bool)

	for _, rule := range vocab.Themes {
		hits := 0
		var matched []string
		for _, kw := range rule.Keywords {
			if n := freq[kw]; n > 0 {
				hits += n
				matched = append(matched, kw)
				clustered[kw] = true
			}
		}
		if hits == 0 {
			continue
		}
		themes = append(themes, model.ContentTheme{
			Theme:     rule.Theme,
			Keywords:  matched,
			Relevance: float64(hits) / float64(total),
		})
	}

	// The dominant unclustered token still says something about the site;
	// surface it as its own theme.
	if tok, n := topUnclustered(freq, clustered); tok != "" && n >= 2 {
		themes = append(themes, model.ContentTheme{
			Theme:     titleCaser.String(tok),
			Keywords:  []string{tok},
			Relevance: float64(n) / float64(total),
		})
	}

	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Relevance > themes[j].Relevance
	})
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}

// topUnclustered finds the most frequent token not absorbed by a theme
// cluster. Ties break alphabetically for determinism.
func topUnclustered(freq map[string]int, clustered map[string]bool) (string, int) {
	bestTok := ""
	bestN := 0
	for tok, n := range freq {
		if clustered[tok] {
			continue
		}
		if n > bestN || (n == bestN && (bestTok == "" || tok < bestTok)) {
			bestTok = tok
			bestN = n
		}
	}
	return bestTok, bestN
}
