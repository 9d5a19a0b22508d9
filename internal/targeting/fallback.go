package targeting

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/targeting-cli/internal/model"
)

//go:embed vocab.yaml
var vocabYAML []byte

// Output minimums the rules path guarantees regardless of how thin the
// vocabulary entry is.
const (
	minInterestGroups  = 2
	minBehaviors       = 2
	minKeywordClusters = 1
	minAudienceSegs    = 1
)

type interestGroupRule struct {
	Category   string   `yaml:"category"`
	Interests  []string `yaml:"interests"`
	Confidence float64  `yaml:"confidence"`
	Reasoning  string   `yaml:"reasoning"`
}

type behaviorRule struct {
	Behavior   string  `yaml:"behavior"`
	Confidence float64 `yaml:"confidence"`
	Reasoning  string  `yaml:"reasoning"`
}

type keywordClusterRule struct {
	Intent           string   `yaml:"intent"`
	Keywords         []string `yaml:"keywords"`
	SearchVolume     string   `yaml:"search_volume"`
	CompetitionLevel string   `yaml:"competition_level"`
	Confidence       float64  `yaml:"confidence"`
}

type audienceSegmentRule struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type targetingProfile struct {
	BusinessModel string `yaml:"business_model"`
	Meta          struct {
		InterestGroups []interestGroupRule `yaml:"interest_groups"`
		Behaviors      []behaviorRule      `yaml:"behaviors"`
	} `yaml:"meta"`
	Google struct {
		KeywordClusters  []keywordClusterRule  `yaml:"keyword_clusters"`
		AudienceSegments []audienceSegmentRule `yaml:"audience_segments"`
	} `yaml:"google"`
}

type targetingVocab struct {
	Profiles []targetingProfile `yaml:"profiles"`
}

var vocab = mustLoadVocab()

func mustLoadVocab() targetingVocab {
	var v targetingVocab
	if err := yaml.Unmarshal(vocabYAML, &v); err != nil {
		panic(fmt.Sprintf("targeting: embedded vocab.yaml is invalid: %v", err))
	}
	if len(v.Profiles) == 0 {
		panic("targeting: embedded vocab.yaml has no profiles")
	}
	return v
}

// profileFor returns the vocabulary entry for a business model, falling back
// to the Other profile for unrecognized types.
func profileFor(bm model.BusinessModelType) targetingProfile {
	var other targetingProfile
	for _, p := range vocab.Profiles {
		if p.BusinessModel == string(bm) {
			return p
		}
		if p.BusinessModel == string(model.BusinessModelOther) {
			other = p
		}
	}
	return other
}

// fallbackMeta builds a complete Meta payload from the rules vocabulary.
// Advertiser seed keywords become an additional interest group; generic
// entries from the Other profile top up anything below the output minimums.
func fallbackMeta(analysis *model.WebsiteAnalysis, keywords []string) *model.MetaTargeting {
	p := profileFor(analysis.Profile.BusinessModel.Type)

	mt := &model.MetaTargeting{
		Demographics: deriveDemographics(analysis),
	}
	for _, g := range p.Meta.InterestGroups {
		mt.Interests = append(mt.Interests, model.InterestGroup{
			Category:   g.Category,
			Interests:  g.Interests,
			Confidence: g.Confidence,
			Reasoning:  g.Reasoning,
		})
	}
	for _, b := range p.Meta.Behaviors {
		mt.Behaviors = append(mt.Behaviors, model.Behavior{
			Behavior:   b.Behavior,
			Confidence: b.Confidence,
			Reasoning:  b.Reasoning,
		})
	}

	if len(keywords) > 0 {
		mt.Interests = append(mt.Interests, model.InterestGroup{
			Category:   "Advertiser keywords",
			Interests:  keywords,
			Confidence: 0.7,
			Reasoning:  "Supplied directly by the advertiser as seed targeting",
		})
	}

	topUpMeta(mt)
	annotateMeta(mt)
	return mt
}

// fallbackGoogle builds a complete Google payload from the rules vocabulary.
// Seed keywords become their own custom-intent cluster; content themes
// contribute keywords when the vocabulary entry runs thin.
func fallbackGoogle(analysis *model.WebsiteAnalysis, keywords []string) *model.GoogleTargeting {
	p := profileFor(analysis.Profile.BusinessModel.Type)

	gt := &model.GoogleTargeting{
		Demographics: deriveDemographics(analysis),
	}
	for _, c := range p.Google.KeywordClusters {
		gt.Keywords = append(gt.Keywords, model.KeywordCluster{
			Intent:           c.Intent,
			Keywords:         c.Keywords,
			SearchVolume:     c.SearchVolume,
			CompetitionLevel: c.CompetitionLevel,
			Confidence:       c.Confidence,
		})
	}
	for _, s := range p.Google.AudienceSegments {
		gt.Audiences = append(gt.Audiences, model.AudienceSegment{
			Type:        s.Type,
			Name:        s.Name,
			Description: s.Description,
		})
	}

	if len(keywords) > 0 {
		gt.Keywords = append(gt.Keywords, model.KeywordCluster{
			Intent:           "custom",
			Keywords:         keywords,
			SearchVolume:     "medium",
			CompetitionLevel: "medium",
			Confidence:       0.75,
		})
	}
	if themed := themeKeywords(analysis); len(themed) > 0 {
		gt.Keywords = append(gt.Keywords, model.KeywordCluster{
			Intent:           "informational",
			Keywords:         themed,
			SearchVolume:     "medium",
			CompetitionLevel: "low",
			Confidence:       0.6,
		})
	}

	topUpGoogle(gt)
	annotateGoogle(gt)
	return gt
}

// topUpMeta guarantees the Meta output minimums by borrowing generic entries
// from the Other profile. Duplicated categories are skipped.
func topUpMeta(mt *model.MetaTargeting) {
	generic := profileFor(model.BusinessModelOther)

	for _, g := range generic.Meta.InterestGroups {
		if len(mt.Interests) >= minInterestGroups {
			break
		}
		if hasCategory(mt.Interests, g.Category) {
			continue
		}
		mt.Interests = append(mt.Interests, model.InterestGroup{
			Category:   g.Category,
			Interests:  g.Interests,
			Confidence: g.Confidence,
			Reasoning:  g.Reasoning,
		})
	}
	for _, b := range generic.Meta.Behaviors {
		if len(mt.Behaviors) >= minBehaviors {
			break
		}
		if hasBehavior(mt.Behaviors, b.Behavior) {
			continue
		}
		mt.Behaviors = append(mt.Behaviors, model.Behavior{
			Behavior:   b.Behavior,
			Confidence: b.Confidence,
			Reasoning:  b.Reasoning,
		})
	}
}

// topUpGoogle guarantees the Google output minimums from the Other profile.
func topUpGoogle(gt *model.GoogleTargeting) {
	generic := profileFor(model.BusinessModelOther)

	for _, c := range generic.Google.KeywordClusters {
		if len(gt.Keywords) >= minKeywordClusters {
			break
		}
		gt.Keywords = append(gt.Keywords, model.KeywordCluster{
			Intent:           c.Intent,
			Keywords:         c.Keywords,
			SearchVolume:     c.SearchVolume,
			CompetitionLevel: c.CompetitionLevel,
			Confidence:       c.Confidence,
		})
	}
	for _, s := range generic.Google.AudienceSegments {
		if len(gt.Audiences) >= minAudienceSegs {
			break
		}
		gt.Audiences = append(gt.Audiences, model.AudienceSegment{
			Type:        s.Type,
			Name:        s.Name,
			Description: s.Description,
		})
	}
}

// themeKeywords collects the classifier's theme keywords as long-tail search
// terms, capped at eight.
func themeKeywords(analysis *model.WebsiteAnalysis) []string {
	var out []string
	seen := make(map[string]bool)
	for _, theme := range analysis.Profile.ContentThemes {
		for _, kw := range theme.Keywords {
			kw = strings.ToLower(kw)
			if seen[kw] {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
			if len(out) >= 8 {
				return out
			}
		}
	}
	return out
}

func hasCategory(groups []model.InterestGroup, category string) bool {
	for _, g := range groups {
		if strings.EqualFold(g.Category, category) {
			return true
		}
	}
	return false
}

func hasBehavior(behaviors []model.Behavior, name string) bool {
	for _, b := range behaviors {
		if strings.EqualFold(b.Behavior, name) {
			return true
		}
	}
	return false
}
