package classifier

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/targeting-cli/internal/model"
)

//go:embed vocab.yaml
var vocabYAML []byte

// businessModelRule maps a keyword set to a business model type. Rules are
// evaluated in declaration order; ties break toward the earlier rule.
type businessModelRule struct {
	Type     model.BusinessModelType `yaml:"type"`
	Keywords []string                `yaml:"keywords"`
}

// valuePropRule maps a keyword set to a value proposition category.
type valuePropRule struct {
	Category model.ValuePropCategory `yaml:"category"`
	Keywords []string                `yaml:"keywords"`
}

// audienceVocab holds the marker vocabularies for audience signal detection.
type audienceVocab struct {
	JobTitles       []string `yaml:"job_titles"`
	PainMarkers     []string `yaml:"pain_markers"`
	GoalMarkers     []string `yaml:"goal_markers"`
	BehaviorMarkers []string `yaml:"behavior_markers"`
}

// themeRule maps a keyword cluster to a named content theme.
type themeRule struct {
	Theme    string   `yaml:"theme"`
	Keywords []string `yaml:"keywords"`
}

// vocabulary is the full declarative rule set the classifier evaluates.
type vocabulary struct {
	BusinessModels []businessModelRule `yaml:"business_models"`
	ValueProps     []valuePropRule     `yaml:"value_prop_categories"`
	Audience       audienceVocab       `yaml:"audience"`
	Themes         []themeRule         `yaml:"themes"`
}

// vocab is parsed once at init. The tables are read-only afterwards.
var vocab = mustLoadVocab()

func mustLoadVocab() vocabulary {
	var v vocabulary
	if err := yaml.Unmarshal(vocabYAML, &v); err != nil {
		panic(fmt.Sprintf("classifier: parse embedded vocab: %v", err))
	}
	if len(v.BusinessModels) == 0 || len(v.Themes) == 0 {
		panic("classifier: embedded vocab is incomplete")
	}
	return v
}
