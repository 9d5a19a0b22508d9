package reasoning

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/targeting-cli/internal/model"
)

// Response schemas for each operation. Every field the model might omit gets
// an explicit default in applyDefaults, so downstream code never sees a
// half-populated payload. Pointer fields distinguish "absent" from zero.

// clampConfidence normalizes a model-reported confidence into [0,1], treating
// absent (zero) as a neutral 0.5.
func clampConfidence(c float64) float64 {
	switch {
	case c <= 0:
		return 0.5
	case c > 1:
		return 1.0
	}
	return c
}

func confOrDefault(c *float64, fallback float64) float64 {
	if c == nil {
		return fallback
	}
	return clampConfidence(*c)
}

// RawDemographics is the demographic block as the model emits it.
type RawDemographics struct {
	AgeMin    int      `json:"age_min"`
	AgeMax    int      `json:"age_max"`
	Genders   []string `json:"genders"`
	Locations []string `json:"locations"`
	Languages []string `json:"languages"`
}

func (d *RawDemographics) applyDefaults() {
	if d.AgeMin < 18 {
		d.AgeMin = 25
	}
	if d.AgeMax <= d.AgeMin || d.AgeMax > 65 {
		d.AgeMax = 54
	}
	if len(d.Genders) == 0 {
		d.Genders = []string{"all"}
	}
	if len(d.Locations) == 0 {
		d.Locations = []string{"United States", "Canada", "United Kingdom"}
	}
	if len(d.Languages) == 0 {
		d.Languages = []string{"en"}
	}
}

// ToModel converts the raw block into the canonical Demographics type,
// treating each location name as a country.
func (d *RawDemographics) ToModel() model.Demographics {
	locs := make([]model.Location, 0, len(d.Locations))
	for _, name := range d.Locations {
		locs = append(locs, model.Location{Type: "country", Name: name})
	}
	return model.Demographics{
		AgeMin:    d.AgeMin,
		AgeMax:    d.AgeMax,
		Genders:   d.Genders,
		Locations: locs,
		Languages: d.Languages,
	}
}

// BusinessModelInsight is the AI's refinement of the rule-based business
// model classification.
type BusinessModelInsight struct {
	BusinessModel   string   `json:"business_model"`
	Description     string   `json:"description"`
	ValueProps      []string `json:"value_propositions"`
	Differentiators []string `json:"differentiators"`
	PricingStrategy string   `json:"pricing_strategy"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
}

func (b *BusinessModelInsight) applyDefaults() {
	b.BusinessModel = canonicalBusinessModel(b.BusinessModel)
	b.Confidence = clampConfidence(b.Confidence)
	if b.PricingStrategy == "" {
		b.PricingStrategy = string(model.PricingStandard)
	}
	if len(b.ValueProps) > 5 {
		b.ValueProps = b.ValueProps[:5]
	}
}

func (b *BusinessModelInsight) validate() error {
	if b.Description == "" && len(b.ValueProps) == 0 {
		return eris.New("business model insight carries no content")
	}
	return nil
}

func (b *BusinessModelInsight) envelope() (float64, string) {
	return b.Confidence, b.Reasoning
}

// canonicalBusinessModel maps free-form model output onto a canonical type.
// Unrecognized labels collapse to Other rather than leaking novel categories.
func canonicalBusinessModel(label string) string {
	for _, t := range model.AllBusinessModelTypes() {
		if string(t) == label {
			return label
		}
	}
	return string(model.BusinessModelOther)
}

// AudienceProfile is the AI's audience portrait for a site.
type AudienceProfile struct {
	Demographics RawDemographics `json:"demographics"`
	JobTitles    []string        `json:"job_titles"`
	Interests    []string        `json:"interests"`
	PainPoints   []string        `json:"pain_points"`
	Goals        []string        `json:"goals"`
	Behaviors    []string        `json:"behaviors"`
	Confidence   float64         `json:"confidence"`
	Reasoning    string          `json:"reasoning"`
}

func (a *AudienceProfile) applyDefaults() {
	a.Demographics.applyDefaults()
	a.Confidence = clampConfidence(a.Confidence)
}

func (a *AudienceProfile) validate() error {
	if len(a.Interests) == 0 && len(a.JobTitles) == 0 && len(a.PainPoints) == 0 {
		return eris.New("audience profile carries no signals")
	}
	return nil
}

func (a *AudienceProfile) envelope() (float64, string) {
	return a.Confidence, a.Reasoning
}

// RawInterestGroup is one Meta interest cluster as the model emits it.
type RawInterestGroup struct {
	Category   string   `json:"category"`
	Interests  []string `json:"interests"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// RawBehavior is one Meta behavior entry as the model emits it.
type RawBehavior struct {
	Behavior   string   `json:"behavior"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// MetaPayload is the Meta targeting response schema.
type MetaPayload struct {
	Demographics   RawDemographics    `json:"demographics"`
	InterestGroups []RawInterestGroup `json:"interest_groups"`
	Behaviors      []RawBehavior      `json:"behaviors"`
	Confidence     float64            `json:"confidence"`
	Reasoning      string             `json:"reasoning"`
}

func (m *MetaPayload) applyDefaults() {
	m.Demographics.applyDefaults()
	m.Confidence = clampConfidence(m.Confidence)

	groups := m.InterestGroups[:0]
	for _, g := range m.InterestGroups {
		if len(g.Interests) == 0 {
			continue
		}
		if g.Category == "" {
			g.Category = "General"
		}
		groups = append(groups, g)
	}
	m.InterestGroups = groups

	behaviors := m.Behaviors[:0]
	for _, b := range m.Behaviors {
		if b.Behavior == "" {
			continue
		}
		behaviors = append(behaviors, b)
	}
	m.Behaviors = behaviors
}

func (m *MetaPayload) validate() error {
	if len(m.InterestGroups) == 0 {
		return eris.New("meta payload has no interest groups")
	}
	return nil
}

func (m *MetaPayload) envelope() (float64, string) {
	return m.Confidence, m.Reasoning
}

// RawKeywordCluster is one Google keyword cluster as the model emits it.
type RawKeywordCluster struct {
	Intent           string   `json:"intent"`
	Keywords         []string `json:"keywords"`
	SearchVolume     string   `json:"search_volume"`
	CompetitionLevel string   `json:"competition_level"`
	Confidence       *float64 `json:"confidence"`
}

// RawAudienceSegment is one Google audience segment as the model emits it.
type RawAudienceSegment struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GooglePayload is the Google targeting response schema.
type GooglePayload struct {
	KeywordClusters  []RawKeywordCluster  `json:"keyword_clusters"`
	AudienceSegments []RawAudienceSegment `json:"audience_segments"`
	Demographics     RawDemographics      `json:"demographics"`
	Confidence       float64              `json:"confidence"`
	Reasoning        string               `json:"reasoning"`
}

func (g *GooglePayload) applyDefaults() {
	g.Demographics.applyDefaults()
	g.Confidence = clampConfidence(g.Confidence)

	clusters := g.KeywordClusters[:0]
	for _, c := range g.KeywordClusters {
		if len(c.Keywords) == 0 {
			continue
		}
		if c.Intent == "" {
			c.Intent = "commercial"
		}
		if c.SearchVolume == "" {
			c.SearchVolume = "medium"
		}
		if c.CompetitionLevel == "" {
			c.CompetitionLevel = "medium"
		}
		clusters = append(clusters, c)
	}
	g.KeywordClusters = clusters

	segments := g.AudienceSegments[:0]
	for _, s := range g.AudienceSegments {
		if s.Name == "" {
			continue
		}
		if s.Type == "" {
			s.Type = "in-market"
		}
		segments = append(segments, s)
	}
	g.AudienceSegments = segments
}

func (g *GooglePayload) validate() error {
	if len(g.KeywordClusters) == 0 {
		return eris.New("google payload has no keyword clusters")
	}
	if len(g.AudienceSegments) == 0 {
		return eris.New("google payload has no audience segments")
	}
	return nil
}

func (g *GooglePayload) envelope() (float64, string) {
	return g.Confidence, g.Reasoning
}
