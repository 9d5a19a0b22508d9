package model

// BusinessModelType is a canonical business model category.
type BusinessModelType string

// Canonical business model constants. The declaration order here mirrors the
// classifier's evaluation priority; ties break toward the earlier type.
const (
	BusinessModelB2BSaaS         BusinessModelType = "B2B SaaS"
	BusinessModelEcommerce       BusinessModelType = "E-commerce"
	BusinessModelServiceBusiness BusinessModelType = "Service Business"
	BusinessModelAgency          BusinessModelType = "Agency"
	BusinessModelMarketplace     BusinessModelType = "Marketplace"
	BusinessModelEducation       BusinessModelType = "Education"
	BusinessModelHealthcare      BusinessModelType = "Healthcare"
	BusinessModelNonprofit       BusinessModelType = "Nonprofit"
	BusinessModelContentMedia    BusinessModelType = "Content/Media"
	BusinessModelOther           BusinessModelType = "Other"
)

// AllBusinessModelTypes returns the canonical types in classifier priority order.
func AllBusinessModelTypes() []BusinessModelType {
	return []BusinessModelType{
		BusinessModelB2BSaaS,
		BusinessModelEcommerce,
		BusinessModelServiceBusiness,
		BusinessModelAgency,
		BusinessModelMarketplace,
		BusinessModelEducation,
		BusinessModelHealthcare,
		BusinessModelNonprofit,
		BusinessModelContentMedia,
		BusinessModelOther,
	}
}

// BusinessModelClassification is the classifier's verdict for a site.
type BusinessModelClassification struct {
	Type        BusinessModelType `json:"type"`
	Description string            `json:"description"`
	Confidence  float64           `json:"confidence"`
}

// ValuePropCategory labels the kind of benefit a value proposition claims.
type ValuePropCategory string

const (
	ValuePropCostSavings ValuePropCategory = "cost_savings"
	ValuePropSpeed       ValuePropCategory = "speed"
	ValuePropSecurity    ValuePropCategory = "security"
	ValuePropEaseOfUse   ValuePropCategory = "ease_of_use"
	ValuePropQuality     ValuePropCategory = "quality"
	ValuePropOverview    ValuePropCategory = "overview"
)

// ValueProposition is a claimed customer benefit extracted from on-page copy.
type ValueProposition struct {
	Text     string            `json:"text"`
	Category ValuePropCategory `json:"category"`
	Strength float64           `json:"strength"`
}

// AudienceInsights holds audience signals detected in page copy. Nil/empty
// slices mean "not detected", never an error.
type AudienceInsights struct {
	JobTitles  []string `json:"job_titles,omitempty"`
	AgeHint    string   `json:"age_hint,omitempty"`
	GenderHint string   `json:"gender_hint,omitempty"`
	PainPoints []string `json:"pain_points,omitempty"`
	Goals      []string `json:"goals,omitempty"`
	Behaviors  []string `json:"behaviors,omitempty"`
}

// ContentTheme is a named keyword cluster with a relevance score.
type ContentTheme struct {
	Theme     string   `json:"theme"`
	Keywords  []string `json:"keywords"`
	Relevance float64  `json:"relevance_score"`
}

// SiteProfile bundles everything the classifier derives from one
// WebsiteContent snapshot.
type SiteProfile struct {
	BusinessModel     BusinessModelClassification `json:"business_model"`
	ValuePropositions []ValueProposition          `json:"value_propositions"`
	AudienceInsights  AudienceInsights            `json:"audience_insights"`
	ContentThemes     []ContentTheme              `json:"content_themes"`
	Confidence        float64                     `json:"confidence"`
}
