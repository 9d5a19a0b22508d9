package model

import "time"

// Platform identifies the ad platform a recommendation targets.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformGoogle Platform = "google"
)

// FunnelStage is the marketing lifecycle position of a targeting signal.
type FunnelStage string

const (
	FunnelTOF FunnelStage = "TOF" // awareness
	FunnelMOF FunnelStage = "MOF" // consideration
	FunnelBOF FunnelStage = "BOF" // conversion-ready
)

// Recommendation is the actionable label derived from confidence.
type Recommendation string

const (
	RecommendScale Recommendation = "scale"
	RecommendTest  Recommendation = "test"
	RecommendAvoid Recommendation = "avoid"
)

// Location is a geographic targeting entry.
type Location struct {
	Type string `json:"type"` // "country", "region", "city"
	Name string `json:"name"`
}

// Demographics is the shared demographic targeting block for both platforms.
type Demographics struct {
	AgeMin    int        `json:"age_min"`
	AgeMax    int        `json:"age_max"`
	Genders   []string   `json:"genders"`
	Locations []Location `json:"locations"`
	Languages []string   `json:"languages"`
}

// InterestGroup is a Meta interest-targeting entry.
type InterestGroup struct {
	Category        string         `json:"category"`
	Interests       []string       `json:"interests"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	FunnelStage     FunnelStage    `json:"funnel_stage"`
	Recommendation  Recommendation `json:"recommendation"`
	WhyThisConverts string         `json:"why_this_converts"`
}

// Behavior is a Meta behavior-targeting entry.
type Behavior struct {
	Behavior        string         `json:"behavior"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	FunnelStage     FunnelStage    `json:"funnel_stage"`
	Recommendation  Recommendation `json:"recommendation"`
	WhyThisConverts string         `json:"why_this_converts"`
}

// KeywordCluster is a Google keyword-targeting entry. Intent maps onto the
// funnel stage the cluster serves.
type KeywordCluster struct {
	Intent           string      `json:"intent"`
	Keywords         []string    `json:"keywords"`
	SearchVolume     string      `json:"search_volume"`
	CompetitionLevel string      `json:"competition_level"`
	Confidence       float64     `json:"confidence"`
	FunnelStage      FunnelStage `json:"funnel_stage"`
}

// AudienceSegment is a Google audience entry.
type AudienceSegment struct {
	Type        string `json:"type"` // "in-market", "affinity", "custom-intent"
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MetaTargeting is the persisted targeting payload for Meta.
type MetaTargeting struct {
	Demographics Demographics    `json:"demographics"`
	Interests    []InterestGroup `json:"interests"`
	Behaviors    []Behavior      `json:"behaviors"`
}

// GoogleTargeting is the persisted targeting payload for Google.
type GoogleTargeting struct {
	Keywords     []KeywordCluster  `json:"keywords"`
	Audiences    []AudienceSegment `json:"audiences"`
	Demographics Demographics      `json:"demographics"`
}

// TargetingData wraps the platform payloads; exactly one side is set per row.
type TargetingData struct {
	Meta   *MetaTargeting   `json:"meta,omitempty"`
	Google *GoogleTargeting `json:"google,omitempty"`
}

// ConfidenceScores summarizes confidence across a recommendation's items.
type ConfidenceScores struct {
	Overall   float64 `json:"overall"`
	Interests float64 `json:"interests,omitempty"`
	Behaviors float64 `json:"behaviors,omitempty"`
	Keywords  float64 `json:"keywords,omitempty"`
}

// TargetingRecommendation is a persisted recommendation row. Rows are never
// mutated in place; regeneration inserts a fresh row for the same
// (session_id, platform) pair.
type TargetingRecommendation struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"session_id"`
	Platform     Platform          `json:"platform"`
	Data         TargetingData     `json:"targeting_data"`
	Confidence   *ConfidenceScores `json:"confidence_scores,omitempty"`
	Explanations []string          `json:"explanations,omitempty"`
	Source       string            `json:"source"` // "ai" or "rules"
	TokenUsage   TokenUsage        `json:"token_usage"`
	CreatedAt    time.Time         `json:"created_at"`
}
