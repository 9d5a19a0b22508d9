package model

import "time"

// SessionStatus represents the current state of an analysis session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// AnalysisSession is one website-analysis request: the URL to analyze,
// optional competitor URLs and seed keywords, and its lifecycle status.
// Status is the only shared mutable state between the HTTP handler and the
// background pipeline: it moves pending → processing before background work
// starts and to completed or failed exactly once at the end.
type AnalysisSession struct {
	ID             string         `json:"id"`
	URL            string         `json:"url"`
	CompetitorURLs []string       `json:"competitor_urls,omitempty"`
	Keywords       []string       `json:"keywords,omitempty"`
	Status         SessionStatus  `json:"status"`
	Error          string         `json:"error,omitempty"`
	Result         *SessionResult `json:"result,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SessionResult summarizes a finished pipeline run.
type SessionResult struct {
	Steps       []StepResult `json:"steps"`
	TotalTokens int          `json:"total_tokens"`
	TotalCost   float64      `json:"total_cost"`
}

// StepStatus is the outcome of a single pipeline step.
type StepStatus string

const (
	StepStatusComplete StepStatus = "complete"
	StepStatusFailed   StepStatus = "failed"
	StepStatusSkipped  StepStatus = "skipped"
)

// StepResult records one pipeline step's outcome for observability.
type StepResult struct {
	Name     string         `json:"name"`
	Status   StepStatus     `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// WebsiteAnalysis is the persisted classifier output for a session, plus the
// raw technical metadata the fallback targeting path consumes.
type WebsiteAnalysis struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	URL       string      `json:"url"`
	Profile   SiteProfile `json:"profile"`
	Technical Technical   `json:"technical"`
	CreatedAt time.Time   `json:"created_at"`
}

// Technical carries the raw extracted page structure that survives past
// classification for rule-based targeting.
type Technical struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Paragraphs  []string `json:"paragraphs,omitempty"`
	ListItems   []string `json:"list_items,omitempty"`
	CTAs        []string `json:"ctas,omitempty"`
}

// PricingStrategy is a competitor's guessed pricing approach.
type PricingStrategy string

const (
	PricingFreemium     PricingStrategy = "Freemium"
	PricingSubscription PricingStrategy = "Subscription"
	PricingCustom       PricingStrategy = "Custom pricing"
	PricingStandard     PricingStrategy = "Standard"
)

// CompetitorPositioning describes how a competitor presents itself.
type CompetitorPositioning struct {
	UniqueValueProp string          `json:"unique_value_prop"`
	TargetMarket    string          `json:"target_market"`
	PricingStrategy PricingStrategy `json:"pricing_strategy"`
}

// CompetitorAnalysis is the persisted result for one competitor URL.
type CompetitorAnalysis struct {
	ID              string                      `json:"id"`
	SessionID       string                      `json:"session_id"`
	URL             string                      `json:"url"`
	BusinessModel   BusinessModelClassification `json:"business_model"`
	Positioning     CompetitorPositioning       `json:"positioning"`
	AudienceOverlap []string                    `json:"audience_overlap,omitempty"`
	Strengths       []string                    `json:"strengths"`
	Weaknesses      []string                    `json:"weaknesses"`
	Opportunities   []string                    `json:"opportunities"`
	CreatedAt       time.Time                   `json:"created_at"`
}
