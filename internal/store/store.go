// Package store persists analysis sessions and their derived artifacts.
// SQLite is the default backend; Postgres is available for shared
// deployments. Both speak the same interface and the same JSON column
// encodings.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/targeting-cli/internal/model"
)

// ErrNotFound is returned by lookups for rows that do not exist. Use
// eris.Is to detect it through wrapping.
var ErrNotFound = eris.New("store: not found")

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Status model.SessionStatus `json:"status,omitempty"`
	URL    string              `json:"url,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// Store defines the persistence interface for the targeting pipeline.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, url string, competitorURLs, keywords []string) (*model.AnalysisSession, error)
	GetSession(ctx context.Context, sessionID string) (*model.AnalysisSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.AnalysisSession, error)
	UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error
	FailSession(ctx context.Context, sessionID string, errMsg string) error
	CompleteSession(ctx context.Context, sessionID string, result *model.SessionResult) error

	// Website analyses
	CreateAnalysis(ctx context.Context, analysis *model.WebsiteAnalysis) error
	// GetAnalysisBySession returns the newest analysis for a session, or
	// (nil, nil) when the analysis step never completed.
	GetAnalysisBySession(ctx context.Context, sessionID string) (*model.WebsiteAnalysis, error)

	// Targeting recommendations. Rows are insert-only; regeneration adds a
	// fresh row for the same (session, platform) pair.
	CreateRecommendation(ctx context.Context, rec *model.TargetingRecommendation) error
	ListRecommendations(ctx context.Context, sessionID string) ([]model.TargetingRecommendation, error)

	// Competitor analyses
	CreateCompetitorAnalysis(ctx context.Context, ca *model.CompetitorAnalysis) error
	ListCompetitorAnalyses(ctx context.Context, sessionID string) ([]model.CompetitorAnalysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
