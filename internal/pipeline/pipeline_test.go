package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/targeting-cli/internal/competitor"
	"github.com/sells-group/targeting-cli/internal/config"
	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/reasoning"
	"github.com/sells-group/targeting-cli/internal/store"
	"github.com/sells-group/targeting-cli/internal/targeting"
)

// memStore is an in-memory store.Store that records lifecycle transitions.
type memStore struct {
	mu              sync.Mutex
	statusHistory   []model.SessionStatus
	failMessages    []string
	completed       int
	analyses        map[string]*model.WebsiteAnalysis
	recommendations []*model.TargetingRecommendation
	competitors     []*model.CompetitorAnalysis

	analysisErr error
	recErr      error
}

func newMemStore() *memStore {
	return &memStore{analyses: make(map[string]*model.WebsiteAnalysis)}
}

func (s *memStore) CreateSession(_ context.Context, url string, competitorURLs, keywords []string) (*model.AnalysisSession, error) {
	return &model.AnalysisSession{ID: "sess-1", URL: url, CompetitorURLs: competitorURLs, Keywords: keywords, Status: model.SessionStatusPending}, nil
}

func (s *memStore) GetSession(_ context.Context, _ string) (*model.AnalysisSession, error) {
	return nil, store.ErrNotFound
}

func (s *memStore) ListSessions(_ context.Context, _ store.SessionFilter) ([]model.AnalysisSession, error) {
	return nil, nil
}

func (s *memStore) UpdateSessionStatus(_ context.Context, _ string, status model.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusHistory = append(s.statusHistory, status)
	return nil
}

func (s *memStore) FailSession(_ context.Context, _ string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusHistory = append(s.statusHistory, model.SessionStatusFailed)
	s.failMessages = append(s.failMessages, errMsg)
	return nil
}

func (s *memStore) CompleteSession(_ context.Context, _ string, _ *model.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusHistory = append(s.statusHistory, model.SessionStatusCompleted)
	s.completed++
	return nil
}

func (s *memStore) CreateAnalysis(_ context.Context, analysis *model.WebsiteAnalysis) error {
	if s.analysisErr != nil {
		return s.analysisErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.SessionID] = analysis
	return nil
}

func (s *memStore) GetAnalysisBySession(_ context.Context, sessionID string) (*model.WebsiteAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyses[sessionID], nil
}

func (s *memStore) CreateRecommendation(_ context.Context, rec *model.TargetingRecommendation) error {
	if s.recErr != nil {
		return s.recErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = append(s.recommendations, rec)
	return nil
}

func (s *memStore) ListRecommendations(_ context.Context, _ string) ([]model.TargetingRecommendation, error) {
	return nil, nil
}

func (s *memStore) CreateCompetitorAnalysis(_ context.Context, ca *model.CompetitorAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitors = append(s.competitors, ca)
	return nil
}

func (s *memStore) ListCompetitorAnalyses(_ context.Context, _ string) ([]model.CompetitorAnalysis, error) {
	return nil, nil
}

func (s *memStore) Migrate(_ context.Context) error { return nil }
func (s *memStore) Close() error                    { return nil }

// fakeExtractor serves canned content per URL. It satisfies both the
// single-URL pipeline surface and the batch surface the competitor
// analyzer consumes.
type fakeExtractor struct {
	content map[string]*model.WebsiteContent
	errs    map[string]error
}

func (e *fakeExtractor) Extract(_ context.Context, url string) (*model.WebsiteContent, error) {
	if err := e.errs[url]; err != nil {
		return nil, err
	}
	if c, ok := e.content[url]; ok {
		return c, nil
	}
	return nil, eris.Errorf("no fake content for %s", url)
}

func (e *fakeExtractor) ExtractAll(_ context.Context, urls []string, _ int) map[string]*model.WebsiteContent {
	out := make(map[string]*model.WebsiteContent, len(urls))
	for _, u := range urls {
		if c, ok := e.content[u]; ok {
			out[u] = c
		}
	}
	return out
}

// fakeReasoner satisfies both the pipeline and targeting Reasoner interfaces.
type fakeReasoner struct {
	configured    bool
	businessModel reasoning.Result[reasoning.BusinessModelInsight]
}

func (r *fakeReasoner) IsConfigured() bool { return r.configured }

func (r *fakeReasoner) AnalyzeBusinessModel(_ context.Context, _ *model.WebsiteContent) reasoning.Result[reasoning.BusinessModelInsight] {
	return r.businessModel
}

func (r *fakeReasoner) AnalyzeAudience(_ context.Context, _ *model.SiteProfile) reasoning.Result[reasoning.AudienceProfile] {
	return reasoning.Result[reasoning.AudienceProfile]{Success: false, Error: "stub"}
}

func (r *fakeReasoner) GenerateMetaTargeting(_ context.Context, _ *model.WebsiteAnalysis, _ *reasoning.AudienceProfile, _ []string) reasoning.Result[reasoning.MetaPayload] {
	return reasoning.Result[reasoning.MetaPayload]{Success: false, Error: "stub"}
}

func (r *fakeReasoner) GenerateGoogleTargeting(_ context.Context, _ *model.WebsiteAnalysis, _ *reasoning.AudienceProfile, _ []string) reasoning.Result[reasoning.GooglePayload] {
	return reasoning.Result[reasoning.GooglePayload]{Success: false, Error: "stub"}
}

func richContent() *model.WebsiteContent {
	return &model.WebsiteContent{
		Title:       "AcmeFlow - Workflow Automation",
		Description: "SaaS platform for workflow automation.",
		Headings:    []string{"Automate your workflow", "Enterprise dashboard"},
		Paragraphs:  []string{"Start a free trial of our analytics software today."},
		CTAs:        []string{"Schedule a demo"},
	}
}

func newTestPipeline(st *memStore, ext *fakeExtractor, r *fakeReasoner) *Pipeline {
	gen := targeting.NewGenerator(st, r, config.TargetingConfig{})
	comp := competitor.NewAnalyzer(ext, st, 2)
	return New(st, ext, r, gen, comp)
}

func TestRun_HappyPath(t *testing.T) {
	st := newMemStore()
	ext := &fakeExtractor{content: map[string]*model.WebsiteContent{
		"https://acme.example": richContent(),
	}}
	p := newTestPipeline(st, ext, &fakeReasoner{})

	session := &model.AnalysisSession{ID: "sess-1", URL: "https://acme.example"}
	result, err := p.Run(context.Background(), session)
	require.NoError(t, err)
	require.NotNil(t, result)

	// processing first, completed exactly once, never failed.
	require.NotEmpty(t, st.statusHistory)
	assert.Equal(t, model.SessionStatusProcessing, st.statusHistory[0])
	assert.Equal(t, model.SessionStatusCompleted, st.statusHistory[len(st.statusHistory)-1])
	assert.Equal(t, 1, st.completed)
	assert.Empty(t, st.failMessages)

	// Steps: website analysis, skipped competitors, both platforms.
	require.Len(t, result.Steps, 4)
	assert.Equal(t, StepWebsiteAnalysis, result.Steps[0].Name)
	assert.Equal(t, model.StepStatusComplete, result.Steps[0].Status)
	assert.Equal(t, StepCompetitorAnalysis, result.Steps[1].Name)
	assert.Equal(t, model.StepStatusSkipped, result.Steps[1].Status)
	assert.Equal(t, StepMetaTargeting, result.Steps[2].Name)
	assert.Equal(t, StepGoogleTargeting, result.Steps[3].Name)

	// One recommendation per platform, rules-sourced without a provider.
	require.Len(t, st.recommendations, 2)
	assert.Equal(t, model.PlatformMeta, st.recommendations[0].Platform)
	assert.Equal(t, model.PlatformGoogle, st.recommendations[1].Platform)
	for _, rec := range st.recommendations {
		assert.Equal(t, "rules", rec.Source)
	}
}

func TestRun_WebsiteAnalysisFailureFailsSession(t *testing.T) {
	st := newMemStore()
	ext := &fakeExtractor{errs: map[string]error{
		"https://down.example": eris.New("connect: connection refused"),
	}}
	p := newTestPipeline(st, ext, &fakeReasoner{})

	session := &model.AnalysisSession{ID: "sess-1", URL: "https://down.example"}
	result, err := p.Run(context.Background(), session)
	require.Error(t, err)
	require.NotNil(t, result, "partial result still returned")

	assert.Len(t, st.failMessages, 1, "session fails exactly once")
	assert.Contains(t, st.failMessages[0], "website analysis failed")
	assert.Zero(t, st.completed)
	assert.Empty(t, st.recommendations, "targeting never runs without an analysis")

	require.Len(t, result.Steps, 1)
	assert.Equal(t, model.StepStatusFailed, result.Steps[0].Status)
}

func TestRun_EmptyContentFailsSession(t *testing.T) {
	st := newMemStore()
	ext := &fakeExtractor{content: map[string]*model.WebsiteContent{
		"https://blank.example": {URL: "https://blank.example"},
	}}
	p := newTestPipeline(st, ext, &fakeReasoner{})

	_, err := p.Run(context.Background(), &model.AnalysisSession{ID: "sess-1", URL: "https://blank.example"})
	require.Error(t, err)
	require.Len(t, st.failMessages, 1)
	assert.Contains(t, st.failMessages[0], "no extractable content")
}

func TestRun_CompetitorFailureDegrades(t *testing.T) {
	st := newMemStore()
	// rival.example is absent from the content map, as a URL that failed
	// every scraper would be.
	ext := &fakeExtractor{
		content: map[string]*model.WebsiteContent{
			"https://acme.example": richContent(),
		},
	}
	p := newTestPipeline(st, ext, &fakeReasoner{})

	session := &model.AnalysisSession{
		ID:             "sess-1",
		URL:            "https://acme.example",
		CompetitorURLs: []string{"https://rival.example"},
	}
	result, err := p.Run(context.Background(), session)
	require.NoError(t, err, "competitor trouble must not fail the session")

	assert.Equal(t, 1, st.completed)
	assert.Empty(t, st.competitors)

	// The competitor step is tracked, complete with zero analyzed.
	require.Len(t, result.Steps, 4)
	assert.Equal(t, StepCompetitorAnalysis, result.Steps[1].Name)
	assert.Equal(t, model.StepStatusComplete, result.Steps[1].Status)
	assert.Equal(t, 0, result.Steps[1].Metadata["analyzed"])
}

func TestRun_CompetitorSuccessPersisted(t *testing.T) {
	st := newMemStore()
	ext := &fakeExtractor{content: map[string]*model.WebsiteContent{
		"https://acme.example":  richContent(),
		"https://rival.example": richContent(),
	}}
	p := newTestPipeline(st, ext, &fakeReasoner{})

	session := &model.AnalysisSession{
		ID:             "sess-1",
		URL:            "https://acme.example",
		CompetitorURLs: []string{"https://rival.example"},
	}
	result, err := p.Run(context.Background(), session)
	require.NoError(t, err)

	assert.Len(t, st.competitors, 1)
	assert.Equal(t, model.StepStatusComplete, result.Steps[1].Status)
	assert.Equal(t, 1, result.Steps[1].Metadata["analyzed"])
}

func TestRun_TargetingFailureFailsSession(t *testing.T) {
	st := newMemStore()
	st.recErr = eris.New("disk full")
	ext := &fakeExtractor{content: map[string]*model.WebsiteContent{
		"https://acme.example": richContent(),
	}}
	p := newTestPipeline(st, ext, &fakeReasoner{})

	_, err := p.Run(context.Background(), &model.AnalysisSession{ID: "sess-1", URL: "https://acme.example"})
	require.Error(t, err)
	require.Len(t, st.failMessages, 1)
	assert.Contains(t, st.failMessages[0], StepMetaTargeting)
	assert.Zero(t, st.completed)
}

func TestRun_AIRefinementOverridesClassifier(t *testing.T) {
	st := newMemStore()
	ext := &fakeExtractor{content: map[string]*model.WebsiteContent{
		"https://acme.example": richContent(),
	}}
	r := &fakeReasoner{
		configured: true,
		businessModel: reasoning.Result[reasoning.BusinessModelInsight]{
			Success:    true,
			Confidence: 0.97,
			Data: &reasoning.BusinessModelInsight{
				BusinessModel: string(model.BusinessModelMarketplace),
				Description:   "Two-sided automation marketplace",
			},
			TokensUsed: model.TokenUsage{InputTokens: 200, OutputTokens: 80, Cost: 0.01},
		},
	}
	p := newTestPipeline(st, ext, r)

	result, err := p.Run(context.Background(), &model.AnalysisSession{ID: "sess-1", URL: "https://acme.example"})
	require.NoError(t, err)

	analysis := st.analyses["sess-1"]
	require.NotNil(t, analysis)
	assert.Equal(t, model.BusinessModelMarketplace, analysis.Profile.BusinessModel.Type)
	assert.Equal(t, "Two-sided automation marketplace", analysis.Profile.BusinessModel.Description)
	assert.InDelta(t, 0.97, analysis.Profile.BusinessModel.Confidence, 0.001)

	assert.Equal(t, 280, result.TotalTokens)
	assert.InDelta(t, 0.01, result.TotalCost, 0.0001)
}

func TestRun_AIRefinementFailureIsNonFatal(t *testing.T) {
	st := newMemStore()
	ext := &fakeExtractor{content: map[string]*model.WebsiteContent{
		"https://acme.example": richContent(),
	}}
	r := &fakeReasoner{
		configured: true,
		businessModel: reasoning.Result[reasoning.BusinessModelInsight]{
			Success: false,
			Error:   "reasoning: provider overloaded",
		},
	}
	p := newTestPipeline(st, ext, r)

	_, err := p.Run(context.Background(), &model.AnalysisSession{ID: "sess-1", URL: "https://acme.example"})
	require.NoError(t, err)

	analysis := st.analyses["sess-1"]
	require.NotNil(t, analysis)
	assert.Equal(t, model.BusinessModelB2BSaaS, analysis.Profile.BusinessModel.Type, "classifier verdict stands")
	assert.Equal(t, 1, st.completed)
}
