package competitor

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/targeting-cli/internal/model"
)

type stubExtractor struct {
	pages     map[string]*model.WebsiteContent
	gotURLs   []string
	gotLimit  int
	batchRuns int
}

func (e *stubExtractor) ExtractAll(_ context.Context, urls []string, maxConcurrent int) map[string]*model.WebsiteContent {
	e.batchRuns++
	e.gotURLs = urls
	e.gotLimit = maxConcurrent
	out := make(map[string]*model.WebsiteContent, len(urls))
	for _, u := range urls {
		if page, ok := e.pages[u]; ok {
			out[u] = page
		}
	}
	return out
}

type recordingStore struct {
	mu      sync.Mutex
	saved   []*model.CompetitorAnalysis
	saveErr error
}

func (s *recordingStore) CreateCompetitorAnalysis(_ context.Context, ca *model.CompetitorAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, ca)
	return nil
}

func competitorPage(title string) *model.WebsiteContent {
	return &model.WebsiteContent{
		Title:       title,
		Description: "Workflow automation software for growing teams.",
		Headings:    []string{"Automate everything", "Secure and encrypted platform"},
		Paragraphs: []string{
			"Our SaaS dashboard gives every manager full workflow visibility.",
			"Start your free trial today and see the analytics integration in action.",
		},
		CTAs: []string{"Start free trial", "Schedule a demo"},
	}
}

func primaryProfile() *model.SiteProfile {
	return &model.SiteProfile{
		BusinessModel: model.BusinessModelClassification{Type: model.BusinessModelB2BSaaS},
		AudienceInsights: model.AudienceInsights{
			JobTitles: []string{"manager", "founder"},
		},
	}
}

func TestAnalyze_NoURLs(t *testing.T) {
	a := NewAnalyzer(&stubExtractor{}, &recordingStore{}, 2)

	out, err := a.Analyze(context.Background(), "sess-1", primaryProfile(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestAnalyze_FailureIsolation(t *testing.T) {
	// two.example is absent from the stub, as a URL that failed every
	// scraper would be.
	ext := &stubExtractor{
		pages: map[string]*model.WebsiteContent{
			"https://one.example":   competitorPage("One"),
			"https://three.example": competitorPage("Three"),
		},
	}
	st := &recordingStore{}
	a := NewAnalyzer(ext, st, 2)

	urls := []string{"https://one.example", "https://two.example", "https://three.example"}
	out, err := a.Analyze(context.Background(), "sess-1", primaryProfile(), urls)
	require.NoError(t, err, "one bad URL must not fail the batch")

	require.Len(t, out, 2)
	assert.Equal(t, "https://one.example", out[0].URL)
	assert.Equal(t, "https://three.example", out[1].URL)
	assert.Len(t, st.saved, 2)
}

func TestAnalyze_FetchesInOneBatch(t *testing.T) {
	ext := &stubExtractor{pages: map[string]*model.WebsiteContent{
		"https://one.example": competitorPage("One"),
		"https://two.example": competitorPage("Two"),
	}}
	a := NewAnalyzer(ext, &recordingStore{}, 2)

	urls := []string{"https://one.example", "https://two.example"}
	_, err := a.Analyze(context.Background(), "sess-1", nil, urls)
	require.NoError(t, err)

	assert.Equal(t, 1, ext.batchRuns, "all URLs go through one batch fetch")
	assert.Equal(t, urls, ext.gotURLs)
	assert.Equal(t, 2, ext.gotLimit, "job bound is handed to the extractor")
}

func TestAnalyze_PreservesInputOrder(t *testing.T) {
	ext := &stubExtractor{pages: map[string]*model.WebsiteContent{}}
	urls := make([]string, 6)
	for i, u := range []string{"a", "b", "c", "d", "e", "f"} {
		url := "https://" + u + ".example"
		urls[i] = url
		ext.pages[url] = competitorPage(u)
	}
	a := NewAnalyzer(ext, &recordingStore{}, 4)

	out, err := a.Analyze(context.Background(), "sess-1", nil, urls)
	require.NoError(t, err)
	require.Len(t, out, 6)
	for i := range urls {
		assert.Equal(t, urls[i], out[i].URL)
	}
}

func TestAnalyze_FieldsPopulated(t *testing.T) {
	ext := &stubExtractor{pages: map[string]*model.WebsiteContent{
		"https://rival.example": competitorPage("Rival"),
	}}
	a := NewAnalyzer(ext, &recordingStore{}, 1)

	out, err := a.Analyze(context.Background(), "sess-1", primaryProfile(), []string{"https://rival.example"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	ca := out[0]
	assert.NotEmpty(t, ca.ID)
	assert.Equal(t, "sess-1", ca.SessionID)
	assert.Equal(t, model.BusinessModelB2BSaaS, ca.BusinessModel.Type)
	assert.NotEmpty(t, ca.Positioning.UniqueValueProp)
	assert.Equal(t, string(model.BusinessModelB2BSaaS), ca.Positioning.TargetMarket)
	assert.Equal(t, model.PricingFreemium, ca.Positioning.PricingStrategy)
	assert.NotEmpty(t, ca.Strengths)
	assert.NotEmpty(t, ca.Weaknesses)
	assert.NotEmpty(t, ca.Opportunities)
	assert.Contains(t, ca.AudienceOverlap, "same business model: B2B SaaS")
	assert.False(t, ca.CreatedAt.IsZero())
}

func TestAnalyze_PersistErrorPropagates(t *testing.T) {
	ext := &stubExtractor{pages: map[string]*model.WebsiteContent{
		"https://rival.example": competitorPage("Rival"),
	}}
	st := &recordingStore{saveErr: eris.New("disk full")}
	a := NewAnalyzer(ext, st, 1)

	_, err := a.Analyze(context.Background(), "sess-1", nil, []string{"https://rival.example"})
	require.Error(t, err)
}

func TestDetectPricing(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.PricingStrategy
	}{
		{"free trial", "Start your free trial today", model.PricingFreemium},
		{"free plan", "Our free plan covers small teams", model.PricingFreemium},
		{"subscription", "One subscription, every feature", model.PricingSubscription},
		{"per month", "From $9 per month", model.PricingSubscription},
		{"quote", "Request a quote for enterprise", model.PricingCustom},
		{"contact sales", "Contact sales for pricing", model.PricingCustom},
		{"none", "Welcome to our homepage", model.PricingStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := &model.WebsiteContent{Paragraphs: []string{tt.text}}
			assert.Equal(t, tt.want, detectPricing(content))
		})
	}
}

func TestDetectPricing_FreemiumBeatsSubscription(t *testing.T) {
	content := &model.WebsiteContent{
		Paragraphs: []string{"Free trial, then $29 per month subscription."},
	}
	assert.Equal(t, model.PricingFreemium, detectPricing(content))
}

func TestAudienceOverlap(t *testing.T) {
	primary := &model.SiteProfile{
		BusinessModel: model.BusinessModelClassification{Type: model.BusinessModelAgency},
		AudienceInsights: model.AudienceInsights{
			JobTitles: []string{"Founder", "marketer"},
			Behaviors: []string{"social media"},
		},
	}
	competitor := &model.SiteProfile{
		BusinessModel: model.BusinessModelClassification{Type: model.BusinessModelAgency},
		AudienceInsights: model.AudienceInsights{
			JobTitles: []string{"founder", "designer"},
			Behaviors: []string{"social media", "remote"},
		},
	}

	overlap := audienceOverlap(primary, competitor)
	assert.Contains(t, overlap, "founder", "job title match is case-insensitive")
	assert.Contains(t, overlap, "social media")
	assert.Contains(t, overlap, "same business model: Agency")
	assert.NotContains(t, overlap, "designer")
}

func TestAudienceOverlap_NilPrimary(t *testing.T) {
	assert.Nil(t, audienceOverlap(nil, &model.SiteProfile{}))
}

func TestDeriveWeaknesses_Fallback(t *testing.T) {
	profile := &model.SiteProfile{
		Confidence: 0.8,
		ValuePropositions: []model.ValueProposition{
			{Text: "Fast delivery"},
		},
		AudienceInsights: model.AudienceInsights{PainPoints: []string{"slow shipping"}},
	}
	assert.Equal(t, []string{"No obvious messaging gaps detected"}, deriveWeaknesses(profile))
}

func TestDeriveOpportunities_UncoveredCategories(t *testing.T) {
	primary := &model.SiteProfile{
		BusinessModel: model.BusinessModelClassification{Type: model.BusinessModelEcommerce},
		ValuePropositions: []model.ValueProposition{
			{Text: "Bank-grade encryption", Category: model.ValuePropSecurity},
		},
	}
	competitor := &model.SiteProfile{
		BusinessModel: model.BusinessModelClassification{Type: model.BusinessModelEcommerce},
		ValuePropositions: []model.ValueProposition{
			{Text: "Cheapest prices", Category: model.ValuePropCostSavings},
		},
	}

	opps := deriveOpportunities(primary, competitor)
	assert.Contains(t, opps, "Competitor does not emphasize security")
}
