package reasoning

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/targeting-cli/internal/config"
	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/resilience"
	"github.com/sells-group/targeting-cli/pkg/anthropic"
)

type mockClient struct {
	responses []*anthropic.MessageResponse
	errs      []error
	calls     int
	requests  []anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	i := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return m.responses[len(m.responses)-1], nil
}

func textResponse(text string, in, out int64) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: in, OutputTokens: out},
	}
}

func testConfig() config.AnthropicConfig {
	return config.AnthropicConfig{
		Key:              "sk-test",
		SonnetModel:      "claude-sonnet-4-5-20250929",
		MaxAttempts:      1,
		InitialBackoffMs: 1,
		MaxBackoffMs:     5,
	}
}

func siteContent() *model.WebsiteContent {
	return &model.WebsiteContent{
		URL:      "https://example.com",
		Title:    "Example",
		Headings: []string{"Workflow automation"},
	}
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, NewEngine(nil, config.AnthropicConfig{}).IsConfigured())
	assert.False(t, NewEngine(&mockClient{}, config.AnthropicConfig{}).IsConfigured())
	assert.True(t, NewEngine(&mockClient{}, testConfig()).IsConfigured())

	var nilEngine *Engine
	assert.False(t, nilEngine.IsConfigured())
}

func TestAnalyzeBusinessModel_Success(t *testing.T) {
	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse("```json\n"+`{
			"business_model": "E-commerce",
			"description": "Online apparel store",
			"confidence": 0.9,
			"reasoning": "cart and checkout flows"
		}`+"\n```", 500, 120),
	}}
	e := NewEngine(client, testConfig())

	res := e.AnalyzeBusinessModel(context.Background(), siteContent())

	require.True(t, res.Success, "error: %s", res.Error)
	require.NotNil(t, res.Data)
	assert.Equal(t, "E-commerce", res.Data.BusinessModel)
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
	assert.Equal(t, "cart and checkout flows", res.Reasoning)
	assert.Equal(t, 500, res.TokensUsed.InputTokens)
	assert.Equal(t, 120, res.TokensUsed.OutputTokens)
	assert.Greater(t, res.TokensUsed.Cost, 0.0)
}

func TestAnalyzeBusinessModel_NotConfigured(t *testing.T) {
	e := NewEngine(nil, config.AnthropicConfig{})

	res := e.AnalyzeBusinessModel(context.Background(), siteContent())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not configured")
	assert.Nil(t, res.Data)
}

func TestAnalyzeBusinessModel_TransportFailure(t *testing.T) {
	client := &mockClient{errs: []error{eris.New("connection reset")}}
	e := NewEngine(client, testConfig())

	res := e.AnalyzeBusinessModel(context.Background(), siteContent())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection reset")
	assert.Nil(t, res.Data)
}

func TestAnalyzeBusinessModel_MalformedOutput(t *testing.T) {
	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse("I'm sorry, I can't produce JSON for that.", 100, 20),
	}}
	e := NewEngine(client, testConfig())

	res := e.AnalyzeBusinessModel(context.Background(), siteContent())

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.Data)
	assert.Equal(t, 100, res.TokensUsed.InputTokens, "tokens still counted on parse failure")
}

func TestGenerateMetaTargeting_Success(t *testing.T) {
	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse(`{
			"interest_groups": [{"category": "Software", "interests": ["crm"], "confidence": 0.85}],
			"behaviors": [{"behavior": "Business tool adopters"}],
			"confidence": 0.8,
			"reasoning": "aligned with site offer"
		}`, 800, 300),
	}}
	e := NewEngine(client, testConfig())

	analysis := &model.WebsiteAnalysis{
		URL: "https://example.com",
		Profile: model.SiteProfile{
			BusinessModel: model.BusinessModelClassification{Type: model.BusinessModelB2BSaaS},
		},
	}
	res := e.GenerateMetaTargeting(context.Background(), analysis, nil, []string{"crm software"})

	require.True(t, res.Success, "error: %s", res.Error)
	require.Len(t, res.Data.InterestGroups, 1)
	assert.InDelta(t, 0.8, res.Confidence, 0.001)

	// The advertiser keywords must reach the prompt.
	require.Len(t, client.requests, 1)
	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "crm software")
}

func TestGenerateGoogleTargeting_ValidationFailureEnvelope(t *testing.T) {
	// Clusters but no segments: schema validation must reject it, and the
	// failure must surface in the envelope rather than as an error.
	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse(`{"keyword_clusters": [{"keywords": ["a"]}]}`, 10, 10),
	}}
	e := NewEngine(client, testConfig())

	res := e.GenerateGoogleTargeting(context.Background(), &model.WebsiteAnalysis{}, nil, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "audience segments")
}

func TestInvoke_RetriesTransientFailures(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 3

	client := &mockClient{
		errs: []error{
			resilience.NewTransientError(eris.New("overloaded"), 529),
			nil,
		},
		responses: []*anthropic.MessageResponse{
			nil,
			textResponse(`{"business_model": "Other", "description": "x"}`, 5, 5),
		},
	}
	e := NewEngine(client, cfg)

	res := e.AnalyzeBusinessModel(context.Background(), siteContent())

	assert.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, 2, client.calls)
}

func TestModelTiers(t *testing.T) {
	cfg := testConfig()
	cfg.HaikuModel = "claude-haiku-4-5-20251001"

	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse(`{"business_model": "Other", "description": "x"}`, 5, 5),
		textResponse(`{
			"interest_groups": [{"category": "Software", "interests": ["crm"]}],
			"behaviors": [{"behavior": "Engaged shoppers"}]
		}`, 5, 5),
	}}
	e := NewEngine(client, cfg)

	e.AnalyzeBusinessModel(context.Background(), siteContent())
	e.GenerateMetaTargeting(context.Background(), &model.WebsiteAnalysis{}, nil, nil)

	require.Len(t, client.requests, 2)
	assert.Equal(t, cfg.HaikuModel, client.requests[0].Model, "analysis runs on the cheap tier")
	assert.Equal(t, cfg.SonnetModel, client.requests[1].Model, "targeting generation runs on the big tier")
}

func TestModelTiers_NoHaikuFallsBackToSonnet(t *testing.T) {
	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse(`{"business_model": "Other", "description": "x"}`, 5, 5),
	}}
	e := NewEngine(client, testConfig())

	e.AnalyzeBusinessModel(context.Background(), siteContent())

	require.Len(t, client.requests, 1)
	assert.Equal(t, testConfig().SonnetModel, client.requests[0].Model)
}

func TestSystemPromptIsCached(t *testing.T) {
	client := &mockClient{responses: []*anthropic.MessageResponse{
		textResponse(`{"business_model": "Other", "description": "x"}`, 5, 5),
	}}
	e := NewEngine(client, testConfig())

	e.AnalyzeBusinessModel(context.Background(), siteContent())

	require.Len(t, client.requests, 1)
	system := client.requests[0].System
	require.Len(t, system, 1)
	require.NotNil(t, system[0].CacheControl)
	assert.Equal(t, "1h", system[0].CacheControl.TTL)
}
