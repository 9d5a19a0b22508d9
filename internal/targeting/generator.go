// Package targeting turns a persisted website analysis into platform
// targeting recommendations. The AI path is preferred when a provider is
// configured; any AI failure degrades silently to the deterministic rules
// path, so a recommendation always comes back for a session that has an
// analysis. Missing analysis is the one hard error.
package targeting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/config"
	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/reasoning"
)

// ErrNoAnalysis is returned when targeting is requested for a session whose
// website analysis step never completed.
var ErrNoAnalysis = eris.New("targeting: no website analysis for session")

// Store is the persistence surface the generator needs.
type Store interface {
	GetAnalysisBySession(ctx context.Context, sessionID string) (*model.WebsiteAnalysis, error)
	CreateRecommendation(ctx context.Context, rec *model.TargetingRecommendation) error
}

// Reasoner is the AI surface the generator needs. *reasoning.Engine satisfies
// it; tests substitute a stub.
type Reasoner interface {
	IsConfigured() bool
	AnalyzeAudience(ctx context.Context, profile *model.SiteProfile) reasoning.Result[reasoning.AudienceProfile]
	GenerateMetaTargeting(ctx context.Context, analysis *model.WebsiteAnalysis, audience *reasoning.AudienceProfile, keywords []string) reasoning.Result[reasoning.MetaPayload]
	GenerateGoogleTargeting(ctx context.Context, analysis *model.WebsiteAnalysis, audience *reasoning.AudienceProfile, keywords []string) reasoning.Result[reasoning.GooglePayload]
}

// Generator produces and persists targeting recommendations.
type Generator struct {
	store        Store
	engine       Reasoner
	maxInterests int
	maxKeywords  int
}

// NewGenerator creates a Generator. The engine may be an unconfigured
// reasoning.Engine; every generation then takes the rules path. cfg caps
// the interest-group and keyword-cluster counts; zero means 6.
func NewGenerator(store Store, engine Reasoner, cfg config.TargetingConfig) *Generator {
	g := &Generator{
		store:        store,
		engine:       engine,
		maxInterests: cfg.MaxInterestGroups,
		maxKeywords:  cfg.MaxKeywordGroups,
	}
	if g.maxInterests <= 0 {
		g.maxInterests = 6
	}
	if g.maxKeywords <= 0 {
		g.maxKeywords = 6
	}
	return g
}

// Generate produces one platform's recommendation for a session.
func (g *Generator) Generate(ctx context.Context, session *model.AnalysisSession, platform model.Platform) (*model.TargetingRecommendation, error) {
	analysis, err := g.analysisFor(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	audience, audienceTokens := g.audiencePortrait(ctx, analysis)

	var rec *model.TargetingRecommendation
	switch platform {
	case model.PlatformGoogle:
		rec = g.buildGoogle(ctx, session, analysis, audience)
	default:
		rec = g.buildMeta(ctx, session, analysis, audience)
	}
	rec.TokenUsage.Add(audienceTokens)

	if err := g.persist(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (g *Generator) analysisFor(ctx context.Context, sessionID string) (*model.WebsiteAnalysis, error) {
	analysis, err := g.store.GetAnalysisBySession(ctx, sessionID)
	if err != nil {
		return nil, eris.Wrapf(err, "targeting: load analysis for session %s", sessionID)
	}
	if analysis == nil {
		return nil, eris.Wrapf(ErrNoAnalysis, "session %s", sessionID)
	}
	return analysis, nil
}

// audiencePortrait runs the optional AI audience step. Failure is logged and
// swallowed; targeting proceeds without a portrait.
func (g *Generator) audiencePortrait(ctx context.Context, analysis *model.WebsiteAnalysis) (*reasoning.AudienceProfile, model.TokenUsage) {
	if !g.engine.IsConfigured() {
		return nil, model.TokenUsage{}
	}
	res := g.engine.AnalyzeAudience(ctx, &analysis.Profile)
	if !res.Success {
		zap.L().Warn("targeting: audience portrait unavailable",
			zap.String("url", analysis.URL),
			zap.String("reason", res.Error),
		)
		return nil, res.TokensUsed
	}
	return res.Data, res.TokensUsed
}

func (g *Generator) buildMeta(ctx context.Context, session *model.AnalysisSession, analysis *model.WebsiteAnalysis, audience *reasoning.AudienceProfile) *model.TargetingRecommendation {
	rec := &model.TargetingRecommendation{
		SessionID: session.ID,
		Platform:  model.PlatformMeta,
	}

	if g.engine.IsConfigured() {
		res := g.engine.GenerateMetaTargeting(ctx, analysis, audience, session.Keywords)
		rec.TokenUsage.Add(res.TokensUsed)
		if res.Success {
			mt := metaFromPayload(res.Data)
			topUpMeta(mt)
			g.capMeta(mt)
			annotateMeta(mt)
			rec.Data.Meta = mt
			rec.Source = "ai"
			rec.Confidence = metaConfidence(mt, res.Confidence)
			rec.Explanations = explanations(res.Reasoning, audience)
			return rec
		}
		zap.L().Warn("targeting: meta generation fell back to rules",
			zap.String("session_id", session.ID),
			zap.String("reason", res.Error),
		)
	}

	mt := fallbackMeta(analysis, session.Keywords)
	g.capMeta(mt)
	rec.Data.Meta = mt
	rec.Source = "rules"
	rec.Confidence = metaConfidence(mt, 0)
	rec.Explanations = []string{
		"Generated from the rule-based vocabulary for the detected business model (" +
			string(analysis.Profile.BusinessModel.Type) + ").",
	}
	return rec
}

func (g *Generator) buildGoogle(ctx context.Context, session *model.AnalysisSession, analysis *model.WebsiteAnalysis, audience *reasoning.AudienceProfile) *model.TargetingRecommendation {
	rec := &model.TargetingRecommendation{
		SessionID: session.ID,
		Platform:  model.PlatformGoogle,
	}

	if g.engine.IsConfigured() {
		res := g.engine.GenerateGoogleTargeting(ctx, analysis, audience, session.Keywords)
		rec.TokenUsage.Add(res.TokensUsed)
		if res.Success {
			gt := googleFromPayload(res.Data)
			topUpGoogle(gt)
			g.capGoogle(gt)
			annotateGoogle(gt)
			rec.Data.Google = gt
			rec.Source = "ai"
			rec.Confidence = googleConfidence(gt, res.Confidence)
			rec.Explanations = explanations(res.Reasoning, audience)
			return rec
		}
		zap.L().Warn("targeting: google generation fell back to rules",
			zap.String("session_id", session.ID),
			zap.String("reason", res.Error),
		)
	}

	gt := fallbackGoogle(analysis, session.Keywords)
	g.capGoogle(gt)
	rec.Data.Google = gt
	rec.Source = "rules"
	rec.Confidence = googleConfidence(gt, 0)
	rec.Explanations = []string{
		"Generated from the rule-based vocabulary for the detected business model (" +
			string(analysis.Profile.BusinessModel.Type) + ").",
	}
	return rec
}

// capMeta and capGoogle trim oversized AI output to the configured group
// counts, applied after top-up so the minimum-entry floor survives a small
// cap. Items arrive in the model's priority order; trimming keeps the head.
func (g *Generator) capMeta(mt *model.MetaTargeting) {
	if len(mt.Interests) > g.maxInterests {
		mt.Interests = mt.Interests[:g.maxInterests]
	}
}

func (g *Generator) capGoogle(gt *model.GoogleTargeting) {
	if len(gt.Keywords) > g.maxKeywords {
		gt.Keywords = gt.Keywords[:g.maxKeywords]
	}
}

func (g *Generator) persist(ctx context.Context, rec *model.TargetingRecommendation) error {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	if err := g.store.CreateRecommendation(ctx, rec); err != nil {
		return eris.Wrapf(err, "targeting: persist %s recommendation", rec.Platform)
	}
	return nil
}

// metaFromPayload converts the validated AI payload into the canonical Meta
// targeting structure.
func metaFromPayload(p *reasoning.MetaPayload) *model.MetaTargeting {
	mt := &model.MetaTargeting{
		Demographics: p.Demographics.ToModel(),
	}
	for _, g := range p.InterestGroups {
		mt.Interests = append(mt.Interests, model.InterestGroup{
			Category:   g.Category,
			Interests:  g.Interests,
			Confidence: confValue(g.Confidence, p.Confidence),
			Reasoning:  g.Reasoning,
		})
	}
	for _, b := range p.Behaviors {
		mt.Behaviors = append(mt.Behaviors, model.Behavior{
			Behavior:   b.Behavior,
			Confidence: confValue(b.Confidence, p.Confidence),
			Reasoning:  b.Reasoning,
		})
	}
	return mt
}

// googleFromPayload converts the validated AI payload into the canonical
// Google targeting structure.
func googleFromPayload(p *reasoning.GooglePayload) *model.GoogleTargeting {
	gt := &model.GoogleTargeting{
		Demographics: p.Demographics.ToModel(),
	}
	for _, c := range p.KeywordClusters {
		gt.Keywords = append(gt.Keywords, model.KeywordCluster{
			Intent:           c.Intent,
			Keywords:         c.Keywords,
			SearchVolume:     c.SearchVolume,
			CompetitionLevel: c.CompetitionLevel,
			Confidence:       confValue(c.Confidence, p.Confidence),
		})
	}
	for _, s := range p.AudienceSegments {
		gt.Audiences = append(gt.Audiences, model.AudienceSegment{
			Type:        s.Type,
			Name:        s.Name,
			Description: s.Description,
		})
	}
	return gt
}

// confValue resolves a per-item confidence, inheriting the payload-level
// score when the item omits its own.
func confValue(item *float64, payload float64) float64 {
	if item != nil {
		return *item
	}
	if payload > 0 {
		return payload
	}
	return 0.5
}

func explanations(summary string, audience *reasoning.AudienceProfile) []string {
	var out []string
	if summary != "" {
		out = append(out, summary)
	}
	if audience != nil && audience.Reasoning != "" {
		out = append(out, "Audience portrait: "+audience.Reasoning)
	}
	return out
}

// metaConfidence summarizes per-item confidence into the stored score block.
// overall falls back to the item average when the AI didn't report one.
func metaConfidence(mt *model.MetaTargeting, overall float64) *model.ConfidenceScores {
	interests := averageInterest(mt.Interests)
	behaviors := averageBehavior(mt.Behaviors)
	if overall <= 0 {
		overall = (interests + behaviors) / 2
	}
	return &model.ConfidenceScores{
		Overall:   overall,
		Interests: interests,
		Behaviors: behaviors,
	}
}

func googleConfidence(gt *model.GoogleTargeting, overall float64) *model.ConfidenceScores {
	keywords := averageKeyword(gt.Keywords)
	if overall <= 0 {
		overall = keywords
	}
	return &model.ConfidenceScores{
		Overall:  overall,
		Keywords: keywords,
	}
}

func averageInterest(groups []model.InterestGroup) float64 {
	if len(groups) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range groups {
		sum += g.Confidence
	}
	return sum / float64(len(groups))
}

func averageBehavior(behaviors []model.Behavior) float64 {
	if len(behaviors) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range behaviors {
		sum += b.Confidence
	}
	return sum / float64(len(behaviors))
}

func averageKeyword(clusters []model.KeywordCluster) float64 {
	if len(clusters) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range clusters {
		sum += c.Confidence
	}
	return sum / float64(len(clusters))
}
