// Package pipeline orchestrates one analysis session end to end: website
// analysis, competitor analysis, then per-platform targeting generation.
// Status moves pending → processing when Run starts and lands on completed or
// failed exactly once. Website analysis is the only hard prerequisite; a
// competitor step failure degrades the session, it does not fail it.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/classifier"
	"github.com/sells-group/targeting-cli/internal/competitor"
	"github.com/sells-group/targeting-cli/internal/extract"
	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/reasoning"
	"github.com/sells-group/targeting-cli/internal/store"
	"github.com/sells-group/targeting-cli/internal/targeting"
)

// Step names as they appear in session results.
const (
	StepWebsiteAnalysis    = "website_analysis"
	StepCompetitorAnalysis = "competitor_analysis"
	StepMetaTargeting      = "meta_targeting"
	StepGoogleTargeting    = "google_targeting"
)

// Reasoner is the AI surface the pipeline itself uses for the optional
// business-model refinement pass.
type Reasoner interface {
	IsConfigured() bool
	AnalyzeBusinessModel(ctx context.Context, content *model.WebsiteContent) reasoning.Result[reasoning.BusinessModelInsight]
}

// Pipeline runs analysis sessions.
type Pipeline struct {
	store       store.Store
	extractor   extract.Extractor
	engine      Reasoner
	targeting   *targeting.Generator
	competitors *competitor.Analyzer
}

// New creates a Pipeline with all dependencies.
func New(
	st store.Store,
	extractor extract.Extractor,
	engine Reasoner,
	gen *targeting.Generator,
	competitors *competitor.Analyzer,
) *Pipeline {
	return &Pipeline{
		store:       st,
		extractor:   extractor,
		engine:      engine,
		targeting:   gen,
		competitors: competitors,
	}
}

// Run executes the full pipeline for one session. The returned result is also
// persisted on the session row. Run reports an error only when the session
// failed; the session status reflects the outcome either way.
func (p *Pipeline) Run(ctx context.Context, session *model.AnalysisSession) (*model.SessionResult, error) {
	log := zap.L().With(zap.String("session_id", session.ID), zap.String("url", session.URL))
	log.Info("pipeline: starting analysis session")

	if err := p.store.UpdateSessionStatus(ctx, session.ID, model.SessionStatusProcessing); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark processing")
	}

	result := &model.SessionResult{}
	var totalUsage model.TokenUsage

	trackStep := func(name string, fn func() (map[string]any, error)) *model.StepResult {
		start := time.Now()
		metadata, err := fn()
		step := model.StepResult{
			Name:     name,
			Duration: time.Since(start).Milliseconds(),
			Metadata: metadata,
		}
		if err != nil {
			step.Status = model.StepStatusFailed
			step.Error = err.Error()
			log.Error("pipeline: step failed",
				zap.String("step", name),
				zap.Int64("duration_ms", step.Duration),
				zap.Error(err),
			)
		} else {
			step.Status = model.StepStatusComplete
			log.Info("pipeline: step complete",
				zap.String("step", name),
				zap.Int64("duration_ms", step.Duration),
			)
		}
		result.Steps = append(result.Steps, step)
		return &result.Steps[len(result.Steps)-1]
	}

	skipStep := func(name, reason string) {
		result.Steps = append(result.Steps, model.StepResult{
			Name:     name,
			Status:   model.StepStatusSkipped,
			Metadata: map[string]any{"reason": reason},
		})
		log.Info("pipeline: step skipped", zap.String("step", name), zap.String("reason", reason))
	}

	fail := func(msg string) (*model.SessionResult, error) {
		result.TotalTokens = totalUsage.InputTokens + totalUsage.OutputTokens
		result.TotalCost = totalUsage.Cost
		if err := p.store.FailSession(ctx, session.ID, msg); err != nil {
			log.Warn("pipeline: failed to mark session failed", zap.Error(err))
		}
		return result, eris.New("pipeline: " + msg)
	}

	// Website analysis is the prerequisite for everything downstream.
	var analysis *model.WebsiteAnalysis
	step := trackStep(StepWebsiteAnalysis, func() (map[string]any, error) {
		var err error
		analysis, err = p.analyzeWebsite(ctx, session, &totalUsage)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"business_model": string(analysis.Profile.BusinessModel.Type),
			"confidence":     analysis.Profile.Confidence,
		}, nil
	})
	if step.Status == model.StepStatusFailed {
		return fail("website analysis failed: " + step.Error)
	}

	if len(session.CompetitorURLs) == 0 {
		skipStep(StepCompetitorAnalysis, "no competitor urls")
	} else {
		trackStep(StepCompetitorAnalysis, func() (map[string]any, error) {
			analyses, err := p.competitors.Analyze(ctx, session.ID, &analysis.Profile, session.CompetitorURLs)
			if err != nil {
				return map[string]any{"analyzed": len(analyses)}, err
			}
			return map[string]any{
				"requested": len(session.CompetitorURLs),
				"analyzed":  len(analyses),
			}, nil
		})
		// Competitor failures degrade the session, they don't fail it.
	}

	for _, platform := range []model.Platform{model.PlatformMeta, model.PlatformGoogle} {
		name := StepMetaTargeting
		if platform == model.PlatformGoogle {
			name = StepGoogleTargeting
		}
		step := trackStep(name, func() (map[string]any, error) {
			rec, err := p.targeting.Generate(ctx, session, platform)
			if err != nil {
				return nil, err
			}
			totalUsage.Add(rec.TokenUsage)
			return map[string]any{
				"source":         rec.Source,
				"recommendation": rec.ID,
			}, nil
		})
		if step.Status == model.StepStatusFailed {
			return fail(name + " failed: " + step.Error)
		}
	}

	result.TotalTokens = totalUsage.InputTokens + totalUsage.OutputTokens
	result.TotalCost = totalUsage.Cost

	if err := p.store.CompleteSession(ctx, session.ID, result); err != nil {
		return result, eris.Wrap(err, "pipeline: complete session")
	}

	log.Info("pipeline: session completed",
		zap.Int("steps", len(result.Steps)),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Float64("total_cost_usd", result.TotalCost),
	)
	return result, nil
}

// analyzeWebsite extracts, classifies, and persists the primary site
// analysis. When a provider is configured the AI refinement pass can improve
// the rule-based description and confidence; its failure is non-fatal.
func (p *Pipeline) analyzeWebsite(ctx context.Context, session *model.AnalysisSession, usage *model.TokenUsage) (*model.WebsiteAnalysis, error) {
	content, err := p.extractor.Extract(ctx, session.URL)
	if err != nil {
		return nil, err
	}
	if content.IsEmpty() {
		return nil, eris.Errorf("no extractable content at %s", session.URL)
	}

	profile := classifier.Classify(content)

	if p.engine.IsConfigured() {
		res := p.engine.AnalyzeBusinessModel(ctx, content)
		usage.Add(res.TokensUsed)
		if res.Success {
			profile.BusinessModel.Type = model.BusinessModelType(res.Data.BusinessModel)
			if res.Data.Description != "" {
				profile.BusinessModel.Description = res.Data.Description
			}
			if res.Confidence > profile.BusinessModel.Confidence {
				profile.BusinessModel.Confidence = res.Confidence
			}
		} else {
			zap.L().Warn("pipeline: business model refinement unavailable",
				zap.String("session_id", session.ID),
				zap.String("reason", res.Error),
			)
		}
	}

	analysis := &model.WebsiteAnalysis{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		URL:       session.URL,
		Profile:   *profile,
		Technical: technicalFrom(content),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// technicalFrom preserves the raw extracted structure for the rules-based
// targeting path.
func technicalFrom(content *model.WebsiteContent) model.Technical {
	return model.Technical{
		Title:       content.Title,
		Description: content.Description,
		Headings:    content.Headings,
		Paragraphs:  content.Paragraphs,
		ListItems:   content.ListItems,
		CTAs:        content.CTAs,
	}
}
