package reasoning

import (
	"context"

	"github.com/sells-group/targeting-cli/internal/model"
)

// Token budgets per operation. Targeting payloads run longer than analysis.
const (
	analysisMaxTokens  = 2048
	targetingMaxTokens = 4096
)

// AnalyzeBusinessModel asks the model to classify the business and surface
// its value propositions and pricing approach. Runs on the analysis tier.
func (e *Engine) AnalyzeBusinessModel(ctx context.Context, content *model.WebsiteContent) Result[BusinessModelInsight] {
	return run[BusinessModelInsight](e, ctx, "analyze_business_model", e.analysisModel(),
		systemPrompt, businessModelPrompt(content), analysisMaxTokens)
}

// AnalyzeAudience asks the model for an audience portrait grounded in the
// classifier's site profile. Runs on the analysis tier.
func (e *Engine) AnalyzeAudience(ctx context.Context, profile *model.SiteProfile) Result[AudienceProfile] {
	return run[AudienceProfile](e, ctx, "analyze_audience", e.analysisModel(),
		systemPrompt, audiencePrompt(profile), analysisMaxTokens)
}

// GenerateMetaTargeting produces Meta interest and behavior targeting. The
// audience portrait is optional; advertiser seed keywords, when present, are
// folded into the prompt.
func (e *Engine) GenerateMetaTargeting(ctx context.Context, analysis *model.WebsiteAnalysis, audience *AudienceProfile, keywords []string) Result[MetaPayload] {
	return run[MetaPayload](e, ctx, "generate_meta_targeting", e.targetingModel(),
		systemPrompt, metaPrompt(analysis, audience, keywords), targetingMaxTokens)
}

// GenerateGoogleTargeting produces Google keyword clusters and audience
// segments. Same optional inputs as the Meta variant.
func (e *Engine) GenerateGoogleTargeting(ctx context.Context, analysis *model.WebsiteAnalysis, audience *AudienceProfile, keywords []string) Result[GooglePayload] {
	return run[GooglePayload](e, ctx, "generate_google_targeting", e.targetingModel(),
		systemPrompt, googlePrompt(analysis, audience, keywords), targetingMaxTokens)
}
