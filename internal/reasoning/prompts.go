package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/targeting-cli/internal/model"
)

// systemPrompt is shared across every operation so a session's calls hit the
// same prompt cache entry.
const systemPrompt = `You are an advertising strategy analyst. You study website content and produce structured targeting recommendations for paid acquisition on Meta and Google.

Rules:
- Respond with a single JSON object and nothing else. No markdown fences, no commentary.
- Confidence values are floats between 0 and 1 reflecting how strongly the site content supports the recommendation.
- Ground every recommendation in the supplied content. Do not invent products or audiences the content does not support.`

const businessModelPromptTmpl = `Analyze this website content and determine the business model.

Website content:
%s

Respond with JSON:
{
  "business_model": one of [%s],
  "description": "one-sentence description of what the business does",
  "value_propositions": ["up to 5 customer benefits the site claims"],
  "differentiators": ["what sets this business apart"],
  "pricing_strategy": "Freemium" | "Subscription" | "Custom pricing" | "Standard",
  "confidence": 0.0-1.0,
  "reasoning": "brief justification"
}`

const audiencePromptTmpl = `Build an audience portrait for the business below.

Site profile:
%s

Respond with JSON:
{
  "demographics": {"age_min": int, "age_max": int, "genders": ["all"|"male"|"female"], "locations": ["country names"], "languages": ["ISO codes"]},
  "job_titles": ["roles the buyer holds, if B2B"],
  "interests": ["topics this audience engages with"],
  "pain_points": ["problems the product solves"],
  "goals": ["outcomes the audience wants"],
  "behaviors": ["observable behaviors, e.g. online purchasing habits"],
  "confidence": 0.0-1.0,
  "reasoning": "brief justification"
}`

const metaPromptTmpl = `Generate Meta Ads targeting for the business below.

Site profile:
%s

Audience portrait:
%s
%s
Respond with JSON:
{
  "demographics": {"age_min": int, "age_max": int, "genders": [...], "locations": [...], "languages": [...]},
  "interest_groups": [
    {"category": "grouping label", "interests": ["Meta interest names"], "confidence": 0.0-1.0, "reasoning": "why this group fits"}
  ],
  "behaviors": [
    {"behavior": "Meta behavior name", "confidence": 0.0-1.0, "reasoning": "why this behavior fits"}
  ],
  "confidence": 0.0-1.0,
  "reasoning": "overall strategy summary"
}

Provide 3-6 interest groups and 2-4 behaviors.`

const googlePromptTmpl = `Generate Google Ads targeting for the business below.

Site profile:
%s

Audience portrait:
%s
%s
Respond with JSON:
{
  "keyword_clusters": [
    {"intent": "transactional"|"commercial"|"informational", "keywords": ["search terms"], "search_volume": "low"|"medium"|"high", "competition_level": "low"|"medium"|"high", "confidence": 0.0-1.0}
  ],
  "audience_segments": [
    {"type": "in-market"|"affinity"|"custom-intent", "name": "segment name", "description": "who this reaches"}
  ],
  "demographics": {"age_min": int, "age_max": int, "genders": [...], "locations": [...], "languages": [...]},
  "confidence": 0.0-1.0,
  "reasoning": "overall strategy summary"
}

Provide 3-5 keyword clusters spanning at least two intents, and 2-4 audience segments.`

func businessModelPrompt(content *model.WebsiteContent) string {
	return fmt.Sprintf(businessModelPromptTmpl, compactJSON(content), quotedTypeList())
}

func audiencePrompt(profile *model.SiteProfile) string {
	return fmt.Sprintf(audiencePromptTmpl, compactJSON(profile))
}

func metaPrompt(analysis *model.WebsiteAnalysis, audience *AudienceProfile, keywords []string) string {
	return fmt.Sprintf(metaPromptTmpl,
		compactJSON(analysis.Profile),
		audienceSection(audience),
		keywordSection(keywords),
	)
}

func googlePrompt(analysis *model.WebsiteAnalysis, audience *AudienceProfile, keywords []string) string {
	return fmt.Sprintf(googlePromptTmpl,
		compactJSON(analysis.Profile),
		audienceSection(audience),
		keywordSection(keywords),
	)
}

func audienceSection(audience *AudienceProfile) string {
	if audience == nil {
		return "(no audience portrait available)"
	}
	return compactJSON(audience)
}

func keywordSection(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	return fmt.Sprintf("\nSeed keywords supplied by the advertiser (incorporate them):\n%s\n", strings.Join(keywords, ", "))
}

func quotedTypeList() string {
	types := model.AllBusinessModelTypes()
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = `"` + string(t) + `"`
	}
	return strings.Join(quoted, ", ")
}

// compactJSON renders a value as single-line JSON for prompt embedding.
// Marshal errors can't happen for our own model types.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
