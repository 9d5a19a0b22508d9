// Package competitor analyzes competitor websites alongside the primary
// analysis. Each URL is isolated: one competitor failing to scrape or parse
// never aborts the others, and an empty result set is a valid outcome.
package competitor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/classifier"
	"github.com/sells-group/targeting-cli/internal/model"
)

// Store is the persistence surface the analyzer needs.
type Store interface {
	CreateCompetitorAnalysis(ctx context.Context, ca *model.CompetitorAnalysis) error
}

// Extractor is the batch fetch surface the analyzer needs;
// *extract.ChainExtractor satisfies it. Fetch failures surface as missing
// map entries, not errors.
type Extractor interface {
	ExtractAll(ctx context.Context, urls []string, maxConcurrent int) map[string]*model.WebsiteContent
}

// Analyzer fetches, classifies, and positions competitor sites.
type Analyzer struct {
	extractor Extractor
	store     Store
	jobs      int
}

// NewAnalyzer creates an Analyzer. jobs bounds concurrent competitor
// fetches; zero means 3.
func NewAnalyzer(extractor Extractor, store Store, jobs int) *Analyzer {
	if jobs <= 0 {
		jobs = 3
	}
	return &Analyzer{extractor: extractor, store: store, jobs: jobs}
}

// Analyze fetches every competitor URL in one bounded batch, then
// classifies and persists the ones that came back. URLs that failed to
// fetch are logged and dropped; the returned slice preserves input order.
// Only persistence errors propagate.
func (a *Analyzer) Analyze(ctx context.Context, sessionID string, primary *model.SiteProfile, urls []string) ([]*model.CompetitorAnalysis, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	contents := a.extractor.ExtractAll(ctx, urls, a.jobs)

	out := make([]*model.CompetitorAnalysis, 0, len(contents))
	for _, url := range urls {
		content, ok := contents[url]
		if !ok {
			zap.L().Warn("competitor: analysis skipped",
				zap.String("url", url),
			)
			continue
		}
		ca := a.analyzeOne(sessionID, primary, url, content)
		if err := a.store.CreateCompetitorAnalysis(ctx, ca); err != nil {
			return out, err
		}
		out = append(out, ca)
	}
	return out, nil
}

func (a *Analyzer) analyzeOne(sessionID string, primary *model.SiteProfile, url string, content *model.WebsiteContent) *model.CompetitorAnalysis {
	profile := classifier.Classify(content)

	return &model.CompetitorAnalysis{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		URL:             url,
		BusinessModel:   profile.BusinessModel,
		Positioning:     derivePositioning(content, profile),
		AudienceOverlap: audienceOverlap(primary, profile),
		Strengths:       deriveStrengths(profile),
		Weaknesses:      deriveWeaknesses(profile),
		Opportunities:   deriveOpportunities(primary, profile),
		CreatedAt:       time.Now().UTC(),
	}
}

// derivePositioning reads positioning signals straight off the page: the
// lead value proposition, the classified market, and pricing strategy cues.
func derivePositioning(content *model.WebsiteContent, profile *model.SiteProfile) model.CompetitorPositioning {
	pos := model.CompetitorPositioning{
		TargetMarket:    string(profile.BusinessModel.Type),
		PricingStrategy: detectPricing(content),
	}
	if len(profile.ValuePropositions) > 0 {
		pos.UniqueValueProp = profile.ValuePropositions[0].Text
	} else if content.Description != "" {
		pos.UniqueValueProp = content.Description
	} else {
		pos.UniqueValueProp = content.Title
	}
	return pos
}

// detectPricing guesses the pricing approach from on-page cues. First match
// wins; sites with no pricing signal read as Standard.
func detectPricing(content *model.WebsiteContent) model.PricingStrategy {
	text := strings.ToLower(strings.Join([]string{
		content.Title,
		content.Description,
		strings.Join(content.Headings, " "),
		strings.Join(content.Paragraphs, " "),
		strings.Join(content.CTAs, " "),
	}, " "))

	switch {
	case strings.Contains(text, "free trial") || strings.Contains(text, "freemium") || strings.Contains(text, "free plan"):
		return model.PricingFreemium
	case strings.Contains(text, "subscription") || strings.Contains(text, "per month") || strings.Contains(text, "/month") || strings.Contains(text, "monthly"):
		return model.PricingSubscription
	case strings.Contains(text, "request a quote") || strings.Contains(text, "contact sales") || strings.Contains(text, "custom pricing"):
		return model.PricingCustom
	}
	return model.PricingStandard
}

// audienceOverlap intersects the competitor's detected audience signals with
// the primary site's.
func audienceOverlap(primary, competitor *model.SiteProfile) []string {
	if primary == nil {
		return nil
	}
	var overlap []string
	overlap = append(overlap, intersect(primary.AudienceInsights.JobTitles, competitor.AudienceInsights.JobTitles)...)
	overlap = append(overlap, intersect(primary.AudienceInsights.Behaviors, competitor.AudienceInsights.Behaviors)...)
	if primary.BusinessModel.Type == competitor.BusinessModel.Type {
		overlap = append(overlap, "same business model: "+string(competitor.BusinessModel.Type))
	}
	return overlap
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[strings.ToLower(s)] = true
	}
	var out []string
	for _, s := range b {
		if set[strings.ToLower(s)] {
			out = append(out, s)
		}
	}
	return out
}

func deriveStrengths(profile *model.SiteProfile) []string {
	var out []string
	if profile.BusinessModel.Confidence >= 0.7 {
		out = append(out, "Clear "+string(profile.BusinessModel.Type)+" positioning")
	}
	if len(profile.ValuePropositions) >= 3 {
		out = append(out, "Well-articulated value propositions")
	}
	for _, vp := range profile.ValuePropositions {
		if vp.Category == model.ValuePropSecurity {
			out = append(out, "Leads with trust and security messaging")
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "Established web presence")
	}
	return out
}

func deriveWeaknesses(profile *model.SiteProfile) []string {
	var out []string
	if profile.Confidence < 0.5 {
		out = append(out, "Unfocused messaging; positioning is hard to read from the site")
	}
	if len(profile.ValuePropositions) == 0 {
		out = append(out, "No clear value proposition on the landing page")
	}
	if len(profile.AudienceInsights.PainPoints) == 0 {
		out = append(out, "Does not speak to customer pain points")
	}
	if len(out) == 0 {
		out = append(out, "No obvious messaging gaps detected")
	}
	return out
}

func deriveOpportunities(primary, competitor *model.SiteProfile) []string {
	var out []string
	if primary != nil && primary.BusinessModel.Type != competitor.BusinessModel.Type {
		out = append(out, "Different business model ("+string(competitor.BusinessModel.Type)+"); audiences may only partially overlap")
	}
	covered := make(map[model.ValuePropCategory]bool)
	for _, vp := range competitor.ValuePropositions {
		covered[vp.Category] = true
	}
	if primary != nil {
		for _, vp := range primary.ValuePropositions {
			if !covered[vp.Category] && vp.Category != model.ValuePropOverview {
				out = append(out, "Competitor does not emphasize "+strings.ReplaceAll(string(vp.Category), "_", " "))
			}
		}
	}
	if len(out) == 0 {
		out = append(out, "Differentiate on specifics the competitor leaves generic")
	}
	return out
}
