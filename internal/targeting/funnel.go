package targeting

import "github.com/sells-group/targeting-cli/internal/model"

// Confidence thresholds for funnel placement. These are a published contract
// with downstream consumers; change them only with a coordinated release.
const (
	bofThreshold = 0.85
	mofThreshold = 0.70
)

// stageFor maps a confidence score to its funnel stage and action label.
// Every targeting item, AI-generated or rule-based, is annotated through this
// single function so the two paths can never disagree on placement.
func stageFor(confidence float64) (model.FunnelStage, model.Recommendation) {
	switch {
	case confidence >= bofThreshold:
		return model.FunnelBOF, model.RecommendScale
	case confidence >= mofThreshold:
		return model.FunnelMOF, model.RecommendTest
	}
	return model.FunnelTOF, model.RecommendAvoid
}

// whyThisConverts explains the funnel placement in advertiser language.
func whyThisConverts(stage model.FunnelStage) string {
	switch stage {
	case model.FunnelBOF:
		return "Strong purchase intent signal. This audience closely matches the site's core offer; prioritize budget here and scale while efficiency holds."
	case model.FunnelMOF:
		return "Moderate fit. This audience is comparison shopping; run it as a test cell with conversion tracking before committing budget."
	}
	return "Weak signal for direct response. Useful only for top-of-funnel awareness; avoid for conversion campaigns."
}

// annotateMeta applies funnel placement to every interest group and behavior
// in place.
func annotateMeta(mt *model.MetaTargeting) {
	for i := range mt.Interests {
		stage, rec := stageFor(mt.Interests[i].Confidence)
		mt.Interests[i].FunnelStage = stage
		mt.Interests[i].Recommendation = rec
		mt.Interests[i].WhyThisConverts = whyThisConverts(stage)
	}
	for i := range mt.Behaviors {
		stage, rec := stageFor(mt.Behaviors[i].Confidence)
		mt.Behaviors[i].FunnelStage = stage
		mt.Behaviors[i].Recommendation = rec
		mt.Behaviors[i].WhyThisConverts = whyThisConverts(stage)
	}
}

// annotateGoogle applies funnel placement to every keyword cluster in place.
func annotateGoogle(gt *model.GoogleTargeting) {
	for i := range gt.Keywords {
		stage, _ := stageFor(gt.Keywords[i].Confidence)
		gt.Keywords[i].FunnelStage = stage
	}
}
