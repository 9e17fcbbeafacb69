package logging

import (
	"go.uber.org/zap"

	"github.com/reklamap/recommender/internal/recommend"
)

// #region log-recommendation

// RecommendationFields flattens the decision-relevant parts of b.
func RecommendationFields(b recommend.Bundle) []zap.Field {
	fields := []zap.Field{
		zap.String("profile", b.Profile),
		zap.String("primary", string(b.Recommendation.Primary)),
		zap.String("secondary", string(b.Recommendation.Secondary)),
		zap.Float64("confidence", b.PrimaryConfidence),
		zap.String("band", string(b.ConfidenceLabel)),
	}
	if len(b.Overrides) > 0 {
		fields = append(fields, zap.Strings("overrides", b.Overrides))
	}
	if b.Recommendation.Demoted {
		fields = append(fields, zap.Bool("demoted", true), zap.Float64("margin", b.Recommendation.Margin))
	}
	return fields
}

// LogRecommendation writes one entry per served recommendation. A
// degraded narrative is logged at warn with its cause.
func LogRecommendation(log *zap.Logger, b recommend.Bundle, extra ...zap.Field) {
	fields := append(RecommendationFields(b), extra...)
	if b.NarrativeDegraded {
		log.Warn("narrative degraded", append(fields, zap.String("cause", b.DegradedCause))...)
		return
	}
	log.Info("recommendation", fields...)
}

// #endregion log-recommendation
