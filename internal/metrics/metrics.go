package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reklamap/recommender/internal/recommend"
)

// Metrics holds the recommender's collectors. Build one per registry.
type Metrics struct {
	RecommendationsTotal *prometheus.CounterVec
	OverridesTotal       *prometheus.CounterVec
	DemotionsTotal       *prometheus.CounterVec
	NarrativeFallbacks   *prometheus.CounterVec
	RequestErrorsTotal   *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	PrimaryConfidence    *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecommendationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommender_recommendations_total",
				Help: "Total number of recommendations served",
			},
			[]string{"profile", "primary"},
		),
		OverridesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommender_overrides_fired_total",
				Help: "Total number of scoring overrides fired",
			},
			[]string{"profile", "override"},
		),
		DemotionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommender_margin_demotions_total",
				Help: "Total number of primaries demoted by the margin guard",
			},
			[]string{"profile"},
		),
		NarrativeFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommender_narrative_fallbacks_total",
				Help: "Total number of narratives replaced by the fallback text",
			},
			[]string{"profile"},
		),
		RequestErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommender_request_errors_total",
				Help: "Total number of rejected recommendation requests",
			},
			[]string{"code"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommender_request_duration_seconds",
				Help:    "Recommendation request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~200ms
			},
			[]string{"profile"},
		),
		PrimaryConfidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommender_primary_confidence",
				Help:    "Confidence of the primary action",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"profile"},
		),
	}
}

// Observe records one served bundle.
func (m *Metrics) Observe(b recommend.Bundle, elapsed time.Duration) {
	m.RecommendationsTotal.WithLabelValues(b.Profile, string(b.Recommendation.Primary)).Inc()
	for _, name := range b.Overrides {
		m.OverridesTotal.WithLabelValues(b.Profile, name).Inc()
	}
	if b.Recommendation.Demoted {
		m.DemotionsTotal.WithLabelValues(b.Profile).Inc()
	}
	if b.NarrativeDegraded {
		m.NarrativeFallbacks.WithLabelValues(b.Profile).Inc()
	}
	m.RequestDuration.WithLabelValues(b.Profile).Observe(elapsed.Seconds())
	m.PrimaryConfidence.WithLabelValues(b.Profile).Observe(b.PrimaryConfidence)
}

// ObserveError records a rejected request by status code name.
func (m *Metrics) ObserveError(code string) {
	m.RequestErrorsTotal.WithLabelValues(code).Inc()
}
