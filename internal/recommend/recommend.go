package recommend

import (
	"fmt"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/decision"
	"github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/narrative"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/scoring"
	"github.com/reklamap/recommender/internal/signals"
)

// #region bundle

// Bundle is the complete result of one recommendation.
type Bundle struct {
	Profile           string                  `json:"profile"`
	Signals           signals.SignalSet       `json:"signals"`
	Features          features.Vector         `json:"features"`
	Scores            action.Scores           `json:"scores"`
	Recommendation    decision.Recommendation `json:"recommendation"`
	Routing           decision.Routing        `json:"routing"`
	Confidence        action.Scores           `json:"confidence"`
	PrimaryConfidence float64                 `json:"primary_confidence"`
	ConfidenceLabel   narrative.Band          `json:"confidence_label"`
	Narrative         string                  `json:"narrative"`
	Reasons           []string                `json:"reasons"`
	Overrides         []string                `json:"overrides,omitempty"`
	NarrativeDegraded bool                    `json:"narrative_degraded,omitempty"`
	DegradedCause     string                  `json:"-"`
}

// Label returns the display label of the primary action.
func (b Bundle) Label(p *profile.Profile) string {
	return p.Narrative.Label(b.Recommendation.Primary)
}

// #endregion bundle

// #region run

// Run takes s through features, scoring, decision and narrative for p.
// Missing answers are filled with empty values; Run never fails.
func Run(p *profile.Profile, s signals.SignalSet) Bundle {
	s = s.Conform(p.Schema)
	fv := features.Compute(p.Features, p.Adjustments, s)
	out := scoring.NewEngine(p.Scoring).Score(fv, s)
	rec := p.Policy.Decide(out.Scores)

	res := narrative.Build(p.Narrative, p.Confidence, narrative.Input{
		Primary:   rec.Primary,
		Secondary: rec.Secondary,
		Scores:    out.Scores,
		Env:       features.Env{Signals: s, Features: fv},
		Pinned:    out.Confidence,
		Fixed:     out.Reasons,
		Epsilon:   p.Epsilon,
	})

	return Bundle{
		Profile:           p.Name,
		Signals:           s,
		Features:          fv,
		Scores:            out.Scores,
		Recommendation:    rec,
		Routing:           rec.Routing(),
		Confidence:        res.Distribution,
		PrimaryConfidence: res.Confidence,
		ConfidenceLabel:   res.Band,
		Narrative:         res.Text,
		Reasons:           res.Reasons,
		Overrides:         out.Fired,
		NarrativeDegraded: res.Degraded,
		DegradedCause:     res.Cause,
	}
}

// #endregion run

// #region recommender

// Recommender resolves profiles from a registry before running.
type Recommender struct {
	registry       *profile.Registry
	defaultProfile string
}

// New creates a Recommender. defaultProfile is used when a request names
// none; empty means detect from the answered keys.
func New(registry *profile.Registry, defaultProfile string) *Recommender {
	return &Recommender{registry: registry, defaultProfile: defaultProfile}
}

// Resolve returns the named profile, the default one, or the profile
// detected from the keys of s, in that order.
func (r *Recommender) Resolve(name string, s signals.SignalSet) (*profile.Profile, error) {
	if name == "" {
		name = r.defaultProfile
	}
	if name != "" {
		return r.registry.Get(name)
	}
	return r.registry.Detect(s.Keys())
}

// Recommend resolves the profile and runs it.
func (r *Recommender) Recommend(name string, s signals.SignalSet) (Bundle, error) {
	p, err := r.Resolve(name, s)
	if err != nil {
		return Bundle{}, fmt.Errorf("resolve profile: %w", err)
	}
	return Run(p, s), nil
}

// Registry returns the underlying registry.
func (r *Recommender) Registry() *profile.Registry { return r.registry }

// #endregion recommender
