package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reklamap/recommender/internal/decision"
	"github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/narrative"
	"github.com/reklamap/recommender/internal/scoring"
	"github.com/reklamap/recommender/internal/signals"
)

// #region profile

// Profile is the complete declaration for one dispute category. It is
// read-only once registered.
type Profile struct {
	Name        string
	Title       string
	Schema      signals.Schema
	Features    []features.Spec
	Adjustments []features.Adjustment
	Scoring     scoring.Table
	Policy      decision.Policy
	Confidence  narrative.ConfidenceModel
	Narrative   narrative.Template
	Epsilon     float64
}

// FeatureNames returns the declared feature names in order.
func (p *Profile) FeatureNames() []string {
	names := make([]string, len(p.Features))
	for i, f := range p.Features {
		names[i] = f.Name
	}
	return names
}

// #endregion profile

// #region errors

var (
	// ErrUnknownProfile is returned for a name no profile carries.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrUnrecognizedSchema is returned when no profile accepts a key set.
	ErrUnrecognizedSchema = errors.New("unrecognized signal schema")
	// ErrAmbiguousSchema is returned when several profiles accept a key set.
	ErrAmbiguousSchema = errors.New("ambiguous signal schema")
)

// ConfigError lists every problem found in one profile declaration.
type ConfigError struct {
	Profile  string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("profile %q: %d configuration problem(s): %s",
		e.Profile, len(e.Problems), strings.Join(e.Problems, "; "))
}

// #endregion errors
