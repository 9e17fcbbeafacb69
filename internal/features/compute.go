package features

import (
	"math"
	"sort"

	"github.com/reklamap/recommender/internal/signals"
)

// #region vector

// Vector maps feature name to a degree in [0,1].
type Vector map[string]float64

// Get returns the named feature, 0 when absent.
func (v Vector) Get(name string) float64 { return v[name] }

// Names returns the feature names, sorted.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v))
	for n := range v {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// #endregion vector

// #region specs

// Spec names a feature and its membership function.
type Spec struct {
	Name string
	Of   Membership
}

// Define builds a Spec.
func Define(name string, m Membership) Spec { return Spec{Name: name, Of: m} }

// Adjustment refines an already computed feature once every spec has run.
type Adjustment struct {
	Feature string
	Step    Step
}

// Adjust builds an Adjustment.
func Adjust(feature string, step Step) Adjustment {
	return Adjustment{Feature: feature, Step: step}
}

// #endregion specs

// #region compute

// Compute evaluates specs in order against s, then applies adjustments in
// order. Each value is clamped to [0,1] as soon as it is produced, so a
// later spec reads clamped values. The result is a fresh vector.
func Compute(specs []Spec, adjustments []Adjustment, s signals.SignalSet) Vector {
	fv := make(Vector, len(specs))
	env := Env{Signals: s, Features: fv}
	for _, spec := range specs {
		fv[spec.Name] = Clamp01(spec.Of.Value(env))
	}
	for _, a := range adjustments {
		fv[a.Feature] = Clamp01(a.Step.Apply(env, fv[a.Feature]))
	}
	return fv
}

// Clamp01 limits x to [0,1]; NaN becomes 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion compute
