package scoring

import (
	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/features"
)

// #region term

// TermKind selects how a Term reads its input.
type TermKind int

const (
	TermFeature TermKind = iota // weight × feature
	TermInverse                 // weight × (1 − feature)
	TermFlag                    // weight × [condition]
	TermConst                   // weight
)

// Term is one addend of an action's weighted sum.
type Term struct {
	Kind    TermKind
	Weight  float64
	Feature string
	When    features.Condition
}

// F is weight × feature.
func F(w float64, feature string) Term { return Term{Kind: TermFeature, Weight: w, Feature: feature} }

// Inv is weight × (1 − feature).
func Inv(w float64, feature string) Term { return Term{Kind: TermInverse, Weight: w, Feature: feature} }

// Flag is weight when c holds.
func Flag(w float64, c features.Condition) Term { return Term{Kind: TermFlag, Weight: w, When: c} }

// Const is a fixed addend.
func Const(w float64) Term { return Term{Kind: TermConst, Weight: w} }

// Weights holds the terms per action.
type Weights map[action.Action][]Term

// Fixed builds terminal weights from constant scores.
func Fixed(s action.Scores) Weights {
	w := make(Weights, len(s))
	for a, v := range s {
		w[a] = []Term{Const(v)}
	}
	return w
}

// #endregion term

// #region override

// Pin fixes the primary confidence of a terminal override at
// clamp(Base + Gain × Feature). Feature may be empty.
type Pin struct {
	Base    float64
	Gain    float64
	Feature string
}

// Override is an ordered rule that runs before the weighted sums. With
// Terminal set it short-circuits scoring; otherwise Delta is added and
// evaluation continues.
type Override struct {
	Name       string
	When       features.Condition
	Terminal   Weights
	Delta      action.Scores
	Confidence *Pin
	Reasons    []string
}

// IsTerminal reports whether the override short-circuits.
func (o Override) IsTerminal() bool { return o.Terminal != nil }

// Adjustment is a guarded step applied to one action after the sums.
type Adjustment struct {
	Action action.Action
	Step   features.Step
}

// #endregion override

// #region table

// Table is a profile's complete scoring declaration.
type Table struct {
	Overrides   []Override
	Weights     Weights
	Adjustments []Adjustment
	Ceiling     bool // clamp each score to at most 1
}

// Outcome is the result of scoring one feature vector.
type Outcome struct {
	Scores     action.Scores
	Fired      []string
	Terminal   bool
	Confidence *float64 // pinned by a terminal override
	Reasons    []string // fixed reasons of a terminal override
}

// #endregion table
