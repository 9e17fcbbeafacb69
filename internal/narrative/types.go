package narrative

import (
	"math"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/features"
)

// FallbackText replaces the narrative when building it fails.
const FallbackText = "A recommendation was produced, but its explanation could not be generated."

// #region confidence

// ConfidenceKind selects how the primary confidence is derived.
type ConfidenceKind int

const (
	// Share uses the primary's normalized score.
	Share ConfidenceKind = iota
	// MarginEvidence blends the normalized lead over the runner-up with an
	// evidence feature.
	MarginEvidence
)

// ConfidenceModel is a profile's confidence declaration.
type ConfidenceModel struct {
	Kind           ConfidenceKind
	MarginWeight   float64
	EvidenceWeight float64
	Evidence       string
}

// Band is the coarse confidence label.
type Band string

const (
	High     Band = "high"
	Moderate Band = "moderate"
	Low      Band = "low"
)

// Percent is the confidence as the whole percentage shown to readers.
func Percent(c float64) int {
	return int(math.Round(c * 100))
}

// BandOf maps a confidence to its band on the displayed percentage:
// >= 75 high, >= 50 moderate.
func BandOf(c float64) Band {
	switch pct := Percent(c); {
	case pct >= 75:
		return High
	case pct >= 50:
		return Moderate
	default:
		return Low
	}
}

// #endregion confidence

// #region template

// Qualifier is an optional clause of a reason.
type Qualifier struct {
	When features.Condition
	Text string
}

// ReasonCase emits Text when When holds. With qualifiers, Text is a
// format taking one %s filled with the holding qualifiers joined by
// " and ", or Otherwise when none hold.
type ReasonCase struct {
	When       features.Condition
	Text       string
	Qualifiers []Qualifier
	Otherwise  string
}

// ReasonRule emits the first of its cases that holds.
type ReasonRule []ReasonCase

// Reason is a single-case rule.
func Reason(when features.Condition, text string) ReasonRule {
	return ReasonRule{{When: when, Text: text}}
}

// OneOf is a multi-case rule; the first holding case wins.
func OneOf(cases ...ReasonCase) ReasonRule { return ReasonRule(cases) }

// Case builds a plain ReasonCase.
func Case(when features.Condition, text string) ReasonCase {
	return ReasonCase{When: when, Text: text}
}

// LowConfidence adds Reason when the primary confidence is under Below.
type LowConfidence struct {
	Below  float64
	Reason string
}

// Template declares how a profile explains itself.
type Template struct {
	Labels        map[action.Action]string
	Reasons       []ReasonRule
	MaxReasons    int
	Fallback      string
	LowConfidence *LowConfidence
	Note          string
	Details       []ReasonRule
	NextSteps     map[action.Action][]string
}

// Label returns the display label for a.
func (t Template) Label(a action.Action) string {
	if l, ok := t.Labels[a]; ok {
		return l
	}
	if a == action.OutOfJurisdiction {
		return "Out of Jurisdiction"
	}
	return string(a)
}

// Conditions lists every condition the template reads.
func (t Template) Conditions() []features.Condition {
	var out []features.Condition
	for _, rules := range [][]ReasonRule{t.Reasons, t.Details} {
		for _, r := range rules {
			for _, c := range r {
				out = append(out, c.When)
				for _, q := range c.Qualifiers {
					out = append(out, q.When)
				}
			}
		}
	}
	return out
}

// #endregion template

// #region io

// Input is everything the builder reads.
type Input struct {
	Primary   action.Action
	Secondary action.Action
	Scores    action.Scores
	Env       features.Env
	Pinned    *float64
	Fixed     []string // reasons that replace the rule reasons
	Epsilon   float64
}

// Result is the built explanation.
type Result struct {
	Confidence   float64       `json:"confidence"`
	Distribution action.Scores `json:"distribution"`
	Band         Band          `json:"band"`
	Reasons      []string      `json:"reasons"`
	Text         string        `json:"text"`
	Degraded     bool          `json:"degraded,omitempty"`
	Cause        string        `json:"cause,omitempty"`
}

// #endregion io
