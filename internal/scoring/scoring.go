package scoring

import (
	"math"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/signals"
)

// #region engine

// Engine scores feature vectors against one table.
type Engine struct {
	table Table
}

// NewEngine creates an engine for table.
func NewEngine(table Table) *Engine {
	return &Engine{table: table}
}

// Score runs overrides first, then the weighted sums. A terminal override
// returns its own scores immediately; bias overrides accumulate and every
// matching one applies. All scores are floored at 0.
func (e *Engine) Score(fv features.Vector, s signals.SignalSet) Outcome {
	env := features.Env{Signals: s, Features: fv}
	scores := action.Zero()
	var fired []string

	// --- Override pass ---
	for _, o := range e.table.Overrides {
		if !o.When.Holds(env) {
			continue
		}
		fired = append(fired, o.Name)
		if o.IsTerminal() {
			out := Outcome{
				Scores:   e.finish(sumTerms(o.Terminal, env)),
				Fired:    fired,
				Terminal: true,
				Reasons:  append([]string(nil), o.Reasons...),
			}
			if o.Confidence != nil {
				c := features.Clamp01(o.Confidence.Base + o.Confidence.Gain*fv.Get(o.Confidence.Feature))
				out.Confidence = &c
			}
			return out
		}
		for a, d := range o.Delta {
			scores[a] += d
		}
	}

	// --- Weighted sums ---
	for a, v := range sumTerms(e.table.Weights, env) {
		scores[a] += v
	}
	for _, adj := range e.table.Adjustments {
		scores[adj.Action] = adj.Step.Apply(env, scores[adj.Action])
	}

	return Outcome{Scores: e.finish(scores), Fired: fired}
}

// #endregion engine

// #region helpers

func (e *Engine) finish(s action.Scores) action.Scores {
	out := action.Zero()
	for _, a := range action.All {
		v := s[a]
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		if e.table.Ceiling && v > 1 {
			v = 1
		}
		out[a] = v
	}
	return out
}

func sumTerms(w Weights, env features.Env) action.Scores {
	out := action.Zero()
	for a, terms := range w {
		sum := 0.0
		for _, t := range terms {
			sum += t.eval(env)
		}
		out[a] = sum
	}
	return out
}

func (t Term) eval(env features.Env) float64 {
	switch t.Kind {
	case TermFeature:
		return t.Weight * env.Features.Get(t.Feature)
	case TermInverse:
		return t.Weight * (1 - env.Features.Get(t.Feature))
	case TermFlag:
		if t.When.Holds(env) {
			return t.Weight
		}
	case TermConst:
		return t.Weight
	}
	return 0
}

// #endregion helpers
