package decision

import (
	"fmt"

	"github.com/reklamap/recommender/internal/action"
)

// #region types

// Scale selects which scores the margin guard measures.
type Scale int

const (
	Raw Scale = iota
	Normalized
)

func (s Scale) String() string {
	if s == Normalized {
		return "normalized"
	}
	return "raw"
}

// MarginGuard demotes Guarded from the top slot when it leads the
// runner-up by less than Threshold.
type MarginGuard struct {
	Guarded   action.Action
	Threshold float64
	Scale     Scale
	Epsilon   float64 // normalized scale only; must be > 0 there
}

// Policy is a profile's decision configuration.
type Policy struct {
	Priority []action.Action
	Guard    *MarginGuard
}

// DefaultPolicy ranks by the default priority with no guard.
func DefaultPolicy() Policy {
	return Policy{Priority: append([]action.Action(nil), action.All...)}
}

// Ranked is one row of the ordered score list.
type Ranked struct {
	Action action.Action `json:"action"`
	Score  float64       `json:"score"`
}

// Recommendation is the chosen primary and secondary action.
type Recommendation struct {
	Primary   action.Action `json:"primary"`
	Secondary action.Action `json:"secondary,omitempty"`
	Ranked    []Ranked      `json:"ranked"`
	Demoted   bool          `json:"demoted,omitempty"`
	Margin    float64       `json:"margin"`
}

// #endregion types

// #region decide

// Decide ranks scores and picks primary and secondary. Exact ties resolve
// by the policy priority. When the guard applies, the runner-up becomes
// primary and the guarded action becomes secondary.
func (p Policy) Decide(scores action.Scores) Recommendation {
	priority := p.Priority
	if len(priority) == 0 {
		priority = action.All
	}
	order := scores.Sorted(priority)

	rec := Recommendation{Ranked: make([]Ranked, len(order))}
	for i, a := range order {
		rec.Ranked[i] = Ranked{Action: a, Score: scores[a]}
	}
	if len(order) == 0 {
		return rec
	}
	rec.Primary = order[0]
	if len(order) < 2 {
		return rec
	}
	rec.Secondary = order[1]
	rec.Margin = p.margin(scores, order[0], order[1])

	if g := p.Guard; g != nil && rec.Primary == g.Guarded && rec.Margin < g.Threshold {
		rec.Primary, rec.Secondary = order[1], order[0]
		rec.Demoted = true
	}
	return rec
}

func (p Policy) margin(scores action.Scores, top, next action.Action) float64 {
	if p.Guard != nil && p.Guard.Scale == Normalized {
		n := scores.Normalize(p.Guard.Epsilon)
		return n[top] - n[next]
	}
	return scores[top] - scores[next]
}

// #endregion decide

// #region routing

// Routing is the follow-up hint for case handling: who to assign and what
// office action to take.
type Routing struct {
	Assign string `json:"assign,omitempty"`
	Action string `json:"action,omitempty"`
}

// Routing derives the assignee from the first of primary/secondary that is
// Inspection or Invitation, and the office action from the first that is
// Assessment or OutOfJurisdiction.
func (r Recommendation) Routing() Routing {
	var out Routing
	for _, a := range []action.Action{r.Primary, r.Secondary} {
		switch a {
		case action.Inspection, action.Invitation:
			if out.Assign == "" {
				out.Assign = string(a)
			}
		case action.Assessment, action.OutOfJurisdiction:
			if out.Action == "" {
				out.Action = string(a)
			}
		}
	}
	return out
}

// #endregion routing

// Validate reports a malformed policy.
func (p Policy) Validate() error {
	if len(p.Priority) != len(action.All) {
		return fmt.Errorf("priority lists %d actions, want %d", len(p.Priority), len(action.All))
	}
	seen := make(map[action.Action]bool, len(p.Priority))
	for _, a := range p.Priority {
		if !a.Valid() {
			return fmt.Errorf("priority: unknown action %q", a)
		}
		if seen[a] {
			return fmt.Errorf("priority: duplicate action %q", a)
		}
		seen[a] = true
	}
	if g := p.Guard; g != nil {
		if !g.Guarded.Valid() {
			return fmt.Errorf("margin guard: unknown action %q", g.Guarded)
		}
		if g.Threshold < 0 {
			return fmt.Errorf("margin guard: negative threshold %g", g.Threshold)
		}
		if g.Scale == Normalized && g.Epsilon <= 0 {
			return fmt.Errorf("margin guard: normalized scale needs a positive epsilon, got %g", g.Epsilon)
		}
	}
	return nil
}
