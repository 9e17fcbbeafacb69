package action

import (
	"fmt"
	"sort"
)

// Action is one of the four case-handling outcomes.
type Action string

const (
	Inspection        Action = "Inspection"
	Invitation        Action = "Invitation"
	Assessment        Action = "Assessment"
	OutOfJurisdiction Action = "OutOfJurisdiction"
)

// All lists the actions in default priority order, highest first.
var All = []Action{Inspection, Invitation, Assessment, OutOfJurisdiction}

// Valid reports whether a is one of the four actions.
func (a Action) Valid() bool {
	switch a {
	case Inspection, Invitation, Assessment, OutOfJurisdiction:
		return true
	}
	return false
}

// Parse accepts the canonical name and the common spellings used by intake
// forms ("out_of_jurisdiction", "Out of Jurisdiction", "mediation").
func Parse(s string) (Action, error) {
	switch s {
	case "Inspection", "inspection":
		return Inspection, nil
	case "Invitation", "invitation", "mediation", "Mediation":
		return Invitation, nil
	case "Assessment", "assessment":
		return Assessment, nil
	case "OutOfJurisdiction", "out_of_jurisdiction", "Out of Jurisdiction":
		return OutOfJurisdiction, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Scores maps each action to a non-negative score.
type Scores map[Action]float64

// Zero returns scores with every action present at 0.
func Zero() Scores {
	s := make(Scores, len(All))
	for _, a := range All {
		s[a] = 0
	}
	return s
}

// Clone returns an independent copy.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for a, v := range s {
		out[a] = v
	}
	return out
}

// Total sums the scores.
func (s Scores) Total() float64 {
	sum := 0.0
	for _, a := range All {
		sum += s[a]
	}
	return sum
}

// Normalize divides every score by total+eps. With all scores at 0 the
// result is all 0.
func (s Scores) Normalize(eps float64) Scores {
	total := s.Total() + eps
	out := make(Scores, len(All))
	for _, a := range All {
		if total == 0 {
			out[a] = 0
			continue
		}
		out[a] = s[a] / total
	}
	return out
}

// Sorted returns the actions ordered by descending score; exact ties keep
// the order of priority.
func (s Scores) Sorted(priority []Action) []Action {
	out := make([]Action, len(priority))
	copy(out, priority)
	sort.SliceStable(out, func(i, j int) bool {
		return s[out[i]] > s[out[j]]
	})
	return out
}
