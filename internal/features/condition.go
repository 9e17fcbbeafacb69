package features

import (
	"fmt"
	"strings"

	"github.com/reklamap/recommender/internal/signals"
)

// Env is what a condition or membership may read: the answers and the
// features computed so far.
type Env struct {
	Signals  signals.SignalSet
	Features Vector
}

// Refs lists the signal keys and feature names an expression reads.
type Refs struct {
	Signals  []string
	Features []string
}

func (r Refs) merge(others ...Refs) Refs {
	for _, o := range others {
		r.Signals = append(r.Signals, o.Signals...)
		r.Features = append(r.Features, o.Features...)
	}
	return r
}

// Condition is a predicate over an Env.
type Condition interface {
	Holds(env Env) bool
	Refs() Refs
	String() string
}

// #region signal-conditions

type containsCond struct {
	key      string
	keywords []string
}

// Contains holds when the answer for key, or any of its items, contains
// one of the keywords. Keywords are compared lower-case.
func Contains(key string, keywords ...string) Condition {
	return containsCond{key: key, keywords: lowerAll(keywords)}
}

func (c containsCond) Holds(env Env) bool {
	for _, it := range env.Signals.Items(c.key) {
		for _, kw := range c.keywords {
			if strings.Contains(it, kw) {
				return true
			}
		}
	}
	return false
}

func (c containsCond) Refs() Refs { return Refs{Signals: []string{c.key}} }
func (c containsCond) String() string {
	return fmt.Sprintf("%s contains %s", c.key, strings.Join(c.keywords, "|"))
}

type equalsCond struct {
	key    string
	values []string
}

// Equals holds when the answer for key, or any of its items, equals one
// of the values.
func Equals(key string, values ...string) Condition {
	return equalsCond{key: key, values: lowerAll(values)}
}

func (c equalsCond) Holds(env Env) bool {
	for _, it := range env.Signals.Items(c.key) {
		for _, v := range c.values {
			if it == v {
				return true
			}
		}
	}
	return false
}

func (c equalsCond) Refs() Refs { return Refs{Signals: []string{c.key}} }
func (c equalsCond) String() string {
	return fmt.Sprintf("%s = %s", c.key, strings.Join(c.values, "|"))
}

type answeredCond struct {
	key    string
	ignore []string
}

// Answered holds when key carries a non-empty answer.
func Answered(key string) Condition {
	return answeredCond{key: key}
}

// AnsweredExcept holds when key carries at least one item not in ignore.
func AnsweredExcept(key string, ignore ...string) Condition {
	return answeredCond{key: key, ignore: lowerAll(ignore)}
}

func (c answeredCond) Holds(env Env) bool {
	for _, it := range env.Signals.Items(c.key) {
		if !contains(c.ignore, it) {
			return true
		}
	}
	return false
}

func (c answeredCond) Refs() Refs { return Refs{Signals: []string{c.key}} }
func (c answeredCond) String() string {
	if len(c.ignore) == 0 {
		return c.key + " answered"
	}
	return fmt.Sprintf("%s answered except %s", c.key, strings.Join(c.ignore, "|"))
}

// #endregion signal-conditions

// #region feature-conditions

type compareOp int

const (
	opAtLeast compareOp = iota
	opAbove
	opBelow
	opAtMost
)

var compareSymbols = map[compareOp]string{opAtLeast: ">=", opAbove: ">", opBelow: "<", opAtMost: "<="}

type compareCond struct {
	feature   string
	op        compareOp
	threshold float64
}

// AtLeast holds when feature >= t.
func AtLeast(feature string, t float64) Condition { return compareCond{feature, opAtLeast, t} }

// Above holds when feature > t.
func Above(feature string, t float64) Condition { return compareCond{feature, opAbove, t} }

// Below holds when feature < t.
func Below(feature string, t float64) Condition { return compareCond{feature, opBelow, t} }

// AtMost holds when feature <= t.
func AtMost(feature string, t float64) Condition { return compareCond{feature, opAtMost, t} }

// Positive holds when feature > 0.
func Positive(feature string) Condition { return Above(feature, 0) }

// IsZero holds when feature == 0.
func IsZero(feature string) Condition { return AtMost(feature, 0) }

func (c compareCond) Holds(env Env) bool {
	v := env.Features.Get(c.feature)
	switch c.op {
	case opAtLeast:
		return v >= c.threshold
	case opAbove:
		return v > c.threshold
	case opBelow:
		return v < c.threshold
	case opAtMost:
		return v <= c.threshold
	}
	return false
}

func (c compareCond) Refs() Refs { return Refs{Features: []string{c.feature}} }
func (c compareCond) String() string {
	return fmt.Sprintf("%s %s %g", c.feature, compareSymbols[c.op], c.threshold)
}

// #endregion feature-conditions

// #region combinators

type allCond []Condition

// All holds when every condition holds. All() holds.
func All(conds ...Condition) Condition { return allCond(conds) }

func (c allCond) Holds(env Env) bool {
	for _, cc := range c {
		if !cc.Holds(env) {
			return false
		}
	}
	return true
}

func (c allCond) Refs() Refs { return refsOf(c) }
func (c allCond) String() string {
	if len(c) == 0 {
		return "always"
	}
	return "(" + joinConds(c, " and ") + ")"
}

type anyCond []Condition

// AnyOf holds when at least one condition holds.
func AnyOf(conds ...Condition) Condition { return anyCond(conds) }

func (c anyCond) Holds(env Env) bool {
	for _, cc := range c {
		if cc.Holds(env) {
			return true
		}
	}
	return false
}

func (c anyCond) Refs() Refs { return refsOf(c) }
func (c anyCond) String() string { return "(" + joinConds(c, " or ") + ")" }

type notCond struct{ inner Condition }

// Not negates c.
func Not(c Condition) Condition { return notCond{c} }

func (c notCond) Holds(env Env) bool { return !c.inner.Holds(env) }
func (c notCond) Refs() Refs { return c.inner.Refs() }
func (c notCond) String() string { return "not " + c.inner.String() }

// Always holds unconditionally.
var Always Condition = allCond(nil)

// #endregion combinators

func refsOf(conds []Condition) Refs {
	var r Refs
	for _, c := range conds {
		r = r.merge(c.Refs())
	}
	return r
}

func joinConds(conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
