package features

import (
	"fmt"
	"math"
	"strings"
)

// Membership maps an Env to a degree. Results are clamped to [0,1] by
// Compute, not by the membership itself.
type Membership interface {
	Value(env Env) float64
	Refs() Refs
}

// #region select

// Case pairs a condition with the value it yields.
type Case struct {
	When  Condition
	Value float64
}

// When builds a Case.
func When(c Condition, v float64) Case { return Case{When: c, Value: v} }

type selectM struct {
	cases     []Case
	otherwise float64
}

// Select yields the value of the first case whose condition holds, else
// otherwise.
func Select(otherwise float64, cases ...Case) Membership {
	return selectM{cases: cases, otherwise: otherwise}
}

func (m selectM) Value(env Env) float64 {
	for _, c := range m.cases {
		if c.When.Holds(env) {
			return c.Value
		}
	}
	return m.otherwise
}

func (m selectM) Refs() Refs {
	var r Refs
	for _, c := range m.cases {
		r = r.merge(c.When.Refs())
	}
	return r
}

// Indicator is 1 when c holds, else 0.
func Indicator(c Condition) Membership { return Select(0, When(c, 1)) }

// #endregion select

// #region items

// ItemRule assigns a weight to a multi-choice item.
type ItemRule struct {
	Keywords []string
	Exact    bool
	Weight   float64
}

// Exact matches items equal to one of values.
func Exact(w float64, values ...string) ItemRule {
	return ItemRule{Keywords: lowerAll(values), Exact: true, Weight: w}
}

// Containing matches items containing one of keywords.
func Containing(w float64, keywords ...string) ItemRule {
	return ItemRule{Keywords: lowerAll(keywords), Weight: w}
}

func (r ItemRule) matches(item string) bool {
	for _, kw := range r.Keywords {
		if r.Exact && item == kw {
			return true
		}
		if !r.Exact && strings.Contains(item, kw) {
			return true
		}
	}
	return false
}

type perItem struct {
	key   string
	rules []ItemRule
}

// PerItem sums, over the items of key, the weight of the first rule each
// item matches. Unmatched items contribute nothing.
func PerItem(key string, rules ...ItemRule) Membership {
	return perItem{key: key, rules: rules}
}

func (m perItem) Value(env Env) float64 {
	sum := 0.0
	for _, it := range env.Signals.Items(m.key) {
		for _, r := range m.rules {
			if r.matches(it) {
				sum += r.Weight
				break
			}
		}
	}
	return sum
}

func (m perItem) Refs() Refs { return Refs{Signals: []string{m.key}} }

type count struct {
	key       string
	increment float64
	limit     float64
	exclude   []string
}

// Count yields min(limit, n*increment) where n counts the items of key not
// listed in exclude.
func Count(key string, increment, limit float64, exclude ...string) Membership {
	return count{key: key, increment: increment, limit: limit, exclude: lowerAll(exclude)}
}

func (m count) Value(env Env) float64 {
	n := 0
	for _, it := range env.Signals.Items(m.key) {
		if !contains(m.exclude, it) {
			n++
		}
	}
	return math.Min(m.limit, float64(n)*m.increment)
}

func (m count) Refs() Refs { return Refs{Signals: []string{m.key}} }

// #endregion items

// #region combinators

// Weighted is one coefficient × membership term of a Blend.
type Weighted struct {
	Coef float64
	Of   Membership
}

// W builds a Weighted term.
func W(coef float64, m Membership) Weighted { return Weighted{Coef: coef, Of: m} }

type blend []Weighted

// Blend yields the sum of coef × membership over terms.
func Blend(terms ...Weighted) Membership { return blend(terms) }

func (m blend) Value(env Env) float64 {
	sum := 0.0
	for _, t := range m {
		sum += t.Coef * t.Of.Value(env)
	}
	return sum
}

func (m blend) Refs() Refs {
	var r Refs
	for _, t := range m {
		r = r.merge(t.Of.Refs())
	}
	return r
}

// Sum adds memberships.
func Sum(parts ...Membership) Membership {
	terms := make([]Weighted, len(parts))
	for i, p := range parts {
		terms[i] = W(1, p)
	}
	return blend(terms)
}

type maxM []Membership

// Max yields the largest of parts, or 0 when empty.
func Max(parts ...Membership) Membership { return maxM(parts) }

func (m maxM) Value(env Env) float64 {
	best := 0.0
	for i, p := range m {
		v := p.Value(env)
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

func (m maxM) Refs() Refs {
	var r Refs
	for _, p := range m {
		r = r.merge(p.Refs())
	}
	return r
}

type capped struct {
	inner Membership
	limit float64
}

// Capped yields min(limit, m).
func Capped(m Membership, limit float64) Membership { return capped{inner: m, limit: limit} }

func (m capped) Value(env Env) float64 { return math.Min(m.limit, m.inner.Value(env)) }
func (m capped) Refs() Refs { return m.inner.Refs() }

type constM float64

// Const yields v.
func Const(v float64) Membership { return constM(v) }

func (m constM) Value(Env) float64 { return float64(m) }
func (m constM) Refs() Refs { return Refs{} }

type featureRef string

// Feature yields the value of a feature computed earlier.
func Feature(name string) Membership { return featureRef(name) }

func (m featureRef) Value(env Env) float64 { return env.Features.Get(string(m)) }
func (m featureRef) Refs() Refs { return Refs{Features: []string{string(m)}} }

type coverage []Condition

// Coverage yields the fraction of checks that hold; 0 when empty.
func Coverage(checks ...Condition) Membership { return coverage(checks) }

func (m coverage) Value(env Env) float64 {
	if len(m) == 0 {
		return 0
	}
	n := 0
	for _, c := range m {
		if c.Holds(env) {
			n++
		}
	}
	return float64(n) / float64(len(m))
}

func (m coverage) Refs() Refs { return refsOf(m) }

// #endregion combinators

// #region refine

// Op is a refinement operation applied to a running value.
type Op int

const (
	// OpSet replaces the value.
	OpSet Op = iota
	// OpFloor raises the value to at least the operand.
	OpFloor
	// OpFillZero replaces the value only when it is exactly 0.
	OpFillZero
	// OpAdd adds the operand.
	OpAdd
	// OpScale multiplies by the operand.
	OpScale
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpFloor:
		return "floor"
	case OpFillZero:
		return "fill-zero"
	case OpAdd:
		return "add"
	case OpScale:
		return "scale"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Step is one guarded refinement.
type Step struct {
	When    Condition
	Op      Op
	Operand float64
}

// Apply returns v after the step, or v unchanged when the guard fails.
func (s Step) Apply(env Env, v float64) float64 {
	if !s.When.Holds(env) {
		return v
	}
	switch s.Op {
	case OpSet:
		return s.Operand
	case OpFloor:
		return math.Max(v, s.Operand)
	case OpFillZero:
		if v == 0 {
			return s.Operand
		}
	case OpAdd:
		return v + s.Operand
	case OpScale:
		return v * s.Operand
	}
	return v
}

// SetTo replaces the value with v when c holds.
func SetTo(c Condition, v float64) Step { return Step{When: c, Op: OpSet, Operand: v} }

// FloorAt raises the value to at least v when c holds.
func FloorAt(c Condition, v float64) Step { return Step{When: c, Op: OpFloor, Operand: v} }

// FillZero replaces a zero value with v when c holds.
func FillZero(c Condition, v float64) Step { return Step{When: c, Op: OpFillZero, Operand: v} }

// AddWhen adds v when c holds.
func AddWhen(c Condition, v float64) Step { return Step{When: c, Op: OpAdd, Operand: v} }

// ScaleWhen multiplies by k when c holds.
func ScaleWhen(c Condition, k float64) Step { return Step{When: c, Op: OpScale, Operand: k} }

type refine struct {
	base  Membership
	steps []Step
}

// Refine applies steps in order to the value of base.
func Refine(base Membership, steps ...Step) Membership {
	return refine{base: base, steps: steps}
}

func (m refine) Value(env Env) float64 {
	v := m.base.Value(env)
	for _, s := range m.steps {
		v = s.Apply(env, v)
	}
	return v
}

func (m refine) Refs() Refs {
	r := m.base.Refs()
	for _, s := range m.steps {
		r = r.merge(s.When.Refs())
	}
	return r
}

// #endregion refine
