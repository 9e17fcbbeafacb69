package profile

import (
	"fmt"
	"sort"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/narrative"
	"github.com/reklamap/recommender/internal/scoring"
)

type validator struct {
	p        *Profile
	signals  map[string]bool
	declared map[string]bool
	problems []string
}

// Validate checks that every reference in the profile resolves. It returns
// a *ConfigError listing all problems, or nil.
func (p *Profile) Validate() error {
	v := &validator{p: p, signals: map[string]bool{}, declared: map[string]bool{}}
	v.schema()
	v.features()
	v.scoring()
	v.policy()
	v.narrative()
	if len(v.problems) == 0 {
		return nil
	}
	return &ConfigError{Profile: p.Name, Problems: v.problems}
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) schema() {
	if v.p.Name == "" {
		v.addf("missing name")
	}
	if v.p.Epsilon < 0 {
		v.addf("negative epsilon %g", v.p.Epsilon)
	}
	for _, f := range v.p.Schema {
		if v.signals[f.Key] {
			v.addf("duplicate signal key %q", f.Key)
		}
		v.signals[f.Key] = true
	}
}

func (v *validator) features() {
	for _, spec := range v.p.Features {
		if spec.Of == nil {
			v.addf("feature %q has no membership", spec.Name)
		} else {
			v.refs("feature "+spec.Name, spec.Of.Refs())
		}
		if v.declared[spec.Name] {
			v.addf("duplicate feature %q", spec.Name)
		}
		v.declared[spec.Name] = true
	}
	for i, a := range v.p.Adjustments {
		where := fmt.Sprintf("adjustment %d", i)
		v.feature(where, a.Feature)
		v.cond(where, a.Step.When)
	}
}

func (v *validator) scoring() {
	t := v.p.Scoring
	names := map[string]bool{}
	for i, o := range t.Overrides {
		where := fmt.Sprintf("override %d (%s)", i, o.Name)
		if o.Name == "" {
			v.addf("%s: missing name", where)
		} else if names[o.Name] {
			v.addf("duplicate override %q", o.Name)
		}
		names[o.Name] = true
		v.cond(where, o.When)
		if o.IsTerminal() {
			v.weights(where, o.Terminal)
		} else if len(o.Delta) == 0 {
			v.addf("%s: neither terminal nor delta", where)
		}
		for _, a := range keysOf(o.Delta) {
			v.action(where, a)
		}
		if o.Confidence != nil && o.Confidence.Feature != "" {
			v.feature(where+" confidence", o.Confidence.Feature)
		}
	}
	v.weights("weights", t.Weights)
	for i, adj := range t.Adjustments {
		where := fmt.Sprintf("score adjustment %d", i)
		v.action(where, adj.Action)
		v.cond(where, adj.Step.When)
	}
}

func (v *validator) weights(where string, w scoring.Weights) {
	for _, a := range keysOf(w) {
		v.action(where, a)
		for i, t := range w[a] {
			at := fmt.Sprintf("%s %s term %d", where, a, i)
			switch t.Kind {
			case scoring.TermFeature, scoring.TermInverse:
				v.feature(at, t.Feature)
			case scoring.TermFlag:
				v.cond(at, t.When)
			}
		}
	}
}

func (v *validator) policy() {
	if err := v.p.Policy.Validate(); err != nil {
		v.addf("policy: %v", err)
	}
	if v.p.Confidence.Kind == narrative.MarginEvidence {
		v.feature("confidence", v.p.Confidence.Evidence)
	}
}

func (v *validator) narrative() {
	t := v.p.Narrative
	if t.MaxReasons < 1 {
		v.addf("narrative: reason cap %d is below 1", t.MaxReasons)
	}
	for _, a := range keysOf(t.Labels) {
		v.action("narrative label", a)
	}
	for _, a := range keysOf(t.NextSteps) {
		v.action("narrative next steps", a)
	}
	for _, c := range t.Conditions() {
		v.cond("narrative", c)
	}
}

// #region refs

func (v *validator) cond(where string, c features.Condition) {
	if c == nil {
		v.addf("%s: missing condition", where)
		return
	}
	for _, k := range c.Refs().Signals {
		if !v.signals[k] {
			v.addf("%s: unknown signal %q", where, k)
		}
	}
	for _, f := range c.Refs().Features {
		v.feature(where, f)
	}
}

// refs checks a membership: features must already be declared.
func (v *validator) refs(where string, r features.Refs) {
	for _, k := range r.Signals {
		if !v.signals[k] {
			v.addf("%s: unknown signal %q", where, k)
		}
	}
	for _, f := range r.Features {
		if !v.declared[f] {
			v.addf("%s: reads feature %q before it is declared", where, f)
		}
	}
}

func (v *validator) feature(where, name string) {
	if !v.declared[name] {
		v.addf("%s: dangling feature reference %q", where, name)
	}
}

func (v *validator) action(where string, a action.Action) {
	if !a.Valid() {
		v.addf("%s: unknown action %q", where, a)
	}
}

func keysOf[V any](m map[action.Action]V) []action.Action {
	keys := make([]action.Action, 0, len(m))
	for a := range m {
		keys = append(keys, a)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// #endregion refs
