package profile

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reklamap/recommender/internal/scoring"
)

// Description is a human-readable summary of a profile, for operators
// auditing what a profile reads and how it weighs it.
type Description struct {
	Name      string              `yaml:"name"`
	Title     string              `yaml:"title"`
	Signals   []SignalDesc        `yaml:"signals"`
	Features  []FeatureDesc       `yaml:"features"`
	Overrides []OverrideDesc      `yaml:"overrides,omitempty"`
	Weights   map[string][]string `yaml:"weights"`
	Guard     string              `yaml:"guard,omitempty"`
	Priority  []string            `yaml:"priority"`
	MaxReason int                 `yaml:"max_reasons"`
}

// SignalDesc names one schema key.
type SignalDesc struct {
	Key  string `yaml:"key"`
	Kind string `yaml:"kind"`
}

// FeatureDesc names one feature and what it reads.
type FeatureDesc struct {
	Name    string   `yaml:"name"`
	Signals []string `yaml:"signals,omitempty"`
	Reads   []string `yaml:"features,omitempty"`
}

// OverrideDesc summarizes one override.
type OverrideDesc struct {
	Name     string `yaml:"name"`
	When     string `yaml:"when"`
	Terminal bool   `yaml:"terminal"`
}

// Describe summarizes p.
func Describe(p *Profile) Description {
	d := Description{
		Name:      p.Name,
		Title:     p.Title,
		Weights:   map[string][]string{},
		MaxReason: p.Narrative.MaxReasons,
	}
	for _, fld := range p.Schema {
		d.Signals = append(d.Signals, SignalDesc{Key: fld.Key, Kind: fld.Kind.String()})
	}
	for _, spec := range p.Features {
		refs := spec.Of.Refs()
		d.Features = append(d.Features, FeatureDesc{Name: spec.Name, Signals: refs.Signals, Reads: refs.Features})
	}
	for _, o := range p.Scoring.Overrides {
		d.Overrides = append(d.Overrides, OverrideDesc{Name: o.Name, When: o.When.String(), Terminal: o.IsTerminal()})
	}
	for _, a := range keysOf(p.Scoring.Weights) {
		for _, t := range p.Scoring.Weights[a] {
			d.Weights[string(a)] = append(d.Weights[string(a)], describeTerm(t))
		}
	}
	if g := p.Policy.Guard; g != nil {
		d.Guard = fmt.Sprintf("%s demoted when lead < %g (%s)", g.Guarded, g.Threshold, g.Scale)
	}
	for _, a := range p.Policy.Priority {
		d.Priority = append(d.Priority, string(a))
	}
	return d
}

func describeTerm(t scoring.Term) string {
	switch t.Kind {
	case scoring.TermFeature:
		return fmt.Sprintf("%g × %s", t.Weight, t.Feature)
	case scoring.TermInverse:
		return fmt.Sprintf("%g × (1 − %s)", t.Weight, t.Feature)
	case scoring.TermFlag:
		return fmt.Sprintf("%g if %s", t.Weight, t.When)
	default:
		return fmt.Sprintf("%g", t.Weight)
	}
}

// WriteYAML encodes the descriptions of ps to w.
func WriteYAML(w io.Writer, ps ...*Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, p := range ps {
		if err := enc.Encode(Describe(p)); err != nil {
			return fmt.Errorf("encode profile %q: %w", p.Name, err)
		}
	}
	return enc.Close()
}
