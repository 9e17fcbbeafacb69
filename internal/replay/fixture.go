package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/eval"
	"github.com/reklamap/recommender/internal/signals"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Profile     string        `json:"profile,omitempty"` // empty means detect per case
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase is one recorded complaint and the outcome expected for it.
type FixtureCase struct {
	CaseID   string            `json:"case_id"`
	Profile  string            `json:"profile,omitempty"` // overrides the fixture profile
	Signals  signals.SignalSet `json:"signals"`
	Expected FixtureExpected   `json:"expected"`
}

// FixtureExpected captures the expected decision for a case.
type FixtureExpected struct {
	Primary   action.Action `json:"primary"`
	Secondary action.Action `json:"secondary,omitempty"`
	Overrides []string      `json:"overrides,omitempty"`
	Demoted   bool          `json:"demoted,omitempty"`
}

// FixtureConfig mirrors ReplayConfig with JSON tags.
type FixtureConfig struct {
	EvalConfig FixtureEvalConfig `json:"eval_config"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with JSON tags.
type FixtureEvalConfig struct {
	Tolerance    float64 `json:"tolerance"`
	MinSumTotal  float64 `json:"min_sum_total"`
	CheckNarrate bool    `json:"check_narrative"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture encodes f as indented JSON to path.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToCase converts a FixtureCase to a domain Case, inheriting the fixture
// profile when the case names none.
func (fc *FixtureCase) ToCase(fixtureProfile string) Case {
	p := fc.Profile
	if p == "" {
		p = fixtureProfile
	}
	return Case{CaseID: fc.CaseID, Profile: p, Signals: fc.Signals, Expected: fc.Expected}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		out[i] = f.Cases[i].ToCase(f.Profile)
	}
	return out
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig. Zero
// tolerances fall back to the defaults.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.EvalConfig.Tolerance > 0 {
		cfg.EvalConfig.Tolerance = fc.EvalConfig.Tolerance
	}
	if fc.EvalConfig.MinSumTotal > 0 {
		cfg.EvalConfig.MinSumTotal = fc.EvalConfig.MinSumTotal
	}
	cfg.EvalConfig.CheckNarrate = fc.EvalConfig.CheckNarrate
	return cfg
}

// DefaultFixtureConfig is the JSON form of DefaultReplayConfig.
func DefaultFixtureConfig() FixtureConfig {
	d := eval.DefaultEvalConfig()
	return FixtureConfig{EvalConfig: FixtureEvalConfig{
		Tolerance:    d.Tolerance,
		MinSumTotal:  d.MinSumTotal,
		CheckNarrate: d.CheckNarrate,
	}}
}

// #endregion fixture-loader
