package replay

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reklamap/recommender/internal/eval"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

// #region types

// Case is a single recorded complaint for replay.
type Case struct {
	CaseID   string
	Profile  string
	Signals  signals.SignalSet
	Expected FixtureExpected
}

// ReplayConfig holds the eval config applied to every replayed bundle.
type ReplayConfig struct {
	EvalConfig eval.EvalConfig
}

// DefaultReplayConfig returns the default eval tolerances.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{EvalConfig: eval.DefaultEvalConfig()}
}

// Outcome labels a replayed case.
const (
	OutcomeMatch    = "match"
	OutcomeMismatch = "mismatch"
	OutcomeEvalFail = "eval_fail"
	OutcomeError    = "error"
)

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	CaseID  string
	Outcome string
	Reason  string

	// Nil when the profile could not be resolved.
	Bundle     *recommend.Bundle
	EvalResult *eval.EvalResult
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases  int
	Matches     int
	Mismatches  int
	EvalFails   int
	Errors      int
	ByPrimary   map[string]int
	Demotions   int
	Overridden  int
	Degradation int
}

// #endregion types

// #region replay

// Replay runs every case through resolve → recommend → eval → compare.
// Cases are independent; one failure does not stop the run.
func Replay(rec *recommend.Recommender, cases []Case, config ReplayConfig) []ReplayResult {
	results := make([]ReplayResult, 0, len(cases))
	evalInst := eval.NewEvalHarness(config.EvalConfig)

	for _, c := range cases {
		// 1. Resolve
		p, err := rec.Resolve(c.Profile, c.Signals)
		if err != nil {
			results = append(results, ReplayResult{CaseID: c.CaseID, Outcome: OutcomeError, Reason: err.Error()})
			continue
		}

		// 2. Recommend
		b := recommend.Run(p, c.Signals)

		// 3. Eval
		evalResult := evalInst.Run(p, b)
		if !evalResult.Passed {
			results = append(results, ReplayResult{
				CaseID:     c.CaseID,
				Outcome:    OutcomeEvalFail,
				Reason:     evalResult.Reason,
				Bundle:     &b,
				EvalResult: &evalResult,
			})
			continue
		}

		// 4. Compare
		outcome, reason := OutcomeMatch, "as expected"
		if diffs := compare(c.Expected, b); len(diffs) > 0 {
			outcome, reason = OutcomeMismatch, strings.Join(diffs, "; ")
		}
		results = append(results, ReplayResult{
			CaseID:     c.CaseID,
			Outcome:    outcome,
			Reason:     reason,
			Bundle:     &b,
			EvalResult: &evalResult,
		})
	}

	return results
}

func compare(want FixtureExpected, b recommend.Bundle) []string {
	got := b.Recommendation
	var diffs []string
	if want.Primary != got.Primary {
		diffs = append(diffs, fmt.Sprintf("primary: want %s, got %s", want.Primary, got.Primary))
	}
	if want.Secondary != "" && want.Secondary != got.Secondary {
		diffs = append(diffs, fmt.Sprintf("secondary: want %s, got %s", want.Secondary, got.Secondary))
	}
	if want.Overrides != nil && !slices.Equal(want.Overrides, b.Overrides) {
		diffs = append(diffs, fmt.Sprintf("overrides: want %v, got %v", want.Overrides, b.Overrides))
	}
	if want.Demoted != got.Demoted {
		diffs = append(diffs, fmt.Sprintf("demoted: want %t, got %t", want.Demoted, got.Demoted))
	}
	return diffs
}

// Expect derives the expectation a bundle satisfies, for snapshotting.
func Expect(b recommend.Bundle) FixtureExpected {
	return FixtureExpected{
		Primary:   b.Recommendation.Primary,
		Secondary: b.Recommendation.Secondary,
		Overrides: append([]string{}, b.Overrides...),
		Demoted:   b.Recommendation.Demoted,
	}
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results), ByPrimary: map[string]int{}}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeMatch:
			s.Matches++
		case OutcomeMismatch:
			s.Mismatches++
		case OutcomeEvalFail:
			s.EvalFails++
		case OutcomeError:
			s.Errors++
		}
		if r.Bundle == nil {
			continue
		}
		s.ByPrimary[string(r.Bundle.Recommendation.Primary)]++
		if r.Bundle.Recommendation.Demoted {
			s.Demotions++
		}
		if len(r.Bundle.Overrides) > 0 {
			s.Overridden++
		}
		if r.Bundle.NarrativeDegraded {
			s.Degradation++
		}
	}
	return s
}

// #endregion replay
