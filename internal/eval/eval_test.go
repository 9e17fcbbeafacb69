package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/decision"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

func lotBundle(t *testing.T) (*profile.Profile, recommend.Bundle) {
	t.Helper()
	p := profile.Lot()
	b := recommend.Run(p, signals.New(map[string]signals.Value{
		"q1_possession": signals.One("purchased from another"),
		"q2_nature":     signals.Many("illegally sold"),
		"q9_claim_docs": signals.One("no"),
	}))
	require.Equal(t, action.OutOfJurisdiction, b.Recommendation.Primary)
	return p, b
}

func metric(r EvalResult, name string) EvalMetric {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m
		}
	}
	return EvalMetric{}
}

func TestEvalPassesOnPipelineOutput(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	for _, p := range []*profile.Profile{profile.Lot(), profile.Pathway(), profile.Boundary(), profile.Unauthorized()} {
		t.Run(p.Name, func(t *testing.T) {
			result := h.Run(p, recommend.Run(p, signals.SignalSet{}))
			assert.True(t, result.Passed, result.Reason)
			assert.Equal(t, "all checks passed", result.Reason)
			assert.Len(t, result.Metrics, 8)
		})
	}
}

func TestEvalFailsOnNegativeScore(t *testing.T) {
	p, b := lotBundle(t)
	b.Scores = b.Scores.Clone()
	b.Scores[action.Invitation] = -0.2

	result := NewEvalHarness(DefaultEvalConfig()).Run(p, b)
	assert.False(t, result.Passed)
	assert.False(t, metric(result, "score_min").Pass)
	assert.Contains(t, result.Reason, "negative score")
}

func TestEvalFailsOnBrokenTieBreak(t *testing.T) {
	p, b := lotBundle(t)
	b.Recommendation.Ranked = []decision.Ranked{
		{Action: action.Assessment, Score: 0.5},
		{Action: action.Inspection, Score: 0.5},
		{Action: action.Invitation, Score: 0.1},
		{Action: action.OutOfJurisdiction, Score: 0},
	}

	result := NewEvalHarness(DefaultEvalConfig()).Run(p, b)
	assert.False(t, metric(result, "ranking").Pass)
}

func TestEvalFailsWhenGuardIgnored(t *testing.T) {
	p, b := lotBundle(t)
	b.Recommendation.Margin = 0.05

	result := NewEvalHarness(DefaultEvalConfig()).Run(p, b)
	assert.False(t, metric(result, "margin_guard").Pass)
}

func TestEvalNarrativeCheckIsConfigurable(t *testing.T) {
	p, b := lotBundle(t)
	b.NarrativeDegraded = true
	b.DegradedCause = "boom"

	strict := NewEvalHarness(DefaultEvalConfig()).Run(p, b)
	assert.False(t, strict.Passed)
	assert.Contains(t, strict.Reason, "boom")

	config := DefaultEvalConfig()
	config.CheckNarrate = false
	lenient := NewEvalHarness(config).Run(p, b)
	assert.True(t, lenient.Passed, lenient.Reason)
}

func TestEvalCountsMultipleFailures(t *testing.T) {
	p, b := lotBundle(t)
	b.Scores = b.Scores.Clone()
	b.Scores[action.Assessment] = -1
	b.Reasons = []string{"a", "b", "c", "d", "e"}

	result := NewEvalHarness(DefaultEvalConfig()).Run(p, b)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "eval failed: 2 checks")
}
