package eval

import (
	"fmt"
	"math"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/decision"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
)

// #region eval-harness
// EvalHarness checks that a bundle satisfies the pipeline's invariants.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates b as produced by p. Every check runs; the result fails if
// any of them fails.
func (h *EvalHarness) Run(p *profile.Profile, b recommend.Bundle) EvalResult {
	tol := h.config.Tolerance
	var metrics []EvalMetric
	var failReasons []string
	check := func(name string, value float64, pass bool, format string, args ...any) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf(format, args...))
		}
	}

	// 1. Feature range
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range b.Features {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if len(b.Features) == 0 {
		lo, hi = 0, 0
	}
	check("feature_max", hi, lo >= -tol && hi <= 1+tol, "feature out of [0,1]: min %.4f max %.4f", lo, hi)

	// 2. Score floor
	minScore := math.Inf(1)
	for _, a := range action.All {
		minScore = math.Min(minScore, b.Scores[a])
	}
	check("score_min", minScore, minScore >= 0, "negative score %.4f", minScore)

	// 3. Confidence distribution
	sum := 0.0
	for _, a := range action.All {
		sum += b.Confidence[a]
	}
	sumOK := sum <= 1+tol
	if b.Scores.Total() >= h.config.MinSumTotal {
		sumOK = sumOK && math.Abs(sum-1) <= 1e-3
	}
	check("confidence_sum", sum, sumOK, "confidence sums to %.6f", sum)
	check("primary_confidence", b.PrimaryConfidence, b.PrimaryConfidence >= 0 && b.PrimaryConfidence <= 1,
		"primary confidence %.4f out of [0,1]", b.PrimaryConfidence)

	// 4. Ranking order and tie-break
	rankOK := rankingConsistent(p.Policy.Priority, b.Recommendation.Ranked)
	check("ranking", boolValue(rankOK), rankOK, "ranked list not ordered by score then priority")

	// 5. Margin guard
	guardOK := guardRespected(p.Policy, b)
	check("margin_guard", b.Recommendation.Margin, guardOK, "guarded action kept with margin %.4f", b.Recommendation.Margin)

	// 6. Reasons
	n := len(b.Reasons)
	reasonsOK := b.NarrativeDegraded || (n >= 1 && n <= p.Narrative.MaxReasons)
	check("reasons", float64(n), reasonsOK, "%d reasons, cap %d", n, p.Narrative.MaxReasons)

	// 7. Narrative fallback: informational unless configured
	narrOK := !h.config.CheckNarrate || !b.NarrativeDegraded
	check("narrative", boolValue(!b.NarrativeDegraded), narrOK, "narrative degraded: %s", b.DegradedCause)

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers

func rankingConsistent(priority []action.Action, ranked []decision.Ranked) bool {
	if len(priority) == 0 {
		priority = action.All
	}
	rank := make(map[action.Action]int, len(priority))
	for i, a := range priority {
		rank[a] = i
	}
	for i := 1; i < len(ranked); i++ {
		prev, cur := ranked[i-1], ranked[i]
		if prev.Score < cur.Score {
			return false
		}
		if prev.Score == cur.Score && rank[prev.Action] > rank[cur.Action] {
			return false
		}
	}
	return true
}

// guardRespected reports whether a guarded top action with a thin lead
// was demoted to secondary.
func guardRespected(p decision.Policy, b recommend.Bundle) bool {
	g := p.Guard
	r := b.Recommendation
	if g == nil || len(r.Ranked) < 2 || r.Ranked[0].Action != g.Guarded {
		return !r.Demoted
	}
	if r.Margin < g.Threshold {
		return r.Primary == r.Ranked[1].Action && r.Secondary == g.Guarded && r.Demoted
	}
	return r.Primary == g.Guarded && !r.Demoted
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
