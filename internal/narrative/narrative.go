package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/features"
)

// #region build

// Build computes the confidence figures, then the reasons and text. The
// numeric part never fails; a panic while producing text is recovered and
// the result carries FallbackText with Degraded set.
func Build(t Template, m ConfidenceModel, in Input) Result {
	dist := in.Scores.Normalize(in.Epsilon)
	conf := m.Primary(in, dist)
	res := Result{
		Confidence:   conf,
		Distribution: dist,
		Band:         BandOf(conf),
	}

	reasons, text, err := safeText(t, in, conf)
	if err != nil {
		res.Text = FallbackText
		res.Reasons = []string{}
		res.Degraded = true
		res.Cause = err.Error()
		return res
	}
	res.Reasons = reasons
	res.Text = text
	return res
}

// Primary returns the primary confidence: a pinned value when present,
// otherwise the model's own derivation, clamped to [0,1].
func (m ConfidenceModel) Primary(in Input, dist action.Scores) float64 {
	if in.Pinned != nil {
		return features.Clamp01(*in.Pinned)
	}
	switch m.Kind {
	case MarginEvidence:
		lead := math.Max(0, dist[in.Primary]-dist[in.Secondary])
		return features.Clamp01(m.MarginWeight*lead + m.EvidenceWeight*in.Env.Features.Get(m.Evidence))
	default:
		return features.Clamp01(dist[in.Primary])
	}
}

func safeText(t Template, in Input, conf float64) (reasons []string, text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reasons, text = nil, ""
			err = fmt.Errorf("build narrative: %v", r)
		}
	}()
	reasons = Reasons(t, in, conf)
	text = Render(t, in, conf, reasons)
	return reasons, text, nil
}

// #endregion build

// #region reasons

// Reasons returns the capped reason list. Fixed reasons from a terminal
// override replace the rule reasons; with nothing firing the fallback is
// used.
func Reasons(t Template, in Input, conf float64) []string {
	var out []string
	if len(in.Fixed) > 0 {
		out = append(out, in.Fixed...)
	} else {
		out = evalRules(t.Reasons, in.Env)
		if lc := t.LowConfidence; lc != nil && conf < lc.Below {
			out = append(out, lc.Reason)
		}
	}
	if len(out) == 0 && t.Fallback != "" {
		out = []string{t.Fallback}
	}
	if limit := t.MaxReasons; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func evalRules(rules []ReasonRule, env features.Env) []string {
	var out []string
	for _, rule := range rules {
		for _, c := range rule {
			if !c.When.Holds(env) {
				continue
			}
			out = append(out, c.render(env))
			break
		}
	}
	return out
}

func (c ReasonCase) render(env features.Env) string {
	if len(c.Qualifiers) == 0 {
		return c.Text
	}
	var parts []string
	for _, q := range c.Qualifiers {
		if q.When.Holds(env) {
			parts = append(parts, q.Text)
		}
	}
	clause := strings.Join(parts, " and ")
	if clause == "" {
		clause = c.Otherwise
	}
	return fmt.Sprintf(c.Text, clause)
}

// #endregion reasons

// #region render

// Render assembles the narrative paragraphs, separated by blank lines.
func Render(t Template, in Input, conf float64, reasons []string) string {
	band := BandOf(conf)
	parts := []string{
		fmt.Sprintf("Recommended action: %s (%d%% %s confidence).", t.Label(in.Primary), Percent(conf), band),
	}
	if details := evalRules(t.Details, in.Env); len(details) > 0 {
		parts = append(parts, fmt.Sprintf("Signals considered: %s.", strings.Join(details, "; ")))
	}
	if len(reasons) > 0 {
		parts = append(parts, "Why this: "+strings.Join(reasons, " "))
	}
	if steps := t.NextSteps[in.Primary]; len(steps) > 0 {
		parts = append(parts, "Next steps: "+strings.Join(steps, " "))
	}
	if band != High && t.Note != "" {
		parts = append(parts, t.Note)
	}
	return strings.Join(parts, "\n\n")
}

// #endregion render
