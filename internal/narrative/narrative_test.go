package narrative

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/signals"
)

func testTemplate() Template {
	return Template{
		Reasons: []ReasonRule{
			Reason(features.AtLeast("occupancy", 0.6), "Opposing party resides on the lot."),
			OneOf(
				Case(features.AtLeast("docs", 0.6), "Strong documents."),
				Case(features.Above("docs", 0.2), "Some documents."),
				Case(features.Always, "Little documentation."),
			),
			{{
				When:       features.Positive("weak"),
				Text:       "Jurisdiction may be weak (%s).",
				Qualifiers: []Qualifier{{When: features.Below("docs", 0.2), Text: "weak documentation"}, {When: features.IsZero("reported"), Text: "no prior reporting"}},
				Otherwise:  "multiple indicators",
			}},
		},
		MaxReasons: 4,
		Fallback:   "Signals are mixed.",
		Note:       "Note: more documents help.",
	}
}

func input(fv features.Vector, scores action.Scores) Input {
	return Input{
		Primary:   action.Inspection,
		Secondary: action.Assessment,
		Scores:    scores,
		Env:       features.Env{Signals: signals.SignalSet{}, Features: fv},
		Epsilon:   1e-6,
	}
}

func TestBandOf(t *testing.T) {
	assert.Equal(t, High, BandOf(0.75))
	assert.Equal(t, High, BandOf(0.7499))
	assert.Equal(t, Moderate, BandOf(0.7449))
	assert.Equal(t, Moderate, BandOf(0.5))
	assert.Equal(t, Moderate, BandOf(0.4951))
	assert.Equal(t, Low, BandOf(0.4949))
	assert.Equal(t, 75, Percent(0.7451))
}

func TestBuild_BandFollowsDisplayedPercent(t *testing.T) {
	tests := []struct {
		conf     float64
		headline string
		band     Band
		note     bool
	}{
		{conf: 0.4949, headline: "(49% low confidence)", band: Low, note: true},
		{conf: 0.4951, headline: "(50% moderate confidence)", band: Moderate, note: true},
		{conf: 0.7449, headline: "(74% moderate confidence)", band: Moderate, note: true},
		{conf: 0.7451, headline: "(75% high confidence)", band: High, note: false},
	}
	for _, tt := range tests {
		t.Run(tt.headline, func(t *testing.T) {
			in := input(features.Vector{"docs": 0.7}, action.Scores{action.Inspection: 1})
			pinned := tt.conf
			in.Pinned = &pinned

			res := Build(testTemplate(), ConfidenceModel{Kind: Share}, in)
			require.False(t, res.Degraded)
			assert.Equal(t, tt.band, res.Band)
			assert.Contains(t, res.Text, tt.headline)
			if tt.note {
				assert.Contains(t, res.Text, "Note:")
			} else {
				assert.NotContains(t, res.Text, "Note:")
			}
		})
	}
}

func TestBuild_ShareConfidenceAndText(t *testing.T) {
	scores := action.Scores{action.Inspection: 0.6, action.Invitation: 0.2, action.Assessment: 0.2, action.OutOfJurisdiction: 0}
	in := input(features.Vector{"occupancy": 0.8, "docs": 0.1, "weak": 1, "reported": 0}, scores)

	res := Build(testTemplate(), ConfidenceModel{Kind: Share}, in)
	require.False(t, res.Degraded)
	assert.InDelta(t, 0.6, res.Confidence, 1e-5)
	assert.Equal(t, Moderate, res.Band)
	assert.InDelta(t, 1.0, res.Distribution.Total(), 1e-5)
	assert.Equal(t, []string{
		"Opposing party resides on the lot.",
		"Little documentation.",
		"Jurisdiction may be weak (weak documentation and no prior reporting).",
	}, res.Reasons)

	paras := strings.Split(res.Text, "\n\n")
	require.Len(t, paras, 3)
	assert.Equal(t, "Recommended action: Inspection (60% moderate confidence).", paras[0])
	assert.True(t, strings.HasPrefix(paras[1], "Why this: Opposing party"))
	assert.Equal(t, "Note: more documents help.", paras[2])
}

func TestBuild_HighConfidenceOmitsNote(t *testing.T) {
	scores := action.Scores{action.Inspection: 0.9, action.Assessment: 0.1}
	res := Build(testTemplate(), ConfidenceModel{Kind: Share}, input(features.Vector{"docs": 0.7}, scores))
	assert.Equal(t, High, res.Band)
	assert.NotContains(t, res.Text, "Note:")
	assert.Equal(t, []string{"Strong documents."}, res.Reasons)
}

func TestReasons_QualifierFallbackAndCap(t *testing.T) {
	tpl := testTemplate()
	in := input(features.Vector{"docs": 0.5, "weak": 1, "reported": 0.3}, action.Zero())
	got := Reasons(tpl, in, 0.5)
	assert.Equal(t, []string{"Some documents.", "Jurisdiction may be weak (multiple indicators)."}, got)

	tpl.MaxReasons = 1
	assert.Len(t, Reasons(tpl, in, 0.5), 1)
}

func TestReasons_FallbackWhenNothingFires(t *testing.T) {
	tpl := Template{Reasons: []ReasonRule{Reason(features.AtLeast("x", 0.6), "x")}, Fallback: "Signals are mixed."}
	got := Reasons(tpl, input(features.Vector{}, action.Zero()), 0.3)
	assert.Equal(t, []string{"Signals are mixed."}, got)
}

func TestReasons_FixedReplaceRules(t *testing.T) {
	in := input(features.Vector{"occupancy": 1}, action.Zero())
	in.Fixed = []string{"Parked vehicles are handled elsewhere."}
	assert.Equal(t, in.Fixed, Reasons(testTemplate(), in, 0.9))
}

func TestReasons_LowConfidence(t *testing.T) {
	tpl := Template{LowConfidence: &LowConfidence{Below: 0.5, Reason: "Signals are mixed; collect more evidence."}}
	in := input(features.Vector{}, action.Zero())
	assert.Equal(t, []string{"Signals are mixed; collect more evidence."}, Reasons(tpl, in, 0.4))
	assert.Empty(t, Reasons(tpl, in, 0.6))
}

func TestConfidence_MarginEvidenceAndPinned(t *testing.T) {
	m := ConfidenceModel{Kind: MarginEvidence, MarginWeight: 0.6, EvidenceWeight: 0.4, Evidence: "evidence"}
	scores := action.Scores{action.Inspection: 0.5, action.Assessment: 0.25, action.Invitation: 0.25}
	in := input(features.Vector{"evidence": 0.5}, scores)

	res := Build(Template{}, m, in)
	assert.InDelta(t, 0.6*0.25+0.4*0.5, res.Confidence, 1e-5)

	pinned := 0.9
	in.Pinned = &pinned
	assert.Equal(t, 0.9, Build(Template{}, m, in).Confidence)
}

func TestRender_DetailsAndNextSteps(t *testing.T) {
	tpl := Template{
		Labels:    map[action.Action]string{action.Invitation: "Send Invitation"},
		Details:   []ReasonRule{Reason(features.Always, "pathway partially obstructed"), Reason(features.Always, "other residents are concerned")},
		NextSteps: map[action.Action][]string{action.Invitation: {"Invite the parties.", "Document commitments."}},
	}
	in := input(features.Vector{}, action.Zero())
	in.Primary = action.Invitation
	text := Render(tpl, in, 0.8, []string{"Mediation value."})

	assert.Equal(t, strings.Join([]string{
		"Recommended action: Send Invitation (80% high confidence).",
		"Signals considered: pathway partially obstructed; other residents are concerned.",
		"Why this: Mediation value.",
		"Next steps: Invite the parties. Document commitments.",
	}, "\n\n"), text)
}

func TestBuild_RecoversFromFaultyRule(t *testing.T) {
	tpl := Template{Reasons: []ReasonRule{{{When: nil, Text: "boom"}}}}
	scores := action.Scores{action.Inspection: 1}
	res := Build(tpl, ConfidenceModel{Kind: Share}, input(features.Vector{}, scores))

	assert.True(t, res.Degraded)
	assert.Equal(t, FallbackText, res.Text)
	assert.NotEmpty(t, res.Cause)
	assert.NotNil(t, res.Reasons)
	assert.Empty(t, res.Reasons)
	assert.InDelta(t, 1.0, res.Confidence, 1e-5)
}

func TestLabel_Defaults(t *testing.T) {
	assert.Equal(t, "Out of Jurisdiction", Template{}.Label(action.OutOfJurisdiction))
	assert.Equal(t, "Inspection", Template{}.Label(action.Inspection))
}
