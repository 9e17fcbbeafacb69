package recommend

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/decision"
	"github.com/reklamap/recommender/internal/narrative"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/signals"
)

// vocabulary mixes tokens every profile reacts to with noise.
var vocabulary = []string{
	"yes", "no", "not sure", "none", "title", "deed_of_sale", "barangay", "hoa", "usad", "ngc",
	"fully blocked", "partially blocked", "fence", "store", "family", "illegally sold",
	"threat", "living", "built_structure", "hostile", "asked_to_leave", "provide_docs",
	"under investigation", "no action", "representative", "beneficiary", "claim_owner",
	"more than 6 months", "emergency", "permanent structure", "", "zzz",
}

func randomSignals(rng *rand.Rand, schema signals.Schema, fixed map[string]signals.Value) signals.SignalSet {
	m := make(map[string]signals.Value, len(schema))
	for _, fld := range schema {
		if v, ok := fixed[fld.Key]; ok {
			m[fld.Key] = v
			continue
		}
		switch fld.Kind {
		case signals.Multi:
			n := rng.Intn(4)
			items := make([]string, n)
			for i := range items {
				items[i] = vocabulary[rng.Intn(len(vocabulary))]
			}
			m[fld.Key] = signals.Many(items...)
		case signals.Text:
			m[fld.Key] = signals.One("free text " + vocabulary[rng.Intn(len(vocabulary))])
		default:
			m[fld.Key] = signals.One(vocabulary[rng.Intn(len(vocabulary))])
		}
	}
	return signals.New(m)
}

func allProfiles() []*profile.Profile {
	return []*profile.Profile{profile.Lot(), profile.Pathway(), profile.Boundary(), profile.Unauthorized()}
}

// #region scenarios

func TestLot_IllegalSaleWithoutDocuments(t *testing.T) {
	b := Run(profile.Lot(), signals.New(map[string]signals.Value{
		"q1_possession": signals.One("purchased from another"),
		"q2_nature":     signals.Many("Lot was illegally sold"),
		"q9_claim_docs": signals.One("no"),
	}))

	assert.GreaterOrEqual(t, b.Features.Get("basis_weakness"), 0.7-1e-9)
	assert.GreaterOrEqual(t, b.Features.Get("illegal_sale"), 0.7)
	top := []action.Action{b.Recommendation.Ranked[0].Action, b.Recommendation.Ranked[1].Action}
	assert.ElementsMatch(t, []action.Action{action.OutOfJurisdiction, action.Assessment}, top)
	assert.NotEqual(t, action.Invitation, b.Recommendation.Primary)
	assert.Equal(t, action.OutOfJurisdiction, b.Recommendation.Primary)
	assert.InDelta(t, 1.02, b.Scores[action.OutOfJurisdiction], 1e-9)
	assert.InDelta(t, 0.53, b.Scores[action.Assessment], 1e-9)
	assert.Empty(t, b.Overrides)
}

func TestPathway_ParkedVehicleShortCircuits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := profile.Pathway()
	for i := 0; i < 50; i++ {
		s := randomSignals(rng, p.Schema, map[string]signals.Value{"q2": signals.One("Parked vehicle (long-term)")})
		b := Run(p, s)

		assert.Equal(t, action.Scores{
			action.Inspection:        0.05,
			action.Invitation:        0.05,
			action.Assessment:        0.05,
			action.OutOfJurisdiction: 0.85,
		}, b.Scores)
		assert.Equal(t, action.OutOfJurisdiction, b.Recommendation.Primary)
		assert.Equal(t, action.Inspection, b.Recommendation.Secondary)
		assert.InDelta(t, 0.9, b.PrimaryConfidence, 1e-12)
		assert.Equal(t, narrative.High, b.ConfidenceLabel)
		assert.Equal(t, []string{"parked_vehicle"}, b.Overrides)
		assert.Equal(t, []string{"Long-term parked vehicles are generally handled by barangay/traffic authorities."}, b.Reasons)
		assert.True(t, strings.HasPrefix(b.Narrative, "Recommended action: Out of Jurisdiction (90% high confidence)."))
	}
}

func TestPathway_GovernmentEasementPinsOnEvidence(t *testing.T) {
	p := profile.Pathway()
	b := Run(p, signals.New(map[string]signals.Value{
		"q1":  signals.One("Government-declared easement / right-of-way"),
		"q4":  signals.One("Yes, fully blocked"),
		"q12": signals.One("Yes"),
	}))

	require.Equal(t, []string{"government_easement"}, b.Overrides)
	assert.InDelta(t, 0.9, b.Scores[action.OutOfJurisdiction], 1e-9)
	assert.InDelta(t, 0.1, b.Scores[action.Assessment], 1e-9)
	want := 0.85 + 0.15*b.Features.Get("evidence")
	assert.InDelta(t, want, b.PrimaryConfidence, 1e-9)
	assert.Equal(t, action.Assessment, b.Recommendation.Secondary)
	assert.Equal(t, decision.Routing{Action: "OutOfJurisdiction"}, b.Routing)
	assert.Contains(t, b.Narrative, "Signals considered:")
	assert.Contains(t, b.Narrative, "Next steps: Prepare a referral letter")
}

func TestBoundary_GovernmentProject(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := profile.Boundary()
	for i := 0; i < 50; i++ {
		b := Run(p, randomSignals(rng, p.Schema, map[string]signals.Value{"ongoing_development": signals.One("Yes")}))

		assert.Equal(t, action.Scores{
			action.Inspection:        0,
			action.Invitation:        0,
			action.Assessment:        0,
			action.OutOfJurisdiction: 1,
		}, b.Scores)
		assert.Equal(t, action.OutOfJurisdiction, b.Recommendation.Primary)
		assert.Equal(t, action.Inspection, b.Recommendation.Secondary)
		assert.False(t, b.Recommendation.Demoted)
		assert.Equal(t, []string{"government_project"}, b.Overrides)
	}
}

func TestUnauthorized_StrongDocumentsFavorAssessment(t *testing.T) {
	b := Run(profile.Unauthorized(), signals.New(map[string]signals.Value{
		"q1_legal_connection": signals.One("beneficiary"),
		"q4_activities":       signals.Many("living"),
		"q5_claim_type":       signals.One("docs"),
		"q5_docs_list":        signals.Many("title"),
		"q6_approach":         signals.One("yes"),
		"q6_approach_details": signals.One("claim_owner"),
		"q7_reported_to":      signals.Many("NGC", "USAD"),
		"q8_result":           signals.One("provide_docs"),
	}))

	assert.Equal(t, action.Assessment, b.Recommendation.Primary)
	assert.Equal(t, action.Invitation, b.Recommendation.Secondary)
	assert.Contains(t, b.Reasons, "Strong documents are claimed; assessment to validate merits.")
	assert.Contains(t, b.Reasons, "Already reported to authorities (NGC/USAD/Barangay/HOA); continue with coordinated action.")
	assert.LessOrEqual(t, len(b.Reasons), 4)
}

func TestUnauthorized_WeakJurisdictionQualifiers(t *testing.T) {
	b := Run(profile.Unauthorized(), signals.New(map[string]signals.Value{
		"q1_legal_connection": signals.One("representative"),
		"q5_claim_type":       signals.One("none"),
		"q6_approach":         signals.One("no"),
		"q7_reported_to":      signals.Many("none"),
		"q8_result":           signals.One("not_applicable"),
	}))

	assert.Equal(t, action.OutOfJurisdiction, b.Recommendation.Primary)
	assert.Contains(t, b.Reasons, "Jurisdiction may be weak (weak documentation and no prior reporting).")
}

// #endregion scenarios

// #region properties

func TestRun_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, p := range allProfiles() {
		for i := 0; i < 20; i++ {
			s := randomSignals(rng, p.Schema, nil)
			first, err := json.Marshal(Run(p, s))
			require.NoError(t, err)
			second, err := json.Marshal(Run(p, s))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		}
	}
}

func TestRun_RangeAndRanking(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, p := range allProfiles() {
		t.Run(p.Name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				b := Run(p, randomSignals(rng, p.Schema, nil))

				for name, v := range b.Features {
					assert.True(t, v >= 0 && v <= 1, "%s = %g", name, v)
				}
				for a, v := range b.Scores {
					assert.GreaterOrEqual(t, v, 0.0, "%s", a)
				}
				sum := 0.0
				for _, v := range b.Confidence {
					assert.True(t, v >= 0 && v <= 1)
					sum += v
				}
				if b.Scores.Total() >= 0.01 {
					assert.InDelta(t, 1.0, sum, 1e-3)
				}
				assert.True(t, b.PrimaryConfidence >= 0 && b.PrimaryConfidence <= 1)
				headline := fmt.Sprintf("(%d%% %s confidence)", narrative.Percent(b.PrimaryConfidence), b.ConfidenceLabel)
				assert.Contains(t, b.Narrative, headline)
				assert.Equal(t, narrative.BandOf(b.PrimaryConfidence), b.ConfidenceLabel)

				ranked := b.Recommendation.Ranked
				require.Len(t, ranked, 4)
				for j := 1; j < len(ranked); j++ {
					assert.GreaterOrEqual(t, ranked[j-1].Score, ranked[j].Score)
				}
				assert.NotEmpty(t, b.Reasons)
				assert.LessOrEqual(t, len(b.Reasons), p.Narrative.MaxReasons)
				assert.False(t, b.NarrativeDegraded)
			}
		})
	}
}

func TestRun_EmptyInput(t *testing.T) {
	for _, p := range allProfiles() {
		t.Run(p.Name, func(t *testing.T) {
			b := Run(p, signals.SignalSet{})
			assert.NotEmpty(t, b.Recommendation.Primary)
			assert.NotEmpty(t, b.Narrative)
			for _, fld := range p.Schema {
				assert.True(t, b.Signals.Has(fld.Key), "conformed key %s", fld.Key)
			}
		})
	}
}

func TestRun_DegradedNarrativeKeepsReasonsArray(t *testing.T) {
	p := profile.Lot()
	p.Narrative.Details = []narrative.ReasonRule{{{When: nil, Text: "boom"}}}

	b := Run(p, signals.SignalSet{})
	require.True(t, b.NarrativeDegraded)
	assert.Equal(t, narrative.FallbackText, b.Narrative)
	assert.NotEmpty(t, b.DegradedCause)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reasons":[]`)
}

// #endregion properties

func TestRecommender_Resolve(t *testing.T) {
	reg := profile.MustRegistry()

	r := New(reg, "")
	b, err := r.Recommend("", signals.New(map[string]signals.Value{"ongoing_development": signals.One("yes")}))
	require.NoError(t, err)
	assert.Equal(t, "boundary", b.Profile)

	_, err = r.Recommend("", signals.New(map[string]signals.Value{"unknown_key": signals.One("x")}))
	assert.ErrorIs(t, err, profile.ErrUnrecognizedSchema)

	_, err = r.Recommend("garden", signals.SignalSet{})
	assert.ErrorIs(t, err, profile.ErrUnknownProfile)

	withDefault := New(reg, "lot")
	b, err = withDefault.Recommend("", signals.SignalSet{})
	require.NoError(t, err)
	assert.Equal(t, "lot", b.Profile)
}
