package profile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/decision"
	"github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/narrative"
	"github.com/reklamap/recommender/internal/scoring"
	"github.com/reklamap/recommender/internal/signals"
)

func TestBuiltinProfilesValidate(t *testing.T) {
	for _, p := range []*Profile{Lot(), Pathway(), Boundary(), Unauthorized()} {
		t.Run(p.Name, func(t *testing.T) {
			assert.NoError(t, p.Validate())
		})
	}
}

func minimal() *Profile {
	return &Profile{
		Name:   "mini",
		Schema: signals.Schema{{Key: "q1", Kind: signals.Single}},
		Features: []features.Spec{
			features.Define("a", features.Indicator(features.Equals("q1", "yes"))),
		},
		Scoring: scoring.Table{
			Weights: scoring.Weights{action.Inspection: {scoring.F(1, "a")}},
		},
		Policy:    decision.DefaultPolicy(),
		Narrative: narrative.Template{MaxReasons: 4},
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		want   string
	}{
		{
			name:   "dangling weight feature",
			mutate: func(p *Profile) { p.Scoring.Weights[action.Assessment] = []scoring.Term{scoring.F(1, "ghost")} },
			want:   `dangling feature reference "ghost"`,
		},
		{
			name: "feature reads a later feature",
			mutate: func(p *Profile) {
				p.Features = append([]features.Spec{features.Define("b", features.Feature("a"))}, p.Features...)
			},
			want: `reads feature "a" before it is declared`,
		},
		{
			name:   "unknown signal",
			mutate: func(p *Profile) { p.Features = append(p.Features, features.Define("c", features.Indicator(features.Answered("q9")))) },
			want:   `unknown signal "q9"`,
		},
		{
			name:   "duplicate feature",
			mutate: func(p *Profile) { p.Features = append(p.Features, p.Features[0]) },
			want:   `duplicate feature "a"`,
		},
		{
			name:   "reason cap below one",
			mutate: func(p *Profile) { p.Narrative.MaxReasons = 0 },
			want:   "reason cap 0 is below 1",
		},
		{
			name: "override without condition",
			mutate: func(p *Profile) {
				p.Scoring.Overrides = []scoring.Override{{Name: "x", Delta: action.Scores{action.Inspection: 1}}}
			},
			want: "missing condition",
		},
		{
			name: "override with nothing to do",
			mutate: func(p *Profile) {
				p.Scoring.Overrides = []scoring.Override{{Name: "x", When: features.Always}}
			},
			want: "neither terminal nor delta",
		},
		{
			name:   "unknown action",
			mutate: func(p *Profile) { p.Scoring.Weights["Mediation"] = []scoring.Term{scoring.Const(1)} },
			want:   `unknown action "Mediation"`,
		},
		{
			name:   "incomplete priority",
			mutate: func(p *Profile) { p.Policy.Priority = []action.Action{action.Inspection} },
			want:   "policy:",
		},
		{
			name: "normalized guard without epsilon",
			mutate: func(p *Profile) {
				p.Policy.Guard = &decision.MarginGuard{Guarded: action.OutOfJurisdiction, Threshold: 0.1, Scale: decision.Normalized}
			},
			want: "positive epsilon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := minimal()
			require.NoError(t, p.Validate())
			tt.mutate(p)

			err := p.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, "mini", cfgErr.Profile)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"lot", "pathway", "boundary", "unauthorized"}, r.Names())

	p, err := r.Get(" Pathway ")
	require.NoError(t, err)
	assert.Equal(t, "pathway", p.Name)

	_, err = r.Get("noise")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestNewRegistry_RejectsInvalidAndDuplicates(t *testing.T) {
	bad := minimal()
	bad.Narrative.MaxReasons = 0
	_, err := NewRegistry(minimal(), minimal(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestDetect(t *testing.T) {
	r := MustRegistry()
	tests := []struct {
		name    string
		keys    []string
		want    string
		wantErr error
	}{
		{name: "lot", keys: []string{"q1_possession", "q9_claim_docs"}, want: "lot"},
		{name: "pathway", keys: []string{"q1", "q4", "q12"}, want: "pathway"},
		{name: "boundary", keys: []string{"ongoing_development", "have_docs"}, want: "boundary"},
		{name: "unauthorized", keys: []string{"q1_legal_connection", "description"}, want: "unauthorized"},
		{name: "shared key only", keys: []string{"description"}, wantErr: ErrAmbiguousSchema},
		{name: "foreign key", keys: []string{"q1_possession", "q1"}, wantErr: ErrUnrecognizedSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Detect(tt.keys)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}

func TestLotFeatures_IllegalSaleWithoutDocuments(t *testing.T) {
	p := Lot()
	s := signals.New(map[string]signals.Value{
		lotPossession: signals.One("Purchased from another person"),
		lotNature:     signals.Many("Lot was illegally sold"),
		lotClaimDocs:  signals.One("No"),
	})
	fv := features.Compute(p.Features, p.Adjustments, s)

	assert.Zero(t, fv.Get("doc_strength"))
	assert.InDelta(t, 0.8, fv.Get("illegal_sale"), 1e-9)
	assert.InDelta(t, 0.7, fv.Get("basis_weakness"), 1e-9)
	assert.InDelta(t, 0.1, fv.Get("occupancy_conflict"), 1e-9)
}

func TestUnauthorizedFeatures_SparseRepresentative(t *testing.T) {
	p := Unauthorized()
	s := signals.New(map[string]signals.Value{
		unaLegal: signals.One("representative"),
	})
	fv := features.Compute(p.Features, p.Adjustments, s)

	assert.Equal(t, 1.0, fv.Get("jurisdiction_flag"))
	assert.Equal(t, 1.0, fv.Get("explicit_weak"))
	assert.InDelta(t, 1.0/6, fv.Get("completeness"), 1e-9)
	assert.InDelta(t, 0.35, fv.Get("basis_weakness"), 1e-9, "softened from 0.5")
	assert.InDelta(t, 0.08, fv.Get("urgency"), 1e-9)
	assert.InDelta(t, 0.05, fv.Get("doc_strength"), 1e-9)
	assert.InDelta(t, 0.35, fv.Get("legal_connection_weight"), 1e-9)
}

func TestUnauthorizedFeatures_Documents(t *testing.T) {
	p := Unauthorized()
	s := signals.New(map[string]signals.Value{
		unaClaimType:   signals.One("docs"),
		unaDocsList:    signals.Many("title", "deed_of_sale"),
		unaApproachDet: signals.One("claim_owner"),
		unaReported:    signals.Many("NGC", "USAD", "Barangay", "HOA"),
		unaActivities:  signals.Many("living", "built_structure", "fenced"),
	})
	fv := features.Compute(p.Features, p.Adjustments, s)

	assert.Equal(t, 1.0, fv.Get("doc_strength"), "clamped")
	assert.Equal(t, 1.0, fv.Get("claim_strength"))
	assert.InDelta(t, 0.6, fv.Get("prior_reporting_strength"), 1e-9, "capped")
	assert.InDelta(t, 0.7, fv.Get("construction_activity"), 1e-9)
	assert.InDelta(t, 1.0, fv.Get("occupancy_intensity"), 1e-9)
	assert.InDelta(t, 0.4, fv.Get("resistance_level"), 1e-9)
	assert.Zero(t, fv.Get("explicit_weak"))
}

func TestBoundaryFeatures_OpposingTitle(t *testing.T) {
	p := Boundary()
	s := signals.New(map[string]signals.Value{
		bndHaveDocs:     signals.One("Yes"),
		bndClaimDocList: signals.Many("Title"),
		bndReported:     signals.Many("Barangay", "HOA"),
	})
	fv := features.Compute(p.Features, p.Adjustments, s)

	assert.InDelta(t, 0.8, fv.Get("opposing_doc_claim"), 1e-9)
	assert.InDelta(t, 0.7, fv.Get("doc_strength"), 1e-9)
	assert.InDelta(t, 0.5, fv.Get("reported_strength"), 1e-9)
	assert.Zero(t, fv.Get("basis_weakness"))
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, Pathway()))
	out := buf.String()
	assert.Contains(t, out, "name: pathway")
	assert.Contains(t, out, "parked_vehicle")
	assert.Contains(t, out, "kind: text")
}
