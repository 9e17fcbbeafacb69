package profile

import (
	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/decision"
	f "github.com/reklamap/recommender/internal/features"
	"github.com/reklamap/recommender/internal/narrative"
	"github.com/reklamap/recommender/internal/scoring"
	"github.com/reklamap/recommender/internal/signals"
)

const (
	pathType        = "q1"
	pathNature      = "q2"
	pathDuration    = "q3"
	pathPresent     = "q4"
	pathImpacts     = "q5"
	pathOthers      = "q6"
	pathInformed    = "q7"
	pathIssues      = "q8"
	pathReported    = "q9"
	pathInspectedBy = "q10"
	pathResult      = "q11"
	pathDevelopment = "q12"
	pathDescription = "description"
)

// Pathway is the right-of-way / pathway obstruction profile.
func Pathway() *Profile {
	return &Profile{
		Name:  "pathway",
		Title: "Right-of-way / pathway dispute",
		Schema: signals.Schema{
			{Key: pathType, Kind: signals.Single},
			{Key: pathNature, Kind: signals.Single},
			{Key: pathDuration, Kind: signals.Single},
			{Key: pathPresent, Kind: signals.Single},
			{Key: pathImpacts, Kind: signals.Multi},
			{Key: pathOthers, Kind: signals.Single},
			{Key: pathInformed, Kind: signals.Single},
			{Key: pathIssues, Kind: signals.Multi},
			{Key: pathReported, Kind: signals.Multi},
			{Key: pathInspectedBy, Kind: signals.Single},
			{Key: pathResult, Kind: signals.Multi},
			{Key: pathDevelopment, Kind: signals.Single},
			{Key: pathDescription, Kind: signals.Text},
		},
		Features: pathwayFeatures(),
		Scoring:  pathwayScoring(),
		Policy:   decision.DefaultPolicy(),
		Confidence: narrative.ConfidenceModel{
			Kind:           narrative.MarginEvidence,
			MarginWeight:   0.6,
			EvidenceWeight: 0.4,
			Evidence:       "evidence",
		},
		Narrative: pathwayNarrative(),
		Epsilon:   1e-6,
	}
}

var pathwayChoiceKeys = []string{
	pathType, pathNature, pathDuration, pathPresent, pathImpacts, pathOthers,
	pathInformed, pathIssues, pathReported, pathInspectedBy, pathResult, pathDevelopment,
}

func pathwayFeatures() []f.Spec {
	specs := []f.Spec{
		f.Define("urgency", f.Select(0.2,
			f.When(f.Not(f.Answered(pathPresent)), 0),
			f.When(f.Contains(pathPresent, "fully"), 1.0),
			f.When(f.Contains(pathPresent, "partial"), 0.65),
			f.When(f.Contains(pathPresent, "removed"), 0.25),
			f.When(f.Equals(pathPresent, "no"), 0),
		)),
		f.Define("severity", f.Select(0.4,
			f.When(f.Not(f.Answered(pathNature)), 0),
			f.When(f.Contains(pathNature, "permanent"), 0.9),
			f.When(f.Contains(pathNature, "fence", "gate"), 0.8),
			f.When(f.Contains(pathNature, "store", "business"), 0.75),
			f.When(f.Contains(pathNature, "vehicle", "parked"), 0.5),
			f.When(f.Contains(pathNature, "construction", "debris", "materials"), 0.45),
			f.When(f.Contains(pathNature, "temporary", "chairs", "tables", "stalls"), 0.4),
		)),
		f.Define("duration", f.Select(0.3,
			f.When(f.Not(f.Answered(pathDuration)), 0.2),
			f.When(f.Contains(pathDuration, "more than 6"), 0.8),
			f.When(f.Contains(pathDuration, "1-6"), 0.55),
			f.When(f.Contains(pathDuration, "less than 1"), 0.35),
			f.When(f.Contains(pathDuration, "not sure"), 0.25),
		)),
		f.Define("impact", f.PerItem(pathImpacts,
			f.Containing(0.4, "cannot pass"),
			f.Containing(0.4, "emergency"),
			f.Containing(0.3, "unsafe", "narrow"),
			f.Containing(0.3, "children", "elderly", "pwd"),
			f.Containing(0.25, "forced to walk"),
		)),
		f.Define("social_concern", f.Sum(
			f.Select(0, f.When(f.Equals(pathOthers, "yes"), 0.5)),
			f.Select(0.15,
				f.When(f.Not(f.Answered(pathInformed)), 0),
				f.When(f.Contains(pathInformed, "barangay"), 0.4),
				f.When(f.Contains(pathInformed, "by me"), 0.25),
				f.When(f.Equals(pathInformed, "no"), 0),
			),
		)),
		f.Define("public_sidewalk", f.Indicator(f.Contains(pathType, "public sidewalk", "pedestrian"))),
		f.Define("gov_easement", f.Indicator(f.Contains(pathType, "government-declared", "right-of-way", "right of way"))),
		f.Define("utilities_path", f.Indicator(f.Contains(pathType, "utilities", "water lines", "drainage"))),
		f.Define("external_agency", f.Indicator(f.AnyOf(
			f.Equals(pathReported, "ngc", "usad - phaseland", "usad - phaselad", "usad"),
			f.Contains(pathInspectedBy, "ngc", "usad"),
		))),
		f.Define("local_authority", f.Indicator(f.Equals(pathReported, "barangay", "hoa"))),
		f.Define("local_inspection", f.Indicator(f.Contains(pathInspectedBy, "barangay", "hoa"))),
		f.Define("provide_docs", f.Indicator(f.Contains(pathResult, "provide more documents"))),
		f.Define("under_investigation", f.Indicator(f.Contains(pathResult, "under investigation"))),
		f.Define("no_action", f.Indicator(f.Contains(pathResult, "no action"))),
	}
	return append(specs, f.Define("evidence", pathwayEvidence()))
}

// pathwayEvidence rates how complete and decisive the answers are:
// answered share, minus per-question penalties for "not sure"/"not
// applicable" and "none", plus a bonus from the core signals.
func pathwayEvidence() f.Membership {
	answered := make([]f.Condition, len(pathwayChoiceKeys))
	parts := []f.Weighted{}
	for i, k := range pathwayChoiceKeys {
		answered[i] = f.Answered(k)
		parts = append(parts,
			f.W(-0.05, f.Indicator(f.Contains(k, "not applicable", "not sure"))),
			f.W(-0.08, f.Indicator(f.Contains(k, "none"))),
		)
	}
	parts = append(parts,
		f.W(1, f.Coverage(answered...)),
		f.W(0.2, f.Feature("urgency")),
		f.W(0.12, f.Feature("severity")),
		f.W(0.12, f.Feature("impact")),
	)
	return f.Blend(parts...)
}

func pathwayScoring() scoring.Table {
	return scoring.Table{
		Overrides: []scoring.Override{
			{
				Name:       "parked_vehicle",
				When:       f.Contains(pathNature, "vehicle", "parked"),
				Terminal:   scoring.Fixed(action.Scores{action.Inspection: 0.05, action.Invitation: 0.05, action.Assessment: 0.05, action.OutOfJurisdiction: 0.85}),
				Confidence: &scoring.Pin{Base: 0.9},
				Reasons:    []string{"Long-term parked vehicles are generally handled by barangay/traffic authorities."},
			},
			{
				Name: "government_easement",
				When: f.AnyOf(f.Contains(pathDevelopment, "yes"), f.Positive("gov_easement")),
				Terminal: scoring.Weights{
					action.Inspection:        {scoring.Const(0.05)},
					action.Invitation:        {scoring.Const(0.05)},
					action.Assessment:        {scoring.Const(0.1)},
					action.OutOfJurisdiction: {scoring.Const(0.8), scoring.F(0.1, "gov_easement"), scoring.F(0.05, "external_agency")},
				},
				Confidence: &scoring.Pin{Base: 0.85, Gain: 0.15, Feature: "evidence"},
				Reasons:    []string{"Government easement or ongoing development indicates external jurisdiction."},
			},
			{
				Name:       "obstruction_removed",
				When:       f.AnyOf(f.Contains(pathPresent, "removed"), f.Equals(pathPresent, "no")),
				Terminal:   scoring.Fixed(action.Scores{action.Inspection: 0.1, action.Invitation: 0.15, action.Assessment: 0.7, action.OutOfJurisdiction: 0.05}),
				Confidence: &scoring.Pin{Base: 0.8, Gain: 0.15, Feature: "evidence"},
				Reasons:    []string{"Obstruction reported removed; verify status and documents through assessment."},
			},
		},
		Weights: scoring.Weights{
			action.Inspection: {
				scoring.F(0.4, "urgency"),
				scoring.F(0.25, "severity"),
				scoring.F(0.25, "impact"),
				scoring.F(0.15, "duration"),
				scoring.Flag(0.08, f.AnyOf(f.Positive("public_sidewalk"), f.Positive("utilities_path"))),
				scoring.F(0.08, "no_action"),
				scoring.F(0.04, "under_investigation"),
				scoring.F(-0.12, "local_inspection"),
			},
			action.Invitation: {
				scoring.F(0.5, "social_concern"),
				scoring.Flag(0.2, f.Contains(pathPresent, "partial")),
				scoring.Flag(0.2, f.Contains(pathNature, "fence", "gate", "store", "business")),
				scoring.F(0.08, "local_authority"),
				scoring.Flag(0.12, f.Contains(pathIssues, "threats", "harassment", "altercation", "damage")),
			},
			action.Assessment: {
				scoring.Flag(0.18, f.AnyOf(
					f.Contains(pathDuration, "not sure"),
					f.Contains(pathPresent, "not sure"),
					f.Contains(pathOthers, "not sure"),
					f.Contains(pathInformed, "not sure"),
				)),
				scoring.F(0.3, "provide_docs"),
				scoring.F(0.12, "local_inspection"),
				scoring.F(0.08, "utilities_path"),
			},
			action.OutOfJurisdiction: {
				scoring.F(0.35, "external_agency"),
				scoring.F(0.1, "public_sidewalk"),
				scoring.F(0.2, "gov_easement"),
			},
		},
		Ceiling: true,
	}
}

func pathwayNarrative() narrative.Template {
	return narrative.Template{
		Labels: map[action.Action]string{action.Invitation: "Send Invitation"},
		Reasons: []narrative.ReasonRule{
			narrative.OneOf(
				narrative.Case(f.AtLeast("urgency", 0.8), "Pathway is currently fully blocked (high urgency)."),
				narrative.Case(f.AtLeast("urgency", 0.6), "Pathway is partially blocked (moderate urgency)."),
			),
			narrative.Reason(f.AtLeast("severity", 0.75), "Encroachment is severe (e.g., permanent structure, fence, gate, or store)."),
			narrative.Reason(f.AtLeast("impact", 0.5), "Significant impact on mobility or safety was reported."),
			narrative.Reason(f.AtLeast("social_concern", 0.5), "Multiple residents or barangay involvement suggests mediation value."),
			narrative.Reason(f.Positive("provide_docs"), "Authorities requested more documents; assessment recommended."),
			narrative.Reason(f.Positive("utilities_path"), "Pathway is used for utilities; verification/assessment may be necessary."),
			narrative.Reason(f.Positive("external_agency"), "External agencies (NGC/USAD) are involved."),
			narrative.Reason(f.Positive("public_sidewalk"), "Public sidewalk involvement may require barangay action."),
		},
		LowConfidence: &narrative.LowConfidence{Below: 0.5, Reason: "Signals are mixed; consider collecting more evidence."},
		MaxReasons:    4,
		Fallback:      "Signals are mixed; additional details may improve accuracy.",
		Note:          "Note: Confidence is not maximal. Additional photos, specific dates, and any received notices can improve the recommendation.",
		Details: []narrative.ReasonRule{
			narrative.OneOf(
				narrative.Case(f.Contains(pathPresent, "fully"), "pathway reportedly fully blocked"),
				narrative.Case(f.Contains(pathPresent, "partial"), "pathway partially obstructed"),
			),
			narrative.Reason(f.Contains(pathNature, "fence", "gate", "store", "business"), "encroachment involves a structure (e.g., fence/gate/store)"),
			narrative.Reason(f.Equals(pathOthers, "yes"), "other residents are concerned"),
			narrative.Reason(f.Contains(pathInformed, "barangay", "hoa"), "matter already raised to local authorities"),
			narrative.Reason(f.Contains(pathType, "government"), "possible government-declared easement/right-of-way"),
			narrative.Reason(f.Contains(pathDevelopment, "yes"), "ongoing development in the area"),
			narrative.Reason(f.Answered(pathDescription), "complaint description provided"),
		},
		NextSteps: map[action.Action][]string{
			action.Inspection: {
				"Schedule a site visit within 3-5 days.",
				"Capture photos/videos and exact location.",
				"Coordinate with barangay/HOA as needed.",
			},
			action.Invitation: {
				"Invite involved parties to an on-site meeting.",
				"Agree on interim access (e.g., partial clearance).",
				"Document commitments and a follow-up window.",
			},
			action.Assessment: {
				"Request supporting documents (permits, plans, IDs).",
				"Check easement/right-of-way policies for applicability.",
				"Decide whether to escalate to inspection or mediation.",
			},
			action.OutOfJurisdiction: {
				"Prepare a referral letter to the proper authority (e.g., NGC/USAD/Barangay).",
				"Inform complainant about scope and expected timeline.",
				"Attach any collected evidence for continuity.",
			},
		},
	}
}
