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
	bndNature       = "nature_of_issue"
	bndDuration     = "duration"
	bndStructure    = "structure_status"
	bndNotice       = "notice"
	bndConfronted   = "confronted"
	bndEffects      = "dispute_effects"
	bndReported     = "reported_to"
	bndInspection   = "site_inspection"
	bndSiteResult   = "site_result"
	bndHaveDocs     = "have_docs"
	bndDevelopment  = "ongoing_development"
	bndReside       = "persons_reside"
	bndClaimDocs    = "persons_claim_docs"
	bndClaimDocList = "persons_claim_docs_list"
)

// Boundary is the boundary-encroachment dispute profile.
func Boundary() *Profile {
	return &Profile{
		Name:  "boundary",
		Title: "Boundary encroachment dispute",
		Schema: signals.Schema{
			{Key: bndNature, Kind: signals.Multi},
			{Key: bndDuration, Kind: signals.Single},
			{Key: bndStructure, Kind: signals.Single},
			{Key: bndNotice, Kind: signals.Single},
			{Key: bndConfronted, Kind: signals.Single},
			{Key: bndEffects, Kind: signals.Multi},
			{Key: bndReported, Kind: signals.Multi},
			{Key: bndInspection, Kind: signals.Single},
			{Key: bndSiteResult, Kind: signals.Multi},
			{Key: bndHaveDocs, Kind: signals.Single},
			{Key: bndDevelopment, Kind: signals.Single},
			{Key: bndReside, Kind: signals.Single},
			{Key: bndClaimDocs, Kind: signals.Single},
			{Key: bndClaimDocList, Kind: signals.Multi},
		},
		Features:   boundaryFeatures(),
		Scoring:    boundaryScoring(),
		Policy:     boundaryPolicy(),
		Confidence: narrative.ConfidenceModel{Kind: narrative.Share},
		Narrative:  boundaryNarrative(),
		Epsilon:    1e-9,
	}
}

func boundaryFeatures() []f.Spec {
	inspected := f.Contains(bndInspection, "yes")
	return []f.Spec{
		f.Define("opposing_doc_claim", f.Select(0, f.When(f.Equals(bndClaimDocList, "title"), 0.8))),
		// An opposing title claim weakens the complainant's own documents.
		f.Define("doc_strength", f.Sum(
			f.Select(0, f.When(f.Contains(bndHaveDocs, "yes"), 1)),
			f.Select(0, f.When(f.Positive("opposing_doc_claim"), -0.3)),
		)),
		f.Define("physical_encroachment", f.Max(
			f.Select(0, f.When(f.Contains(bndNature, "structure", "fence", "encroach"), 1)),
			f.Select(0, f.When(f.Contains(bndStructure, "ongoing", "partially"), 0.8)),
		)),
		f.Define("urgent_effects", f.Select(0,
			f.When(f.Contains(bndEffects, "threat", "harass", "physical", "demolition", "damage"), 1))),
		f.Define("residency_conflict", f.Select(0,
			f.When(f.Equals(bndReside, "yes"), 1),
			f.When(f.Equals(bndReside, "not sure"), 0.5),
		)),
		f.Define("reported_strength", f.Count(bndReported, 0.25, 1)),
		f.Define("site_action_taken", f.Max(
			f.Select(0, f.When(f.All(inspected, f.Contains(bndSiteResult, "advised", "adjust", "asked to provide")), 0.8)),
			f.Select(0, f.When(f.All(inspected, f.Contains(bndSiteResult, "still under", "investigation")), 0.4)),
			f.Select(0, f.When(f.All(inspected, f.Contains(bndSiteResult, "no action", "no valid")), 0.1)),
		)),
		f.Define("family_dispute", f.Select(0, f.When(f.Contains(bndNature, "family"), 0.8))),
		// Low documents here means the complainant holds none at all,
		// before any opposing claim is taken into account.
		f.Define("basis_weakness", f.Capped(f.Blend(
			f.W(0.5, f.Indicator(f.Not(f.Contains(bndHaveDocs, "yes")))),
			f.W(0.3, f.Indicator(f.Below("reported_strength", 0.2))),
			f.W(0.2, f.Indicator(f.Contains(bndNature, "clarification", "not sure"))),
		), 1)),
	}
}

func boundaryScoring() scoring.Table {
	inspected := f.Contains(bndInspection, "yes")
	referredToUSAD := f.Contains(bndReported, "usad", "phaselad")
	toReferral := scoring.Fixed(action.Scores{action.OutOfJurisdiction: 1})
	return scoring.Table{
		Overrides: []scoring.Override{
			{Name: "government_project", When: f.Contains(bndDevelopment, "yes"), Terminal: toReferral},
			{
				Name:     "utility_reported_to_barangay",
				When:     f.All(f.Contains(bndEffects, "utility", "water", "drainage", "electric"), f.Contains(bndReported, "barangay")),
				Terminal: toReferral,
			},
			{
				Name:  "structure_removed",
				When:  f.Contains(bndStructure, "removed"),
				Delta: action.Scores{action.Invitation: 0.7, action.Assessment: 0.4},
			},
			{
				Name:  "documents_without_inspection",
				When:  f.All(f.Contains(bndHaveDocs, "yes"), f.Answered(bndInspection), f.Not(inspected)),
				Delta: action.Scores{action.Inspection: 0.6},
			},
			{
				Name:  "usad_inspected",
				When:  f.All(referredToUSAD, inspected),
				Delta: action.Scores{action.Assessment: 0.6},
			},
			{
				Name:  "usad_not_inspected",
				When:  f.All(referredToUSAD, f.Not(inspected)),
				Delta: action.Scores{action.Inspection: 0.6},
			},
			{
				Name: "local_inspection_pending",
				When: f.All(
					inspected,
					f.Contains(bndSiteResult, "still under"),
					f.Contains(bndReported, "hoa", "barangay"),
					f.Not(f.Contains(bndReported, "usad")),
				),
				Delta: action.Scores{action.Inspection: 0.5},
			},
			{
				Name:  "urgent_with_documents",
				When:  f.All(f.AtLeast("urgent_effects", 0.6), f.AtLeast("doc_strength", 0.5)),
				Delta: action.Scores{action.Invitation: 0.45, action.Assessment: 0.5},
			},
			{
				Name:  "opposing_claim_in_residence",
				When:  f.All(f.AtLeast("opposing_doc_claim", 0.6), f.AtLeast("residency_conflict", 0.6)),
				Delta: action.Scores{action.Inspection: 0.5},
			},
		},
		Weights: scoring.Weights{
			action.Inspection: {
				scoring.F(0.5, "physical_encroachment"),
				scoring.F(0.4, "residency_conflict"),
				scoring.F(0.3, "urgent_effects"),
				scoring.F(0.2, "reported_strength"),
				scoring.F(0.15, "site_action_taken"),
			},
			action.Invitation: {
				scoring.F(0.6, "family_dispute"),
				scoring.Inv(0.35, "doc_strength"),
				scoring.Flag(0.125, f.Below("urgent_effects", 0.4)),
				scoring.F(0.15, "reported_strength"),
			},
			action.Assessment: {
				scoring.Inv(0.6, "doc_strength"),
				scoring.F(0.5, "opposing_doc_claim"),
				scoring.F(0.35, "site_action_taken"),
				scoring.F(0.2, "reported_strength"),
			},
			action.OutOfJurisdiction: {
				scoring.F(0.7, "basis_weakness"),
				scoring.Inv(0.25, "physical_encroachment"),
				scoring.Inv(0.2, "residency_conflict"),
			},
		},
	}
}

func boundaryPolicy() decision.Policy {
	p := decision.DefaultPolicy()
	p.Guard = &decision.MarginGuard{Guarded: action.OutOfJurisdiction, Threshold: 0.12, Scale: decision.Raw}
	return p
}

func boundaryNarrative() narrative.Template {
	return narrative.Template{
		Reasons: []narrative.ReasonRule{
			narrative.Reason(f.AtLeast("physical_encroachment", 0.6), "Built structure/fence encroachment detected; field inspection recommended."),
			narrative.Reason(f.AtLeast("residency_conflict", 0.6), "Opposing party resides on the disputed area; inspection or mediation may be needed."),
			narrative.Reason(f.AtLeast("urgent_effects", 0.6), "Violent or damaging incidents reported; prioritize inspection and protective measures."),
			narrative.Reason(f.AtLeast("family_dispute", 0.6), "Family-related dispute; mediation (invitation) may resolve the issue."),
			narrative.Reason(f.AtLeast("doc_strength", 0.6), "Complainant has supporting documents (titles/contracts)."),
			narrative.Reason(f.AtLeast("opposing_doc_claim", 0.6), "Opposing party claims ownership documents; consider assessment for verification."),
			narrative.Reason(f.AtLeast("basis_weakness", 0.6), "Weak basis detected (few/unclear documents and low reporting); may be Out of Jurisdiction."),
		},
		MaxReasons: 4,
		Fallback:   "Signals are mixed; apply standard assessment and consider further fact-finding.",
		Note:       "Note: Confidence is not maximal. Additional documents (titles, contracts) and precise event dates can improve the recommendation.",
	}
}
