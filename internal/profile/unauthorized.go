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
	unaLegal       = "q1_legal_connection"
	unaActivities  = "q4_activities"
	unaClaimType   = "q5_claim_type"
	unaDocsList    = "q5_docs_list"
	unaApproach    = "q6_approach"
	unaApproachDet = "q6_approach_details"
	unaReported    = "q7_reported_to"
	unaResult      = "q8_result"
	unaDescription = "description"
)

// Unauthorized is the unauthorized-occupation profile.
func Unauthorized() *Profile {
	return &Profile{
		Name:  "unauthorized",
		Title: "Unauthorized occupation",
		Schema: signals.Schema{
			{Key: unaLegal, Kind: signals.Single},
			{Key: unaActivities, Kind: signals.Multi},
			{Key: unaClaimType, Kind: signals.Single},
			{Key: unaDocsList, Kind: signals.Multi},
			{Key: unaApproach, Kind: signals.Single},
			{Key: unaApproachDet, Kind: signals.Single},
			{Key: unaReported, Kind: signals.Multi},
			{Key: unaResult, Kind: signals.Single},
			{Key: unaDescription, Kind: signals.Text},
		},
		Features:    unauthorizedFeatures(),
		Adjustments: unauthorizedAdjustments(),
		Scoring:     unauthorizedScoring(),
		Policy:      unauthorizedPolicy(),
		Confidence:  narrative.ConfidenceModel{Kind: narrative.Share},
		Narrative:   unauthorizedNarrative(),
		Epsilon:     1e-6,
	}
}

var unaSparse = f.Below("completeness", 0.34)

func unauthorizedFeatures() []f.Spec {
	return []f.Spec{
		f.Define("doc_strength", f.Refine(
			f.PerItem(unaDocsList,
				f.Exact(1.0, "title"),
				f.Exact(0.7, "contract_to_sell"),
				f.Exact(0.6, "certificate_full_payment"),
				f.Exact(0.4, "qualification_stub"),
				f.Exact(0.5, "contract_agreement"),
				f.Exact(0.6, "deed_of_sale"),
			),
			f.FillZero(f.Equals(unaClaimType, "docs"), 0.3),
			f.FloorAt(f.Equals(unaClaimType, "verbal"), 0.3),
			f.FloorAt(f.Equals(unaClaimType, "unknown"), 0.15),
			f.SetTo(f.Equals(unaClaimType, "none"), 0),
		)),
		f.Define("occupancy_intensity", f.PerItem(unaActivities,
			f.Exact(0.4, "living"),
			f.Exact(0.35, "built_structure"),
			f.Exact(0.3, "fenced"),
			f.Exact(0.25, "utilities"),
			f.Exact(0.15, "storing"),
			f.Exact(0.35, "renting"),
		)),
		f.Define("construction_activity", f.Select(0,
			f.When(f.Equals(unaActivities, "built_structure"), 0.7),
			f.When(f.Equals(unaActivities, "fenced"), 0.6),
			f.When(f.Equals(unaActivities, "utilities"), 0.5),
		)),
		f.Define("claim_strength", f.Refine(f.Feature("doc_strength"),
			f.AddWhen(f.Contains(unaApproachDet, "claim_owner"), 0.2),
			f.FloorAt(f.Equals(unaClaimType, "verbal"), 0.3),
		)),
		f.Define("resistance_level", f.Select(0,
			f.When(f.Equals(unaApproachDet, "hostile"), 0.6),
			f.When(f.Equals(unaApproachDet, "refused_leave"), 0.5),
			f.When(f.Equals(unaApproachDet, "claim_owner"), 0.4),
			f.When(f.Equals(unaApproachDet, "ignored"), 0.3),
			f.When(f.Equals(unaApproachDet, "no_docs"), 0.15),
		)),
		f.Define("engagement_attempted", f.Indicator(f.Equals(unaApproach, "yes"))),
		// NGC outranks USAD, which outranks the barangay and HOA.
		f.Define("prior_reporting_strength", f.Capped(f.PerItem(unaReported,
			f.Exact(0.25, "ngc"),
			f.Exact(0.2, "usad"),
			f.Exact(0.15, "barangay", "hoa"),
		), 0.6)),
		f.Define("action_progress", f.Select(0,
			f.When(f.Equals(unaResult, "asked_to_leave"), 0.6),
			f.When(f.Equals(unaResult, "provide_docs"), 0.5),
			f.When(f.Equals(unaResult, "investigation"), 0.4),
			f.When(f.Equals(unaResult, "pending"), 0.3),
			f.When(f.Equals(unaResult, "no_action"), 0.2),
			f.When(f.Equals(unaResult, "no_valid_claim"), 0.15),
			f.When(f.Equals(unaResult, "not_applicable"), 0.1),
		)),
		f.Define("legal_connection_weight", f.Select(0.3,
			f.When(f.Equals(unaLegal, "beneficiary"), 0.6),
			f.When(f.Equals(unaLegal, "heir"), 0.55),
			f.When(f.Equals(unaLegal, "purchaser"), 0.5),
			f.When(f.Equals(unaLegal, "hoa_officer"), 0.4),
			f.When(f.Equals(unaLegal, "lessee", "representative"), 0.35),
		)),
		f.Define("jurisdiction_flag", f.Indicator(f.All(
			f.Equals(unaLegal, "representative", "lessee"),
			f.Below("doc_strength", 0.2),
			f.IsZero("prior_reporting_strength"),
			f.Below("occupancy_intensity", 0.25),
		))),
		f.Define("urgency", f.Blend(
			f.W(0.5, f.Feature("occupancy_intensity")),
			f.W(0.3, f.Feature("resistance_level")),
			f.W(0.2, f.Indicator(f.Equals(unaResult, "investigation", "pending", "no_action"))),
		)),
		f.Define("basis_weakness", f.Blend(
			f.W(0.3, f.Indicator(f.Below("doc_strength", 0.2))),
			f.W(0.2, f.Indicator(f.Below("prior_reporting_strength", 0.2))),
			f.W(0.2, f.Indicator(f.Equals(unaClaimType, "none", "unknown"))),
			f.W(0.05, f.Indicator(f.Equals(unaApproach, "no"))),
			f.W(0.05, f.Indicator(f.Contains(unaApproachDet, "not_residing", "dont_know"))),
			f.W(0.1, f.Indicator(f.Equals(unaResult, "not_applicable", "no_valid_claim"))),
		)),
		// Share of the six core questions that carry an answer.
		f.Define("completeness", f.Coverage(
			f.Answered(unaLegal),
			f.Answered(unaActivities),
			f.Answered(unaClaimType),
			f.AnsweredExcept(unaReported, "none"),
			f.Answered(unaResult),
			f.Answered(unaApproach),
		)),
		f.Define("explicit_weak", f.Indicator(f.AnyOf(
			f.Equals(unaReported, "none"),
			f.Equals(unaResult, "no_valid_claim", "not_applicable"),
			f.Equals(unaClaimType, "none", "unknown"),
			f.Positive("jurisdiction_flag"),
		))),
	}
}

// Sparse answers soften the weakness and lift the neutral baselines.
func unauthorizedAdjustments() []f.Adjustment {
	return []f.Adjustment{
		f.Adjust("basis_weakness", f.ScaleWhen(unaSparse, 0.7)),
		f.Adjust("urgency", f.FloorAt(unaSparse, 0.08)),
		f.Adjust("doc_strength", f.FloorAt(unaSparse, 0.05)),
	}
}

func unauthorizedScoring() scoring.Table {
	asksForDocs := f.All(f.AtLeast("action_progress", 0.5), f.Below("action_progress", 0.6))
	return scoring.Table{
		Weights: scoring.Weights{
			action.Inspection: {
				scoring.F(0.4, "urgency"),
				scoring.F(0.25, "construction_activity"),
				scoring.F(0.2, "resistance_level"),
				scoring.F(0.2, "occupancy_intensity"),
				scoring.Flag(0.1, f.Below("prior_reporting_strength", 0.2)),
				scoring.Flag(0.1, f.All(f.AtLeast("action_progress", 0.2), f.AtMost("action_progress", 0.4))),
				scoring.F(0.05, "legal_connection_weight"),
			},
			action.Invitation: {
				scoring.F(0.4, "claim_strength"),
				scoring.F(0.35, "resistance_level"),
				scoring.Flag(0.25, f.Above("prior_reporting_strength", 0.2)),
				scoring.Flag(0.2, f.AtLeast("action_progress", 0.6)),
				scoring.Flag(0.15, f.Positive("engagement_attempted")),
			},
			action.Assessment: {
				scoring.F(0.5, "doc_strength"),
				scoring.F(0.3, "claim_strength"),
				scoring.F(0.25, "prior_reporting_strength"),
				scoring.Flag(0.25, asksForDocs),
				scoring.F(0.2, "legal_connection_weight"),
				scoring.Flag(0.15, f.All(f.Above("basis_weakness", 0.3), f.Below("basis_weakness", 0.6))),
			},
			action.OutOfJurisdiction: {
				scoring.F(0.5, "basis_weakness"),
				scoring.Flag(0.25, f.Below("doc_strength", 0.2)),
				scoring.Flag(0.2, f.IsZero("prior_reporting_strength")),
				scoring.Flag(0.15, f.Positive("jurisdiction_flag")),
			},
		},
		Adjustments: []scoring.Adjustment{
			{Action: action.Assessment, Step: f.AddWhen(f.All(f.Below("doc_strength", 0.2), f.Not(asksForDocs)), -0.12)},
			{Action: action.OutOfJurisdiction, Step: f.ScaleWhen(f.IsZero("explicit_weak"), 0.6)},
			{Action: action.OutOfJurisdiction, Step: f.ScaleWhen(unaSparse, 0.7)},
		},
	}
}

func unauthorizedPolicy() decision.Policy {
	p := decision.DefaultPolicy()
	p.Guard = &decision.MarginGuard{Guarded: action.OutOfJurisdiction, Threshold: 0.10, Scale: decision.Raw}
	return p
}

func unauthorizedNarrative() narrative.Template {
	return narrative.Template{
		Reasons: []narrative.ReasonRule{
			narrative.OneOf(
				narrative.Case(f.AtLeast("occupancy_intensity", 0.6), "Clear on-site presence (living/structure/fence/utilities); needs official action."),
				narrative.Case(f.AtLeast("occupancy_intensity", 0.3), "Some signs of occupancy; verify condition on the ground."),
			),
			narrative.Reason(f.AtLeast("construction_activity", 0.5), "Construction or enclosure observed; prioritize prompt inspection."),
			narrative.Reason(f.AtLeast("resistance_level", 0.5), "Direct approach met resistance; mediation/coordination is appropriate."),
			narrative.Reason(f.Positive("engagement_attempted"), "You already tried to resolve it directly; take the next formal step."),
			narrative.OneOf(
				narrative.Case(f.AtLeast("doc_strength", 0.6), "Strong documents are claimed; assessment to validate merits."),
				narrative.Case(f.Above("doc_strength", 0.2), "Some documents are claimed; further review is needed."),
				narrative.Case(f.Always, "Little to no documentation presented; start with verification on site."),
			),
			narrative.OneOf(
				narrative.Case(f.AtLeast("prior_reporting_strength", 0.4), "Already reported to authorities (NGC/USAD/Barangay/HOA); continue with coordinated action."),
				narrative.Case(f.IsZero("prior_reporting_strength"), "Not yet reported to any authority; initiate formal steps."),
			),
			narrative.OneOf(
				narrative.Case(f.AtLeast("action_progress", 0.6), "Authority has asked the occupant to leave; proceed to mediation."),
				narrative.Case(f.AtLeast("action_progress", 0.3), "Matter is already in process (investigation/pending); keep momentum with inspection."),
			),
			{{
				When: f.AnyOf(f.Positive("jurisdiction_flag"), f.Positive("explicit_weak")),
				Text: "Jurisdiction may be weak (%s).",
				Qualifiers: []narrative.Qualifier{
					{When: f.Below("doc_strength", 0.2), Text: "weak documentation"},
					{When: f.IsZero("prior_reporting_strength"), Text: "no prior reporting"},
				},
				Otherwise: "multiple indicators",
			}},
			narrative.Reason(f.AtLeast("basis_weakness", 0.6), "Basis appears weak (low evidence and uncertain claims); verify before escalation."),
			narrative.Reason(unaSparse, "Only a few questions were answered; this is a preliminary suggestion."),
		},
		MaxReasons: 4,
		Fallback:   "Mixed indicators (some occupancy but limited evidence); recommending the safest next step.",
		Note:       "Note: Evidence is moderate; stronger documents and/or additional reporting can improve confidence.",
	}
}
