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
	lotPossession = "q1_possession"
	lotNature     = "q2_nature"
	lotReason     = "q4_reason"
	lotReported   = "q5_reported"
	lotSiteResult = "q6_site_result"
	lotClaimDocs  = "q9_claim_docs"
	lotDocsList   = "q9_docs_list"
	lotReside     = "q10_reside"
)

// Lot is the lot-ownership dispute profile.
func Lot() *Profile {
	return &Profile{
		Name:  "lot",
		Title: "Lot ownership dispute",
		Schema: signals.Schema{
			{Key: lotPossession, Kind: signals.Single},
			{Key: lotNature, Kind: signals.Multi},
			{Key: lotReason, Kind: signals.Multi},
			{Key: lotReported, Kind: signals.Multi},
			{Key: lotSiteResult, Kind: signals.Multi},
			{Key: lotClaimDocs, Kind: signals.Single},
			{Key: lotDocsList, Kind: signals.Multi},
			{Key: lotReside, Kind: signals.Single},
		},
		Features:   lotFeatures(),
		Scoring:    lotScoring(),
		Policy:     lotPolicy(),
		Confidence: narrative.ConfidenceModel{Kind: narrative.Share},
		Narrative:  lotNarrative(),
		Epsilon:    1e-6,
	}
}

func lotFeatures() []f.Spec {
	return []f.Spec{
		// Opposing party's claimed documents, adjusted by whether they claim any.
		f.Define("doc_strength", f.Refine(
			f.Capped(f.PerItem(lotDocsList,
				f.Exact(1.0, "title"),
				f.Exact(0.7, "contract to sell"),
				f.Exact(0.6, "certificate of full payment"),
				f.Exact(0.4, "pre-qualification stub"),
				f.Exact(0.5, "contract/agreement"),
				f.Exact(0.6, "deed of sale"),
			), 1),
			f.FillZero(f.Equals(lotClaimDocs, "yes"), 0.3),
			f.FloorAt(f.Equals(lotClaimDocs, "not sure"), 0.2),
			f.SetTo(f.Equals(lotClaimDocs, "no"), 0),
		)),
		f.Define("family_dispute", f.Max(
			f.Select(0, f.When(f.Contains(lotNature, "family"), 0.8)),
			f.Select(0, f.When(f.Contains(lotPossession, "passed on by a family"), 0.7)),
		)),
		f.Define("record_error", f.Max(
			f.Select(0, f.When(f.Contains(lotNature, "masterlist", "details incorrect", "name removed"), 0.75)),
			f.Select(0, f.When(f.Contains(lotPossession, "relocated"), 0.4)),
		)),
		f.Define("duplicate_contract", f.Select(0,
			f.When(f.Contains(lotNature, "someone else has a contract"), 0.8))),
		f.Define("someone_claiming", f.Select(0,
			f.When(f.Contains(lotNature, "someone else is claiming", "someone else claiming"), 0.7))),
		f.Define("illegal_sale", f.Select(0,
			f.When(f.AnyOf(f.Contains(lotNature, "illegally sold"), f.Contains(lotPossession, "purchased from another")), 0.8))),
		f.Define("urgency", f.Capped(f.Blend(
			f.W(0.6, f.Indicator(f.Contains(lotReason, "vacate"))),
			f.W(0.5, f.Indicator(f.Contains(lotReason, "denied access"))),
			f.W(0.6, f.Indicator(f.Contains(lotReason, "stopped from building"))),
			f.W(0.4, f.Indicator(f.Contains(lotReason, "received notice"))),
			f.W(0.3, f.Indicator(f.Contains(lotReason, "duplicate record"))),
		), 1)),
		f.Define("occupancy_conflict", f.Select(0.1,
			f.When(f.Equals(lotReside, "yes"), 0.8),
			f.When(f.Equals(lotReside, "not sure"), 0.4),
		)),
		f.Define("reported_strength", f.Count(lotReported, 0.2, 0.6, "none")),
		f.Define("site_investigation_pending", f.Select(0,
			f.When(f.Contains(lotSiteResult, "under investigation"), 0.3))),
		f.Define("site_no_action", f.Select(0,
			f.When(f.Contains(lotSiteResult, "no action"), 0.3))),
		f.Define("basis_weakness", f.Capped(f.Sum(
			f.Blend(
				f.W(0.45, f.Indicator(f.Below("doc_strength", 0.2))),
				f.W(0.25, f.Indicator(f.Below("reported_strength", 0.2))),
				f.W(0.2, f.Indicator(f.Contains(lotReason, "clarification"))),
				f.W(0.1, f.Indicator(f.Equals(lotReside, "not sure"))),
			),
			f.Select(0, f.When(f.Contains(lotPossession, "verbal promise"), 0.25)),
		), 1)),
	}
}

func lotScoring() scoring.Table {
	return scoring.Table{
		Weights: scoring.Weights{
			action.Inspection: {
				scoring.F(0.5, "occupancy_conflict"),
				scoring.F(0.4, "urgency"),
				scoring.F(0.3, "someone_claiming"),
				scoring.F(0.2, "illegal_sale"),
				scoring.F(0.1, "duplicate_contract"),
				scoring.F(0.15, "site_investigation_pending"),
				scoring.F(0.15, "site_no_action"),
				scoring.F(0.1, "reported_strength"),
			},
			action.Invitation: {
				scoring.F(0.6, "family_dispute"),
				scoring.F(0.4, "someone_claiming"),
				scoring.Flag(0.25, f.Above("doc_strength", 0.4)),
				scoring.Flag(0.2, f.Positive("site_no_action")),
				scoring.Flag(0.15, f.Positive("duplicate_contract")),
				scoring.F(0.1, "urgency"),
			},
			action.Assessment: {
				scoring.F(0.6, "record_error"),
				scoring.F(0.5, "doc_strength"),
				scoring.F(0.35, "illegal_sale"),
				scoring.Flag(0.25, f.Above("basis_weakness", 0.3)),
				scoring.Flag(0.2, f.Positive("duplicate_contract")),
			},
			action.OutOfJurisdiction: {
				scoring.F(0.6, "basis_weakness"),
				scoring.Flag(0.25, f.Below("doc_strength", 0.2)),
				scoring.Flag(0.2, f.Below("reported_strength", 0.2)),
				scoring.Flag(0.15, f.Below("urgency", 0.2)),
			},
		},
	}
}

func lotPolicy() decision.Policy {
	p := decision.DefaultPolicy()
	p.Guard = &decision.MarginGuard{Guarded: action.OutOfJurisdiction, Threshold: 0.10, Scale: decision.Raw}
	return p
}

func lotNarrative() narrative.Template {
	return narrative.Template{
		Reasons: []narrative.ReasonRule{
			narrative.Reason(f.AtLeast("occupancy_conflict", 0.6), "Opposing party resides on the disputed lot (strong occupancy signal)."),
			narrative.Reason(f.AtLeast("urgency", 0.6), "High urgency indicators (asked to vacate / denied access / stopped from building)."),
			narrative.Reason(f.AtLeast("family_dispute", 0.6), "Family-related claim indicates mediation may be effective."),
			narrative.Reason(f.AtLeast("record_error", 0.6), "Record inconsistency detected (masterlist/name/lot details)."),
			narrative.Reason(f.AtLeast("doc_strength", 0.6), "Opposing party claims strong documents (e.g., Title/Contract to Sell)."),
			narrative.Reason(f.AtLeast("illegal_sale", 0.6), "Possible irregular transfer/illegal sale involved."),
			narrative.Reason(f.AtLeast("basis_weakness", 0.6), "Weak basis (low documents/reporting and clarification-only)."),
		},
		MaxReasons: 4,
		Fallback:   "No strong single indicator; applying best-effort fuzzy match.",
		Note:       "Note: Confidence is not maximal. Additional documents (e.g., titles, contracts) and precise event dates can improve the recommendation.",
	}
}
