package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

func TestReplay_Outcomes(t *testing.T) {
	rec := recommend.New(profile.MustRegistry(), "")
	government := signals.New(map[string]signals.Value{"ongoing_development": signals.One("Yes")})
	cases := []Case{
		{CaseID: "ok", Signals: government, Expected: FixtureExpected{Primary: action.OutOfJurisdiction}},
		{CaseID: "drift", Signals: government, Expected: FixtureExpected{Primary: action.Inspection, Overrides: []string{}}},
		{CaseID: "unknown", Signals: signals.New(map[string]signals.Value{"favourite_colour": signals.One("blue")})},
		{CaseID: "named", Profile: "garden", Signals: government},
	}

	results := Replay(rec, cases, DefaultReplayConfig())
	require.Len(t, results, 4)

	assert.Equal(t, OutcomeMatch, results[0].Outcome)
	require.NotNil(t, results[0].Bundle)
	assert.Equal(t, "boundary", results[0].Bundle.Profile)

	assert.Equal(t, OutcomeMismatch, results[1].Outcome)
	assert.Contains(t, results[1].Reason, "primary: want Inspection, got OutOfJurisdiction")
	assert.Contains(t, results[1].Reason, "overrides:")

	assert.Equal(t, OutcomeError, results[2].Outcome)
	assert.Contains(t, results[2].Reason, profile.ErrUnrecognizedSchema.Error())
	assert.Nil(t, results[2].Bundle)

	assert.Equal(t, OutcomeError, results[3].Outcome)

	s := Summarize(results)
	assert.Equal(t, ReplaySummary{
		TotalCases: 4,
		Matches:    1,
		Mismatches: 1,
		Errors:     2,
		ByPrimary:  map[string]int{"OutOfJurisdiction": 2},
		Overridden: 2,
	}, s)
}

func TestExpect_SnapshotsBundle(t *testing.T) {
	p := profile.Pathway()
	b := recommend.Run(p, signals.New(map[string]signals.Value{"q2": signals.One("parked vehicle")}))

	e := Expect(b)
	assert.Equal(t, action.OutOfJurisdiction, e.Primary)
	assert.Equal(t, action.Inspection, e.Secondary)
	assert.Equal(t, []string{"parked_vehicle"}, e.Overrides)
	assert.Empty(t, compare(e, b))
}
