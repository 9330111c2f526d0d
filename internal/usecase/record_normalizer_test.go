package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

func newTestNormalizer(t *testing.T) *RecordNormalizer {
	t.Helper()

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	normalizer, err := NewRecordNormalizer(mustAliases(t), RecordNormalizerConfig{
		Competition:     "Premier League",
		Season:          "2025-26",
		MaxMatchweek:    38,
		KickoffLocation: london,
	}, logging.NewNop())
	require.NoError(t, err)
	return normalizer
}

func TestRecordNormalizer_CanonicalizesRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	batch := newTestNormalizer(t).Normalize(t.Context(), source.Result{
		SourceID: "footballdata",
		Priority: 2,
		Records: []source.RawMatchRecord{{
			SourceID:  "footballdata",
			HomeTeam:  "Man Utd",
			AwayTeam:  "Man City",
			Kickoff:   "02/11/2025 16:30",
			ScoreText: "2 – 1",
			Round:     "Matchweek 10",
		}},
	}, now)

	require.Empty(t, batch.Rejected)
	require.Len(t, batch.Fixtures, 1)
	got := batch.Fixtures[0]
	require.Equal(t, "manchester-united-manchester-city-2025-11-02", got.ID)
	require.Equal(t, time.Date(2025, 11, 2, 16, 30, 0, 0, time.UTC), got.KickoffAt)
	require.Equal(t, fixture.StatusFinished, got.Status)
	require.Equal(t, 2, *got.HomeScore)
	require.Equal(t, 1, *got.AwayScore)
	require.Equal(t, 10, got.Matchweek)
	require.Equal(t, fixture.MatchweekExplicit, got.MatchweekOrigin)
	require.True(t, got.IsDerby)
	require.Equal(t, "Premier League", got.Competition)
	require.Equal(t, 2, got.SourcePriority)
}

func TestRecordNormalizer_FlagsUnmappedNamesButKeepsRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	batch := newTestNormalizer(t).Normalize(t.Context(), source.Result{
		SourceID: "fixturepage",
		Records: []source.RawMatchRecord{{
			HomeTeam: "Arsenal",
			AwayTeam: "  Real   Oviedo ",
			Kickoff:  "2025-08-20T19:00:00Z",
		}},
	}, now)

	require.Len(t, batch.Fixtures, 1)
	require.Equal(t, []string{"Real Oviedo"}, batch.Unmapped)
	require.Equal(t, "arsenal-real-oviedo-2025-08-20", batch.Fixtures[0].ID)
	require.Equal(t, fixture.StatusScheduled, batch.Fixtures[0].Status)
}

func TestRecordNormalizer_RejectsInvariantViolations(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	batch := newTestNormalizer(t).Normalize(t.Context(), source.Result{
		SourceID: "sportmonks",
		Records: []source.RawMatchRecord{
			{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Kickoff: "2025-11-01T15:00:00Z", StatusText: "FT"},
			{HomeTeam: "Arsenal", AwayTeam: "Arsenal FC", Kickoff: "2025-11-01T15:00:00Z"},
			{HomeTeam: "Everton", AwayTeam: "Fulham", Kickoff: "not a date"},
			{HomeTeam: "", AwayTeam: "Fulham", Kickoff: "2025-11-01T15:00:00Z"},
			{HomeTeam: "Everton", AwayTeam: "Fulham", Kickoff: "2025-11-01T15:00:00Z", HomeScore: fixture.IntPtr(1)},
		},
	}, now)

	require.Empty(t, batch.Fixtures)
	require.Len(t, batch.Rejected, 5)
	require.Contains(t, batch.Rejected[0].Reason, fixture.ErrMissingScore.Error())
	require.Contains(t, batch.Rejected[1].Reason, fixture.ErrSameClub.Error())
}

func TestRecordNormalizer_StripsScoreFromFutureFixture(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	batch := newTestNormalizer(t).Normalize(t.Context(), source.Result{
		SourceID: "fixturepage",
		Records: []source.RawMatchRecord{{
			HomeTeam:  "Liverpool",
			AwayTeam:  "Everton",
			Kickoff:   "2025-09-20",
			ScoreText: "0-0",
		}},
	}, now)

	require.Len(t, batch.Fixtures, 1)
	got := batch.Fixtures[0]
	require.Equal(t, fixture.StatusScheduled, got.Status)
	require.False(t, got.HasScore())
	require.Equal(t, time.Date(2025, 9, 20, 14, 0, 0, 0, time.UTC), got.KickoffAt, "date-only kickoff is 15:00 London time")
}

func TestRecordNormalizer_DedupesWithinSource(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 2, 16, 0, 0, 0, time.UTC)
	batch := newTestNormalizer(t).Normalize(t.Context(), source.Result{
		SourceID: "sportmonks",
		Records: []source.RawMatchRecord{
			{HomeTeam: "Spurs", AwayTeam: "Arsenal", Kickoff: "2025-11-02T15:00:00Z"},
			{HomeTeam: "Tottenham", AwayTeam: "Arsenal FC", Kickoff: "2025-11-02T15:00:00Z", ScoreText: "1-1", StatusText: "HT"},
		},
	}, now)

	require.Len(t, batch.Fixtures, 1)
	require.Equal(t, fixture.StatusLive, batch.Fixtures[0].Status)
	require.Equal(t, 1, *batch.Fixtures[0].HomeScore)
}

func TestParseKickoff(t *testing.T) {
	t.Parallel()

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	cases := []struct {
		raw  string
		zone string
		want time.Time
	}{
		{raw: "2025-11-02T15:00Z", want: time.Date(2025, 11, 2, 15, 0, 0, 0, time.UTC)},
		{raw: "2025-08-16T12:30:00+01:00", want: time.Date(2025, 8, 16, 11, 30, 0, 0, time.UTC)},
		{raw: "16/08/2025 12:30", want: time.Date(2025, 8, 16, 11, 30, 0, 0, time.UTC)},
		{raw: "16/08/25 20:00", want: time.Date(2025, 8, 16, 19, 0, 0, 0, time.UTC)},
		{raw: "2025-12-26 12:30", want: time.Date(2025, 12, 26, 12, 30, 0, 0, time.UTC)},
		{raw: "2025-08-16 12:30:00", zone: "UTC", want: time.Date(2025, 8, 16, 12, 30, 0, 0, time.UTC)},
		{raw: "Sat 16 Aug 2025 15:00", want: time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)},
		{raw: "1755356400", want: time.Unix(1755356400, 0).UTC()},
	}
	for _, tc := range cases {
		got, err := parseKickoff(tc.raw, tc.zone, london)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q: got %s want %s", tc.raw, got, tc.want)
		}
	}

	if _, err := parseKickoff("tbc", "", london); err == nil {
		t.Fatalf("expected error for unparseable kickoff")
	}
}

func TestParseScoreText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw        string
		ok         bool
		home, away int
	}{
		{raw: "2-1", ok: true, home: 2, away: 1},
		{raw: " 10 – 0 ", ok: true, home: 10, away: 0},
		{raw: "3:2", ok: true, home: 3, away: 2},
		{raw: "15:00", ok: false},
		{raw: "v", ok: false},
		{raw: "", ok: false},
		{raw: "P-P", ok: false},
	}
	for _, tc := range cases {
		home, away, ok := parseScoreText(tc.raw)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v want %v", tc.raw, ok, tc.ok)
		}
		if ok && (*home != tc.home || *away != tc.away) {
			t.Fatalf("%q: got %d-%d", tc.raw, *home, *away)
		}
	}
}

func TestParseRoundLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"Matchweek 12":       12,
		"Regular Season - 3": 3,
		"7":                  7,
		"":                   0,
		"Round 39":           0,
		"Final":              0,
	}
	for raw, want := range cases {
		if got := parseRoundLabel(raw, 38); got != want {
			t.Fatalf("%q: got %d want %d", raw, got, want)
		}
	}
}
