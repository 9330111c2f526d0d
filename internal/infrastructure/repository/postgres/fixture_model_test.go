package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	qb "github.com/riskibarqy/fixture-reconciler/internal/platform/querybuilder"
)

func TestFixtureRowRoundTrip(t *testing.T) {
	t.Parallel()

	in := fixture.Fixture{
		ID:              "arsenal-tottenham-hotspur-2025-11-23",
		HomeTeam:        "Arsenal",
		AwayTeam:        "Tottenham Hotspur",
		KickoffAt:       time.Date(2025, 11, 23, 16, 30, 0, 0, time.UTC),
		Status:          fixture.StatusFinished,
		HomeScore:       fixture.IntPtr(4),
		AwayScore:       fixture.IntPtr(1),
		Matchweek:       12,
		MatchweekOrigin: fixture.MatchweekExplicit,
		IsDerby:         true,
		Competition:     "Premier League",
		Season:          "2025-26",
		SourceID:        "sportmonks",
		SourcePriority:  1,
	}

	row := fixtureToRow(in)
	if row.StatusRank != 2 {
		t.Fatalf("unexpected status rank: %d", row.StatusRank)
	}
	if row.UpdatedAt.Valid {
		t.Fatalf("zero updated_at must be stored as NULL")
	}

	out := fixtureFromRow(row)
	if out.ID != in.ID || out.Status != in.Status || out.Matchweek != in.Matchweek || !out.IsDerby {
		t.Fatalf("unexpected fixture after round trip: %+v", out)
	}
	if *out.HomeScore != 4 || *out.AwayScore != 1 {
		t.Fatalf("unexpected score after round trip: %d-%d", *out.HomeScore, *out.AwayScore)
	}
}

func TestFixtureUpsertQueryGuardsStatus(t *testing.T) {
	t.Parallel()

	query, args, err := qb.InsertModel("fixtures", fixtureToRow(fixture.Fixture{
		ID:        "a-b-2025-08-16",
		HomeTeam:  "A",
		AwayTeam:  "B",
		KickoffAt: time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		Status:    fixture.StatusScheduled,
	}), fixtureUpsertSuffix)
	if err != nil {
		t.Fatalf("build upsert: %v", err)
	}
	if len(args) != len(fixtureColumns) {
		t.Fatalf("unexpected arg count: got=%d want=%d", len(args), len(fixtureColumns))
	}
	for _, want := range []string{
		"INSERT INTO fixtures",
		"ON CONFLICT (id) DO UPDATE",
		"COALESCE(EXCLUDED.home_score, fixtures.home_score)",
		"WHERE fixtures.status_rank <= EXCLUDED.status_rank",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("upsert query missing %q:\n%s", want, query)
		}
	}
}

func TestFilterConditions(t *testing.T) {
	t.Parallel()

	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(filterConditions(fixture.Filter{Season: "2025-26", Matchweek: 3, Status: fixture.StatusLive})...).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if !strings.Contains(query, "WHERE season = $1 AND matchweek = $2 AND status = $3") {
		t.Fatalf("unexpected where clause: %s", query)
	}
	if len(args) != 3 || args[2] != "live" {
		t.Fatalf("unexpected args: %#v", args)
	}

	if got := filterConditions(fixture.Filter{}); len(got) != 0 {
		t.Fatalf("empty filter must not add conditions, got %d", len(got))
	}
}
