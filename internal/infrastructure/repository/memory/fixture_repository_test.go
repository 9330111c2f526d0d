package memory

import (
	"testing"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
)

func TestFixtureRepository_UpsertNeverRegresses(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 11, 2, 15, 0, 0, 0, time.UTC)
	finished := fixture.Fixture{
		ID:             "arsenal-chelsea-2025-11-02",
		HomeTeam:       "Arsenal",
		AwayTeam:       "Chelsea",
		KickoffAt:      kickoff,
		Status:         fixture.StatusFinished,
		HomeScore:      fixture.IntPtr(1),
		AwayScore:      fixture.IntPtr(0),
		Matchweek:      10,
		Season:         "2025-26",
		SourceID:       "sportmonks",
		SourcePriority: 1,
	}
	repo := NewFixtureRepository([]fixture.Fixture{finished})

	stale := finished
	stale.Status = fixture.StatusScheduled
	stale.HomeScore, stale.AwayScore = nil, nil
	stale.SourceID = "fixturepage"
	stale.SourcePriority = 3
	if _, err := repo.Upsert(t.Context(), []fixture.Fixture{stale}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := repo.GetByID(t.Context(), finished.ID)
	if err != nil || !ok {
		t.Fatalf("get fixture: ok=%v err=%v", ok, err)
	}
	if got.Status != fixture.StatusFinished || !got.HasScore() || *got.HomeScore != 1 {
		t.Fatalf("stored fixture regressed: %+v", got)
	}
}

func TestFixtureRepository_ListFiltersAndOrders(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)
	repo := NewFixtureRepository([]fixture.Fixture{
		{ID: "c", Season: "2025-26", Matchweek: 2, KickoffAt: base.AddDate(0, 0, 7), Status: fixture.StatusScheduled},
		{ID: "a", Season: "2025-26", Matchweek: 1, KickoffAt: base.Add(2 * time.Hour), Status: fixture.StatusFinished},
		{ID: "b", Season: "2025-26", Matchweek: 1, KickoffAt: base, Status: fixture.StatusFinished},
		{ID: "old", Season: "2024-25", Matchweek: 1, KickoffAt: base.AddDate(-1, 0, 0), Status: fixture.StatusFinished},
	})

	items, err := repo.List(t.Context(), fixture.Filter{Season: "2025-26", Status: fixture.StatusFinished})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "a" {
		t.Fatalf("unexpected listing: %+v", items)
	}

	bySeason, err := repo.ListBySeason(t.Context(), "2025-26")
	if err != nil {
		t.Fatalf("list by season: %v", err)
	}
	if len(bySeason) != 3 || bySeason[2].ID != "c" {
		t.Fatalf("unexpected season listing: %+v", bySeason)
	}
}

func TestSyncStateRepository_Last(t *testing.T) {
	t.Parallel()

	repo := NewSyncStateRepository()
	if _, ok, _ := repo.Last(t.Context()); ok {
		t.Fatalf("expected empty sync state")
	}

	outcomes := map[string]string{"sportmonks": "success"}
	if err := repo.Save(t.Context(), syncstate.Metadata{CycleID: "cycle-1", SourceOutcomes: outcomes}); err != nil {
		t.Fatalf("save: %v", err)
	}
	outcomes["sportmonks"] = "failure"

	got, ok, err := repo.Last(t.Context())
	if err != nil || !ok {
		t.Fatalf("last: ok=%v err=%v", ok, err)
	}
	if got.CycleID != "cycle-1" || got.SourceOutcomes["sportmonks"] != "success" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
}
