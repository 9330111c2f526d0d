package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	fixturemock "github.com/riskibarqy/fixture-reconciler/internal/mocks/domain/fixture"
	syncstatemock "github.com/riskibarqy/fixture-reconciler/internal/mocks/domain/syncstate"
	"github.com/stretchr/testify/mock"
)

type traceKey struct{}

func TestFixtureService_List_DefaultsSeasonUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), traceKey{}, "trace-123")
	fixtureRepo := fixturemock.NewRepository(t)
	syncRepo := syncstatemock.NewRepository(t)

	service := NewFixtureService(fixtureRepo, syncRepo, "2025-26", 38)
	expectedFixtures := []fixture.Fixture{
		{
			ID:        "arsenal-chelsea-2025-11-08",
			HomeTeam:  "Arsenal",
			AwayTeam:  "Chelsea",
			KickoffAt: time.Date(2025, 11, 8, 17, 30, 0, 0, time.UTC),
			Status:    fixture.StatusScheduled,
			Matchweek: 11,
			Season:    "2025-26",
		},
	}

	fixtureRepo.
		On("List", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), fixture.Filter{Season: "2025-26", Matchweek: 11}).
		Return(expectedFixtures, nil).
		Once()

	got, err := service.List(ctx, fixture.Filter{Matchweek: 11})
	if err != nil {
		t.Fatalf("list fixtures: %v", err)
	}
	if len(got) != len(expectedFixtures) {
		t.Fatalf("unexpected fixture count: got=%d want=%d", len(got), len(expectedFixtures))
	}
	if got[0].ID != expectedFixtures[0].ID {
		t.Fatalf("unexpected fixture id: got=%s want=%s", got[0].ID, expectedFixtures[0].ID)
	}
}

func TestFixtureService_List_RejectsBadFilterUsingMockery(t *testing.T) {
	t.Parallel()

	service := NewFixtureService(fixturemock.NewRepository(t), syncstatemock.NewRepository(t), "2025-26", 38)

	if _, err := service.List(context.Background(), fixture.Filter{Matchweek: 39}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for matchweek, got %v", err)
	}
	if _, err := service.List(context.Background(), fixture.Filter{Status: "abandoned"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for status, got %v", err)
	}
}

func TestFixtureService_Get_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	fixtureRepo := fixturemock.NewRepository(t)
	service := NewFixtureService(fixtureRepo, syncstatemock.NewRepository(t), "2025-26", 38)

	fixtureRepo.
		On("GetByID", mock.Anything, "missing-fixture").
		Return(fixture.Fixture{}, false, nil).
		Once()

	_, err := service.Get(context.Background(), " missing-fixture ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFixtureService_LastSyncUsingMockery(t *testing.T) {
	t.Parallel()

	syncRepo := syncstatemock.NewRepository(t)
	service := NewFixtureService(fixturemock.NewRepository(t), syncRepo, "2025-26", 38)

	syncRepo.On("Last", mock.Anything).Return(syncstate.Metadata{}, false, nil).Once()
	if _, err := service.LastSync(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first cycle, got %v", err)
	}

	syncRepo.On("Last", mock.Anything).Return(syncstate.Metadata{CycleID: "cycle-9", Upserted: 380}, true, nil).Once()
	meta, err := service.LastSync(context.Background())
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if meta.CycleID != "cycle-9" || meta.Upserted != 380 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}
