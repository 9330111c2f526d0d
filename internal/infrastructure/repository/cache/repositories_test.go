package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	fixturemock "github.com/riskibarqy/fixture-reconciler/internal/mocks/domain/fixture"
	syncstatemock "github.com/riskibarqy/fixture-reconciler/internal/mocks/domain/syncstate"
	basecache "github.com/riskibarqy/fixture-reconciler/internal/platform/cache"
)

func TestFixtureRepository_ListServedFromCacheUntilUpsert(t *testing.T) {
	t.Parallel()

	next := fixturemock.NewRepository(t)
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))
	filter := fixture.Filter{Season: "2025-26", Matchweek: 1}
	items := []fixture.Fixture{{ID: "liverpool-afc-bournemouth-2025-08-15", Season: "2025-26", Matchweek: 1}}

	next.On("List", mock.Anything, filter).Return(items, nil).Twice()
	next.On("Upsert", mock.Anything, items).Return(1, nil).Once()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := repo.List(ctx, filter)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}

	written, err := repo.Upsert(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 1, written)

	_, err = repo.List(ctx, filter)
	require.NoError(t, err)
}

func TestFixtureRepository_GetByIDCachesMisses(t *testing.T) {
	t.Parallel()

	next := fixturemock.NewRepository(t)
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))
	next.On("GetByID", mock.Anything, "missing").Return(fixture.Fixture{}, false, nil).Once()

	for i := 0; i < 2; i++ {
		_, ok, err := repo.GetByID(context.Background(), "missing")
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestSyncStateRepository_SaveInvalidatesLast(t *testing.T) {
	t.Parallel()

	next := syncstatemock.NewRepository(t)
	repo := NewSyncStateRepository(next, basecache.NewStore(time.Minute))
	meta := syncstate.Metadata{CycleID: "cycle-2"}

	next.On("Last", mock.Anything).Return(syncstate.Metadata{CycleID: "cycle-1"}, true, nil).Once()
	next.On("Save", mock.Anything, meta).Return(nil).Once()
	next.On("Last", mock.Anything).Return(meta, true, nil).Once()

	got, _, err := repo.Last(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cycle-1", got.CycleID)

	require.NoError(t, repo.Save(context.Background(), meta))

	got, _, err = repo.Last(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cycle-2", got.CycleID)
}
