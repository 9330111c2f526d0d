package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	basecache "github.com/riskibarqy/fixture-reconciler/internal/platform/cache"
)

const (
	fixtureKeyPrefix = "fixture:"
	syncLastKey      = "sync:last"
)

// FixtureRepository serves fixture reads from the cache and drops every
// cached fixture view on write.
type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) Upsert(ctx context.Context, items []fixture.Fixture) (int, error) {
	written, err := r.next.Upsert(ctx, items)
	r.cache.DeletePrefix(ctx, fixtureKeyPrefix)
	return written, err
}

func (r *FixtureRepository) GetByID(ctx context.Context, id string) (fixture.Fixture, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, fixtureKeyPrefix+"id:"+id, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedFixtureByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return fixture.Fixture{}, false, err
	}

	cached, _ := v.(cachedFixtureByID)
	return cached.value.Clone(), cached.exists, nil
}

func (r *FixtureRepository) ListBySeason(ctx context.Context, season string) ([]fixture.Fixture, error) {
	return r.List(ctx, fixture.Filter{Season: season})
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	key := fixtureKeyPrefix + "list:" + filter.Season + ":" + strconv.Itoa(filter.Matchweek) + ":" + string(filter.Status)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return cloneFixtures(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return cloneFixtures(items), nil
}

type cachedFixtureByID struct {
	value  fixture.Fixture
	exists bool
}

func cloneFixtures(items []fixture.Fixture) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}

type SyncStateRepository struct {
	next  syncstate.Repository
	cache *basecache.Store
}

func NewSyncStateRepository(next syncstate.Repository, cache *basecache.Store) *SyncStateRepository {
	return &SyncStateRepository{next: next, cache: cache}
}

func (r *SyncStateRepository) Save(ctx context.Context, item syncstate.Metadata) error {
	err := r.next.Save(ctx, item)
	r.cache.Delete(ctx, syncLastKey)
	return err
}

func (r *SyncStateRepository) Last(ctx context.Context) (syncstate.Metadata, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, syncLastKey, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.Last(ctx)
		if err != nil {
			return nil, err
		}
		return cachedSyncMetadata{value: item, exists: exists}, nil
	})
	if err != nil {
		return syncstate.Metadata{}, false, err
	}

	cached, _ := v.(cachedSyncMetadata)
	return cached.value, cached.exists, nil
}

type cachedSyncMetadata struct {
	value  syncstate.Metadata
	exists bool
}
