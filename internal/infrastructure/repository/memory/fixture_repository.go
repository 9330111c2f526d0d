package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
)

// FixtureRepository keeps fixtures in process. Upsert applies the same
// forward-only merge as the postgres store, so concurrent cycles cannot
// regress a stored row.
type FixtureRepository struct {
	mu       sync.RWMutex
	fixtures map[string]fixture.Fixture
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	byID := make(map[string]fixture.Fixture, len(fixtures))
	for _, item := range fixtures {
		byID[item.ID] = item.Clone()
	}
	return &FixtureRepository{fixtures: byID}
}

func (r *FixtureRepository) Upsert(_ context.Context, items []fixture.Fixture) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if current, ok := r.fixtures[item.ID]; ok {
			item = fixture.Merge(current, item)
		}
		r.fixtures[item.ID] = item.Clone()
	}
	return len(items), nil
}

func (r *FixtureRepository) GetByID(_ context.Context, id string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.fixtures[id]
	if !ok {
		return fixture.Fixture{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *FixtureRepository) ListBySeason(ctx context.Context, season string) ([]fixture.Fixture, error) {
	return r.List(ctx, fixture.Filter{Season: season})
}

func (r *FixtureRepository) List(_ context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.fixtures))
	for _, item := range r.fixtures {
		if filter.Matches(item) {
			out = append(out, item.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Matchweek != out[j].Matchweek {
			return out[i].Matchweek < out[j].Matchweek
		}
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
