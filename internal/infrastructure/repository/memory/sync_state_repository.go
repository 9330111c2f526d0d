package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
)

type SyncStateRepository struct {
	mu      sync.RWMutex
	last    syncstate.Metadata
	hasLast bool
}

func NewSyncStateRepository() *SyncStateRepository {
	return &SyncStateRepository{}
}

func (r *SyncStateRepository) Save(_ context.Context, item syncstate.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make(map[string]string, len(item.SourceOutcomes))
	for key, value := range item.SourceOutcomes {
		outcomes[key] = value
	}
	item.SourceOutcomes = outcomes
	r.last = item
	r.hasLast = true
	return nil
}

func (r *SyncStateRepository) Last(_ context.Context) (syncstate.Metadata, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.last, r.hasLast, nil
}

// RawDataRepository keeps one payload per body hash.
type RawDataRepository struct {
	mu     sync.Mutex
	byHash map[string]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{byHash: make(map[string]rawdata.Payload)}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.byHash[item.Source+"/"+item.BodyHash] = item
	}
	return nil
}

func (r *RawDataRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byHash)
}
