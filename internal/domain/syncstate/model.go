package syncstate

import (
	"context"
	"time"
)

// Metadata describes the last completed sync cycle.
type Metadata struct {
	CycleID        string
	Season         string
	SyncedAt       time.Time
	FixtureCount   int
	Upserted       int
	Rejected       int
	SourceOutcomes map[string]string
}

type Repository interface {
	Save(ctx context.Context, item Metadata) error
	Last(ctx context.Context) (Metadata, bool, error)
}
