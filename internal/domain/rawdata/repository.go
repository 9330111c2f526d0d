package rawdata

import "context"

// Repository archives raw payloads; writes are idempotent on body hash.
type Repository interface {
	UpsertMany(ctx context.Context, items []Payload) error
}
