package fixture

import "context"

// Repository persists canonical fixtures keyed by id. Upsert must never
// regress status or erase a known score, even when two cycles race.
type Repository interface {
	Upsert(ctx context.Context, items []Fixture) (int, error)
	GetByID(ctx context.Context, id string) (Fixture, bool, error)
	ListBySeason(ctx context.Context, season string) ([]Fixture, error)
	List(ctx context.Context, filter Filter) ([]Fixture, error)
}
