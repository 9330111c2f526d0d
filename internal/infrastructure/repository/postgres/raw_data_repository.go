package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	qb "github.com/riskibarqy/fixture-reconciler/internal/platform/querybuilder"
)

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

// UpsertMany stores payloads once per (source, body hash); a repeated body
// only refreshes fetched_at.
func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert raw payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := rawPayloadInsertModel{
			Source:      item.Source,
			EntityType:  item.EntityType,
			EntityKey:   item.EntityKey,
			Season:      nullableString(item.Season),
			ContentType: item.ContentType,
			Body:        item.Body,
			BodyHash:    item.BodyHash,
			FetchedAt:   item.FetchedAt.UTC(),
		}

		query, args, err := qb.InsertModel("raw_payloads", insertModel, `ON CONFLICT (source, body_hash)
DO UPDATE SET
    fetched_at = GREATEST(raw_payloads.fetched_at, EXCLUDED.fetched_at)`)
		if err != nil {
			return fmt.Errorf("build upsert raw payload query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert raw payload entity=%s key=%s: %w", item.EntityType, item.EntityKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert raw payloads tx: %w", err)
	}

	return nil
}

type rawPayloadInsertModel struct {
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	Season      *string   `db:"season"`
	ContentType string    `db:"content_type"`
	Body        string    `db:"body"`
	BodyHash    string    `db:"body_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
}
