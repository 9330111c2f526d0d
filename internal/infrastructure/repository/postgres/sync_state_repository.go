package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	qb "github.com/riskibarqy/fixture-reconciler/internal/platform/querybuilder"
)

type syncMetadataTableModel struct {
	CycleID        string    `db:"cycle_id"`
	Season         string    `db:"season"`
	SyncedAt       time.Time `db:"synced_at"`
	FixtureCount   int       `db:"fixture_count"`
	Upserted       int       `db:"upserted"`
	Rejected       int       `db:"rejected"`
	SourceOutcomes string    `db:"source_outcomes"`
}

// SyncStateRepository appends one row per completed cycle.
type SyncStateRepository struct {
	db *sqlx.DB
}

func NewSyncStateRepository(db *sqlx.DB) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

func (r *SyncStateRepository) Save(ctx context.Context, item syncstate.Metadata) error {
	outcomes := item.SourceOutcomes
	if outcomes == nil {
		outcomes = map[string]string{}
	}
	encoded, err := sonic.MarshalString(outcomes)
	if err != nil {
		return fmt.Errorf("encode source outcomes: %w", err)
	}

	query, args, err := qb.InsertModel("sync_metadata", syncMetadataTableModel{
		CycleID:        item.CycleID,
		Season:         item.Season,
		SyncedAt:       item.SyncedAt.UTC(),
		FixtureCount:   item.FixtureCount,
		Upserted:       item.Upserted,
		Rejected:       item.Rejected,
		SourceOutcomes: encoded,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert sync metadata query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync metadata cycle=%s: %w", item.CycleID, err)
	}
	return nil
}

func (r *SyncStateRepository) Last(ctx context.Context) (syncstate.Metadata, bool, error) {
	query, args, err := qb.Select(
		"cycle_id",
		"season",
		"synced_at",
		"fixture_count",
		"upserted",
		"rejected",
		"source_outcomes::text AS source_outcomes",
	).From("sync_metadata").
		OrderBy("synced_at DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return syncstate.Metadata{}, false, fmt.Errorf("build last sync metadata query: %w", err)
	}

	var row syncMetadataTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return syncstate.Metadata{}, false, nil
		}
		return syncstate.Metadata{}, false, fmt.Errorf("get last sync metadata: %w", err)
	}

	outcomes := map[string]string{}
	if row.SourceOutcomes != "" {
		if err := sonic.UnmarshalString(row.SourceOutcomes, &outcomes); err != nil {
			return syncstate.Metadata{}, false, fmt.Errorf("decode source outcomes cycle=%s: %w", row.CycleID, err)
		}
	}

	return syncstate.Metadata{
		CycleID:        row.CycleID,
		Season:         row.Season,
		SyncedAt:       row.SyncedAt.UTC(),
		FixtureCount:   row.FixtureCount,
		Upserted:       row.Upserted,
		Rejected:       row.Rejected,
		SourceOutcomes: outcomes,
	}, true, nil
}
