package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	qb "github.com/riskibarqy/fixture-reconciler/internal/platform/querybuilder"
)

// fixtureUpsertSuffix refuses any write that would move a stored row back
// along scheduled -> live -> finished and never lets a NULL erase a score.
const fixtureUpsertSuffix = `ON CONFLICT (id) DO UPDATE SET
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    kickoff_at = EXCLUDED.kickoff_at,
    status = EXCLUDED.status,
    status_rank = EXCLUDED.status_rank,
    home_score = COALESCE(EXCLUDED.home_score, fixtures.home_score),
    away_score = COALESCE(EXCLUDED.away_score, fixtures.away_score),
    matchweek = EXCLUDED.matchweek,
    matchweek_origin = EXCLUDED.matchweek_origin,
    is_derby = EXCLUDED.is_derby,
    competition = EXCLUDED.competition,
    season = EXCLUDED.season,
    source_id = EXCLUDED.source_id,
    source_priority = EXCLUDED.source_priority,
    updated_at = COALESCE(EXCLUDED.updated_at, NOW())
WHERE fixtures.status_rank <= EXCLUDED.status_rank`

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// Upsert locks the stored rows for items, folds each item into its stored
// row and writes the result. It reports the rows actually written.
func (r *FixtureRepository) Upsert(ctx context.Context, items []fixture.Fixture) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert fixtures: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ids := make([]any, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").Where(qb.In("id", ids)).ForUpdate().ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build lock fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return 0, fmt.Errorf("lock fixtures: %w", err)
	}
	stored := make(map[string]fixture.Fixture, len(rows))
	for _, row := range rows {
		stored[row.ID] = fixtureFromRow(row)
	}

	written := 0
	for _, item := range items {
		if current, ok := stored[item.ID]; ok {
			item = fixture.Merge(current, item)
		}

		query, args, err := qb.InsertModel("fixtures", fixtureToRow(item), fixtureUpsertSuffix)
		if err != nil {
			return 0, fmt.Errorf("build upsert fixture query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("upsert fixture id=%s: %w", item.ID, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			written += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert fixtures tx: %w", err)
	}
	return written, nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, id string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.getByIDLiteral(ctx, id)
		}
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture: %w", err)
	}
	return fixtureFromRow(row), true, nil
}

func (r *FixtureRepository) getByIDLiteral(ctx context.Context, id string) (fixture.Fixture, bool, error) {
	query, _, err := qb.Select(fixtureColumns...).From("fixtures").Where(qb.EqLiteral("id", id)).ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture literal query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture literal fallback: %w", err)
	}
	return fixtureFromRow(row), true, nil
}

func (r *FixtureRepository) ListBySeason(ctx context.Context, season string) ([]fixture.Fixture, error) {
	return r.selectFixtures(ctx, "list fixtures by season", qb.Eq("season", season))
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	return r.selectFixtures(ctx, "list fixtures", filterConditions(filter)...)
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, op string, conditions ...qb.Condition) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(conditions...).
		OrderBy("matchweek", "kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixtureFromRow(row))
	}
	return out, nil
}

func filterConditions(filter fixture.Filter) []qb.Condition {
	conditions := make([]qb.Condition, 0, 3)
	if filter.Season != "" {
		conditions = append(conditions, qb.Eq("season", filter.Season))
	}
	if filter.Matchweek > 0 {
		conditions = append(conditions, qb.Eq("matchweek", filter.Matchweek))
	}
	if filter.Status != "" {
		conditions = append(conditions, qb.Eq("status", string(filter.Status)))
	}
	return conditions
}
