package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/riskibarqy/fixture-reconciler/internal/config"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	"github.com/riskibarqy/fixture-reconciler/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fixture-reconciler/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-reconciler/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/fixture-reconciler/internal/platform/cache"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

type repositories struct {
	db        *sqlx.DB
	fixtures  fixture.Repository
	syncState syncstate.Repository
	rawData   rawdata.Repository
}

func (r repositories) close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var out repositories

	switch cfg.StorageDriver {
	case config.StorageMemory:
		out.fixtures = memory.NewFixtureRepository(nil)
		out.syncState = memory.NewSyncStateRepository()
		out.rawData = memory.NewRawDataRepository()
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		out.db = db
		out.fixtures = postgres.NewFixtureRepository(db)
		out.syncState = postgres.NewSyncStateRepository(db)
		out.rawData = postgres.NewRawDataRepository(db)
	default:
		return repositories{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.CacheEnabled {
		// Both services share the decorators so a cycle's writes evict the
		// reads cached by this process.
		store := basecache.NewStore(cfg.CacheTTL)
		out.fixtures = cache.NewFixtureRepository(out.fixtures, store)
		out.syncState = cache.NewSyncStateRepository(out.syncState, store)
	}

	logger.Info("storage ready", "driver", cfg.StorageDriver, "cache_enabled", cfg.CacheEnabled)
	return out, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
