package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-reconciler/internal/config"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/club"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/matchweek"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/infrastructure/referencedata"
	"github.com/riskibarqy/fixture-reconciler/internal/interfaces/httpapi"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/id"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
	"github.com/riskibarqy/fixture-reconciler/internal/usecase"
)

// Runtime holds the assembled services shared by the API server and the
// one-shot sync command.
type Runtime struct {
	Config       config.Config
	Logger       *logging.Logger
	SyncService  *usecase.FixtureSyncService
	QueryService *usecase.FixtureService
	db           *sqlx.DB
}

func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}

	kickoffLocation, err := time.LoadLocation(cfg.KickoffTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load kickoff timezone: %w", err)
	}

	aliases, err := loadAliasTable(cfg)
	if err != nil {
		return nil, err
	}

	repos, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	descriptors, err := buildSourceDescriptors(cfg, logger)
	if err != nil {
		repos.close()
		return nil, err
	}
	mode, err := usecase.ParseFetchMode(cfg.SourceFetchMode)
	if err != nil {
		repos.close()
		return nil, err
	}
	orchestrator, err := usecase.NewSourceOrchestrator(descriptors, usecase.SourceOrchestratorConfig{
		Mode:           mode,
		MinRecords:     cfg.SourceMinRecords,
		DefaultTimeout: cfg.SourceTimeout,
		MaxWorkers:     cfg.SourceWorkers,
	}, logger.Named("orchestrator"))
	if err != nil {
		repos.close()
		return nil, err
	}

	normalizer, err := usecase.NewRecordNormalizer(aliases, usecase.RecordNormalizerConfig{
		Competition:     cfg.Competition,
		Season:          cfg.Season,
		MaxMatchweek:    cfg.MatchweekMax,
		FinishGrace:     cfg.StatusFinishGrace,
		KickoffLocation: kickoffLocation,
	}, logger.Named("normalizer"))
	if err != nil {
		repos.close()
		return nil, err
	}

	syncService := usecase.NewFixtureSyncService(
		orchestrator,
		normalizer,
		repos.fixtures,
		repos.syncState,
		repos.rawData,
		id.NewUUIDGenerator(),
		usecase.FixtureSyncConfig{
			Season:       cfg.Season,
			Window:       source.Window{Season: cfg.Season},
			CycleTimeout: cfg.SyncCycleTimeout,
			Matchweek: matchweek.Config{
				SeasonStart:       cfg.SeasonStart,
				MaxRound:          cfg.MatchweekMax,
				ClusterDays:       cfg.MatchweekClusterDays,
				CompleteThreshold: cfg.MatchweekCompleteThreshold,
			},
		},
		logger.Named("sync"),
	)
	queryService := usecase.NewFixtureService(repos.fixtures, repos.syncState, cfg.Season, cfg.MatchweekMax)

	logger.Info("runtime assembled",
		"storage_driver", cfg.StorageDriver,
		"season", cfg.Season,
		"sources", len(descriptors),
		"fetch_mode", string(mode),
		"clubs", aliases.Len(),
	)

	return &Runtime{
		Config:       cfg,
		Logger:       logger,
		SyncService:  syncService,
		QueryService: queryService,
		db:           repos.db,
	}, nil
}

func (r *Runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func NewHTTPServer(rt *Runtime) (*http.Server, error) {
	cfg := rt.Config
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(rt.QueryService, rt.SyncService, rt.Logger.Named("httpapi"))
	router := httpapi.NewRouter(handler, rt.Logger.Named("http"), cfg.InternalJobToken)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}

func loadAliasTable(cfg config.Config) (*club.AliasTable, error) {
	if cfg.ClubAliasFile != "" {
		table, err := referencedata.LoadAliasFile(cfg.ClubAliasFile)
		if err != nil {
			return nil, fmt.Errorf("load club alias file: %w", err)
		}
		return table, nil
	}
	table, err := club.DefaultPremierLeague()
	if err != nil {
		return nil, fmt.Errorf("build default club table: %w", err)
	}
	return table, nil
}
