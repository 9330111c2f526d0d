package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/matchweek"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/id"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/resilience"
)

// SourceFetcher yields the fallback-chain results for one cycle.
type SourceFetcher interface {
	Fetch(ctx context.Context, window source.Window) (FetchReport, error)
}

type FixtureSyncConfig struct {
	Season    string
	Window    source.Window
	Matchweek matchweek.Config
	// CycleTimeout bounds a cycle independently of the caller that started it.
	CycleTimeout time.Duration
}

const defaultCycleTimeout = 5 * time.Minute

// CycleResult summarizes one sync cycle. On persistence failure it carries
// the counts reached before the failing write.
type CycleResult struct {
	CycleID        string                    `json:"cycle_id"`
	Season         string                    `json:"season"`
	Upserted       int                       `json:"upserted"`
	Rejected       int                       `json:"rejected"`
	Unmapped       []string                  `json:"unmapped,omitempty"`
	SourceOutcomes map[string]source.Outcome `json:"source_outcomes"`
	SourceErrors   map[string]string         `json:"source_errors,omitempty"`
	StartedAt      time.Time                 `json:"started_at"`
	FinishedAt     time.Time                 `json:"finished_at"`
}

type FixtureSyncService struct {
	fetcher     SourceFetcher
	normalizer  *RecordNormalizer
	fixtureRepo fixture.Repository
	syncRepo    syncstate.Repository
	rawRepo     rawdata.Repository
	ids         id.Generator
	cfg         FixtureSyncConfig
	logger      *logging.Logger
	flight      resilience.SingleFlight
	now         func() time.Time
}

func NewFixtureSyncService(
	fetcher SourceFetcher,
	normalizer *RecordNormalizer,
	fixtureRepo fixture.Repository,
	syncRepo syncstate.Repository,
	rawRepo rawdata.Repository,
	ids id.Generator,
	cfg FixtureSyncConfig,
	logger *logging.Logger,
) *FixtureSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if cfg.Matchweek.MaxRound <= 0 {
		cfg.Matchweek.MaxRound = matchweek.DefaultMaxRound
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = defaultCycleTimeout
	}

	return &FixtureSyncService{
		fetcher:     fetcher,
		normalizer:  normalizer,
		fixtureRepo: fixtureRepo,
		syncRepo:    syncRepo,
		rawRepo:     rawRepo,
		ids:         ids,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// RunCycle performs one full fetch, normalize, infer, reconcile and persist
// pass. Concurrent calls in this process share a single run, which keeps going
// when the caller that started it goes away and stops after CycleTimeout.
func (s *FixtureSyncService) RunCycle(ctx context.Context) (CycleResult, error) {
	out, err, shared := s.flight.Do("cycle:"+s.cfg.Season, func() (any, error) {
		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CycleTimeout)
		defer cancel()
		return s.runCycle(cycleCtx)
	})
	result, _ := out.(CycleResult)
	if shared {
		s.logger.InfoContext(ctx, "joined in-flight sync cycle", "cycle_id", result.CycleID)
	}
	return result, err
}

func (s *FixtureSyncService) runCycle(ctx context.Context) (CycleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.RunCycle",
		attribute.String("sync.season", s.cfg.Season),
	)
	defer span.End()

	if s.fetcher == nil || s.normalizer == nil || s.fixtureRepo == nil || s.syncRepo == nil {
		return CycleResult{}, fmt.Errorf("%w: fixture sync is not fully configured", ErrDependencyUnavailable)
	}

	cycleID, err := s.ids.NewID()
	if err != nil {
		return CycleResult{}, fmt.Errorf("generate cycle id: %w", err)
	}
	result := CycleResult{
		CycleID:   cycleID,
		Season:    s.cfg.Season,
		StartedAt: s.now().UTC(),
	}
	span.SetAttributes(attribute.String("sync.cycle_id", cycleID))

	window := s.cfg.Window
	if window.Season == "" {
		window.Season = s.cfg.Season
	}
	report, err := s.fetcher.Fetch(ctx, window)
	if err != nil {
		result.FinishedAt = s.now().UTC()
		return result, fmt.Errorf("fetch sources: %w", err)
	}
	result.SourceOutcomes = report.Outcomes()
	result.SourceErrors = report.Errors()
	if len(report.Merged) == 0 {
		s.logger.WarnContext(ctx, "no usable source in sync cycle",
			"cycle_id", cycleID,
			"sources", len(report.Results),
		)
	}

	existing, err := s.fixtureRepo.ListBySeason(ctx, s.cfg.Season)
	if err != nil {
		result.FinishedAt = s.now().UTC()
		return result, fmt.Errorf("%w: list stored fixtures season=%s: %w", ErrPersistence, s.cfg.Season, err)
	}

	now := s.now()
	normalized := make([]fixture.Fixture, 0, report.RecordCount())
	payloads := make([]rawdata.Payload, 0)
	unmapped := make(map[string]struct{})
	for _, sourceResult := range report.Merged {
		batch := s.normalizer.Normalize(ctx, sourceResult, now)
		result.Rejected += len(batch.Rejected)
		for _, name := range batch.Unmapped {
			unmapped[name] = struct{}{}
		}
		normalized = append(normalized, batch.Fixtures...)

		for _, payload := range sourceResult.RawPayloads {
			if payload.Season == "" {
				payload.Season = s.cfg.Season
			}
			payloads = append(payloads, payload)
		}
	}
	candidates, rejected := s.assignMatchweeks(ctx, normalized, existing)
	result.Rejected += rejected
	result.Unmapped = sortedKeys(unmapped)

	reconciled := fixture.Reconcile(candidates, existing)
	span.SetAttributes(
		attribute.Int("sync.candidates", len(candidates)),
		attribute.Int("sync.reconciled", len(reconciled)),
		attribute.Int("sync.rejected", result.Rejected),
	)

	if len(reconciled) > 0 {
		upserted, err := s.fixtureRepo.Upsert(ctx, reconciled)
		result.Upserted = upserted
		if err != nil {
			result.FinishedAt = s.now().UTC()
			s.logger.ErrorContext(ctx, "persist reconciled fixtures failed",
				"cycle_id", cycleID,
				"upserted", upserted,
				"pending", len(reconciled),
				"error", err,
			)
			return result, fmt.Errorf("%w: upsert fixtures: %w", ErrPersistence, err)
		}
	}

	s.archivePayloads(ctx, cycleID, payloads)

	result.FinishedAt = s.now().UTC()
	if err := s.syncRepo.Save(ctx, syncstate.Metadata{
		CycleID:        cycleID,
		Season:         s.cfg.Season,
		SyncedAt:       result.FinishedAt,
		FixtureCount:   len(reconciled),
		Upserted:       result.Upserted,
		Rejected:       result.Rejected,
		SourceOutcomes: outcomeStrings(result.SourceOutcomes),
	}); err != nil {
		return result, fmt.Errorf("%w: save sync metadata: %w", ErrPersistence, err)
	}

	s.logger.InfoContext(ctx, "sync cycle finished",
		"cycle_id", cycleID,
		"season", s.cfg.Season,
		"upserted", result.Upserted,
		"rejected", result.Rejected,
		"unmapped", len(result.Unmapped),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	)
	return result, nil
}

// assignMatchweeks runs inference once over every source's candidates, with
// stored rounds as cluster context, and drops records whose assignment breaks
// a fixture invariant.
func (s *FixtureSyncService) assignMatchweeks(ctx context.Context, items []fixture.Fixture, existing []fixture.Fixture) ([]fixture.Fixture, int) {
	records := cycleRecords(items)
	records = append(records, storedRoundContext(existing, records)...)
	assignments := matchweek.Infer(records, settledFixtures(existing), s.cfg.Matchweek)

	accepted := make([]fixture.Fixture, 0, len(items))
	rejected := 0
	for _, item := range items {
		if assignment, ok := assignments[item.ID]; ok {
			item.Matchweek = assignment.Round
			item.MatchweekOrigin = assignment.Origin
		}
		if err := item.Validate(s.cfg.Matchweek.MaxRound); err != nil {
			rejected++
			s.logger.WarnContext(ctx, "reject fixture after matchweek inference",
				"source_id", item.SourceID,
				"fixture_id", item.ID,
				"matchweek", item.Matchweek,
				"error", err,
			)
			continue
		}
		accepted = append(accepted, item)
	}
	return accepted, rejected
}

// cycleRecords folds candidates sharing an id into one inference record. The
// kickoff and explicit round come from the most trusted source reporting them.
func cycleRecords(items []fixture.Fixture) []matchweek.Record {
	ordered := make([]fixture.Fixture, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourcePriority < ordered[j].SourcePriority
	})

	index := make(map[string]int, len(ordered))
	records := make([]matchweek.Record, 0, len(ordered))
	for _, item := range ordered {
		pos, seen := index[item.ID]
		if !seen {
			pos = len(records)
			index[item.ID] = pos
			records = append(records, matchweek.Record{Key: item.ID, Kickoff: item.KickoffAt})
		}
		rec := &records[pos]
		if rec.ExplicitRound == 0 && item.MatchweekOrigin == fixture.MatchweekExplicit {
			rec.ExplicitRound = item.Matchweek
		}
		if item.Status == fixture.StatusFinished {
			rec.Finished = true
		}
	}
	return records
}

// storedRoundContext returns stored fixtures absent from this cycle whose
// round came from a source or a correction, so their date clusters still
// lend that round to round-less candidates.
func storedRoundContext(existing []fixture.Fixture, cycle []matchweek.Record) []matchweek.Record {
	inCycle := make(map[string]struct{}, len(cycle))
	for _, rec := range cycle {
		inCycle[rec.Key] = struct{}{}
	}

	out := make([]matchweek.Record, 0)
	for _, item := range existing {
		if _, ok := inCycle[item.ID]; ok || item.Matchweek <= 0 {
			continue
		}
		if item.MatchweekOrigin != fixture.MatchweekExplicit && item.MatchweekOrigin != fixture.MatchweekCorrected {
			continue
		}
		out = append(out, matchweek.Record{
			Key:           item.ID,
			Kickoff:       item.KickoffAt,
			ExplicitRound: item.Matchweek,
			Finished:      item.Status == fixture.StatusFinished,
			Context:       true,
		})
	}
	return out
}

func (s *FixtureSyncService) archivePayloads(ctx context.Context, cycleID string, payloads []rawdata.Payload) {
	if s.rawRepo == nil || len(payloads) == 0 {
		return
	}
	if err := s.rawRepo.UpsertMany(ctx, payloads); err != nil {
		s.logger.WarnContext(ctx, "archive raw payloads failed",
			"cycle_id", cycleID,
			"payloads", len(payloads),
			"error", err,
		)
	}
}

func settledFixtures(items []fixture.Fixture) []matchweek.Settled {
	out := make([]matchweek.Settled, 0, len(items))
	for _, item := range items {
		if item.Status != fixture.StatusFinished || item.Matchweek <= 0 {
			continue
		}
		out = append(out, matchweek.Settled{Key: item.ID, Round: item.Matchweek})
	}
	return out
}

func outcomeStrings(outcomes map[string]source.Outcome) map[string]string {
	out := make(map[string]string, len(outcomes))
	for sourceID, outcome := range outcomes {
		out[sourceID] = string(outcome)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for key := range set {
		if strings.TrimSpace(key) != "" {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
