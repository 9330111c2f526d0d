package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

type FetchMode string

const (
	FetchModeParallel   FetchMode = "parallel"
	FetchModeSequential FetchMode = "sequential"
)

const (
	defaultSourceTimeout    = 45 * time.Second
	defaultSourceMinRecords = 10
	defaultSourceWorkers    = 4
)

func ParseFetchMode(raw string) (FetchMode, error) {
	switch mode := FetchMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return FetchModeParallel, nil
	case FetchModeParallel, FetchModeSequential:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: unknown fetch mode %q", ErrInvalidInput, raw)
	}
}

type SourceOrchestratorConfig struct {
	Mode FetchMode
	// MinRecords is the merged record count below which the next source is
	// consulted as well.
	MinRecords     int
	DefaultTimeout time.Duration
	MaxWorkers     int
}

// FetchReport lists every source's outcome in priority order and, separately,
// the usable results that were folded into this cycle.
type FetchReport struct {
	Results []source.Result
	Merged  []source.Result
}

func (r FetchReport) RecordCount() int {
	total := 0
	for _, item := range r.Merged {
		total += len(item.Records)
	}
	return total
}

func (r FetchReport) Outcomes() map[string]source.Outcome {
	out := make(map[string]source.Outcome, len(r.Results))
	for _, item := range r.Results {
		out[item.SourceID] = item.Outcome
	}
	return out
}

// Errors maps each failed or skipped source to its reason.
func (r FetchReport) Errors() map[string]string {
	out := make(map[string]string)
	for _, item := range r.Results {
		if msg := item.ErrorMessage(); msg != "" {
			out[item.SourceID] = msg
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SourceOrchestrator walks the fallback chain of configured sources.
type SourceOrchestrator struct {
	sources []source.Descriptor
	cfg     SourceOrchestratorConfig
	logger  *logging.Logger
}

func NewSourceOrchestrator(sources []source.Descriptor, cfg SourceOrchestratorConfig, logger *logging.Logger) (*SourceOrchestrator, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = FetchModeParallel
	}
	if cfg.MinRecords <= 0 {
		cfg.MinRecords = defaultSourceMinRecords
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultSourceTimeout
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultSourceWorkers
	}

	seen := make(map[string]struct{}, len(sources))
	ordered := make([]source.Descriptor, 0, len(sources))
	for _, desc := range sources {
		desc.ID = strings.TrimSpace(desc.ID)
		if desc.ID == "" {
			return nil, fmt.Errorf("%w: source id is required", ErrInvalidInput)
		}
		if desc.Adapter == nil {
			return nil, fmt.Errorf("%w: source %s has no adapter", ErrInvalidInput, desc.ID)
		}
		if _, ok := seen[desc.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate source %s", ErrInvalidInput, desc.ID)
		}
		seen[desc.ID] = struct{}{}
		if desc.Timeout <= 0 {
			desc.Timeout = cfg.DefaultTimeout
		}
		ordered = append(ordered, desc)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	return &SourceOrchestrator{
		sources: ordered,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Fetch consults the sources and folds their results in priority order.
// Failing sources never fail the call; the error is reserved for problems
// with the orchestrator itself.
func (o *SourceOrchestrator) Fetch(ctx context.Context, window source.Window) (FetchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SourceOrchestrator.Fetch",
		attribute.String("fetch.mode", string(o.cfg.Mode)),
		attribute.Int("fetch.sources", len(o.sources)),
	)
	defer span.End()

	var (
		report FetchReport
		err    error
	)
	if o.cfg.Mode == FetchModeSequential {
		report = o.fetchSequential(ctx, window)
	} else {
		report, err = o.fetchParallel(ctx, window)
		if err != nil {
			return FetchReport{}, err
		}
	}

	span.SetAttributes(
		attribute.Int("fetch.merged_sources", len(report.Merged)),
		attribute.Int("fetch.records", report.RecordCount()),
	)
	return report, nil
}

func (o *SourceOrchestrator) fetchSequential(ctx context.Context, window source.Window) FetchReport {
	report := FetchReport{Results: make([]source.Result, 0, len(o.sources))}
	merged := 0
	for _, desc := range o.sources {
		switch {
		case !desc.Enabled:
			report.Results = append(report.Results, source.Skipped(desc.ID, desc.Priority, "disabled"))
			continue
		case merged >= o.cfg.MinRecords:
			report.Results = append(report.Results, source.Skipped(desc.ID, desc.Priority, "enough records from higher priority sources"))
			continue
		}

		result := o.fetchOne(ctx, desc, window)
		report.Results = append(report.Results, result)
		if result.Usable() {
			report.Merged = append(report.Merged, result)
			merged += len(result.Records)
		}
	}
	return report
}

func (o *SourceOrchestrator) fetchParallel(ctx context.Context, window source.Window) (FetchReport, error) {
	results := make([]source.Result, len(o.sources))
	pending := make([]int, 0, len(o.sources))
	for i, desc := range o.sources {
		if !desc.Enabled {
			results[i] = source.Skipped(desc.ID, desc.Priority, "disabled")
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 {
		workerCount := o.cfg.MaxWorkers
		if workerCount > len(pending) {
			workerCount = len(pending)
		}
		pool, err := ants.NewPool(workerCount)
		if err != nil {
			return FetchReport{}, fmt.Errorf("create source worker pool: %w", err)
		}
		defer pool.Release()

		var workers sync.WaitGroup
		for _, idx := range pending {
			idx := idx
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()
				results[idx] = o.fetchOne(ctx, o.sources[idx], window)
			}); err != nil {
				workers.Done()
				results[idx] = source.Failed(o.sources[idx].ID, time.Now(), fmt.Errorf("submit to worker pool: %w", err))
				results[idx].Priority = o.sources[idx].Priority
			}
		}
		workers.Wait()
	}

	report := FetchReport{Results: results}
	merged := 0
	for _, result := range results {
		if merged >= o.cfg.MinRecords {
			break
		}
		if result.Usable() {
			report.Merged = append(report.Merged, result)
			merged += len(result.Records)
		}
	}
	return report, nil
}

// fetchOne runs one adapter under its own deadline. A panic or timeout
// becomes a failed Result.
func (o *SourceOrchestrator) fetchOne(ctx context.Context, desc source.Descriptor, window source.Window) source.Result {
	started := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, desc.Timeout)
	defer cancel()

	done := make(chan source.Result, 1)
	go func() {
		var (
			catcher panics.Catcher
			result  source.Result
		)
		catcher.Try(func() {
			result = desc.Adapter.Fetch(fetchCtx, window)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			result = source.Failed(desc.ID, started, fmt.Errorf("adapter panic: %w", recovered.AsError()))
		}
		done <- result
	}()

	var result source.Result
	select {
	case result = <-done:
	case <-fetchCtx.Done():
		result = source.Failed(desc.ID, started, fmt.Errorf("%w: timed out after %s: %w", ErrDependencyUnavailable, desc.Timeout, fetchCtx.Err()))
	}

	result.SourceID = desc.ID
	result.Priority = desc.Priority
	if result.Duration <= 0 {
		result.Duration = time.Since(started)
	}
	if result.Outcome == "" {
		result.Outcome = source.OutcomeSuccess
	}
	for i := range result.Records {
		result.Records[i].SourceID = desc.ID
	}

	switch {
	case result.Outcome == source.OutcomeFailure:
		o.logger.WarnContext(ctx, "source fetch failed",
			"source_id", desc.ID,
			"priority", desc.Priority,
			"duration_ms", result.Duration.Milliseconds(),
			"error", result.Err,
		)
	case len(result.Records) == 0:
		o.logger.WarnContext(ctx, "source returned no records",
			"source_id", desc.ID,
			"priority", desc.Priority,
		)
	default:
		o.logger.InfoContext(ctx, "source fetched",
			"source_id", desc.ID,
			"priority", desc.Priority,
			"records", len(result.Records),
			"duration_ms", result.Duration.Milliseconds(),
		)
	}
	return result
}
