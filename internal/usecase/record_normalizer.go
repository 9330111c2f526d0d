package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/club"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

type RecordNormalizerConfig struct {
	Competition  string
	Season       string
	MaxMatchweek int
	FinishGrace  time.Duration
	// KickoffLocation is applied to kickoff text without an offset.
	KickoffLocation *time.Location
}

// RejectedRecord is a raw record that could not become a valid fixture.
type RejectedRecord struct {
	SourceID    string
	ExternalRef string
	HomeTeam    string
	AwayTeam    string
	Kickoff     string
	Reason      string
}

// NormalizedBatch is one source's records in canonical form, one fixture
// per id. A fixture's Matchweek holds the source's explicit round, or zero.
type NormalizedBatch struct {
	SourceID string
	Priority int
	Fixtures []fixture.Fixture
	Rejected []RejectedRecord
	Unmapped []string
}

// RecordNormalizer turns RawMatchRecords into candidate fixtures.
type RecordNormalizer struct {
	aliases *club.AliasTable
	cfg     RecordNormalizerConfig
	logger  *logging.Logger
}

func NewRecordNormalizer(aliases *club.AliasTable, cfg RecordNormalizerConfig, logger *logging.Logger) (*RecordNormalizer, error) {
	if aliases == nil {
		return nil, fmt.Errorf("%w: alias table is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FinishGrace <= 0 {
		cfg.FinishGrace = fixture.DefaultFinishGrace
	}
	if cfg.KickoffLocation == nil {
		cfg.KickoffLocation = time.UTC
	}

	return &RecordNormalizer{
		aliases: aliases,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func (n *RecordNormalizer) Normalize(ctx context.Context, result source.Result, now time.Time) NormalizedBatch {
	batch := NormalizedBatch{
		SourceID: result.SourceID,
		Priority: result.Priority,
	}

	unmapped := make(map[string]struct{})
	byID := make(map[string]int, len(result.Records))
	for _, rec := range result.Records {
		item, misses, err := n.normalizeOne(rec, result.Priority, now)
		for _, name := range misses {
			unmapped[name] = struct{}{}
		}
		if err != nil {
			batch.Rejected = append(batch.Rejected, RejectedRecord{
				SourceID:    result.SourceID,
				ExternalRef: rec.ExternalRef,
				HomeTeam:    rec.HomeTeam,
				AwayTeam:    rec.AwayTeam,
				Kickoff:     rec.Kickoff,
				Reason:      err.Error(),
			})
			n.logger.WarnContext(ctx, "reject source record",
				"source_id", result.SourceID,
				"external_ref", rec.ExternalRef,
				"home_team", rec.HomeTeam,
				"away_team", rec.AwayTeam,
				"kickoff", rec.Kickoff,
				"score", rec.ScoreText,
				"status", rec.StatusText,
				"error", err,
			)
			continue
		}

		if idx, ok := byID[item.ID]; ok {
			batch.Fixtures[idx] = fixture.Merge(batch.Fixtures[idx], item)
			continue
		}
		byID[item.ID] = len(batch.Fixtures)
		batch.Fixtures = append(batch.Fixtures, item)
	}

	if len(unmapped) > 0 {
		batch.Unmapped = make([]string, 0, len(unmapped))
		for name := range unmapped {
			batch.Unmapped = append(batch.Unmapped, name)
		}
		sort.Strings(batch.Unmapped)
		n.logger.WarnContext(ctx, "club names not found in alias table",
			"source_id", result.SourceID,
			"names", batch.Unmapped,
		)
	}
	return batch
}

func (n *RecordNormalizer) normalizeOne(rec source.RawMatchRecord, priority int, now time.Time) (fixture.Fixture, []string, error) {
	var misses []string
	home, homeMapped := n.aliases.Resolve(rec.HomeTeam)
	away, awayMapped := n.aliases.Resolve(rec.AwayTeam)
	home = strings.Join(strings.Fields(home), " ")
	away = strings.Join(strings.Fields(away), " ")
	if home == "" || away == "" {
		return fixture.Fixture{}, nil, fixture.ErrMissingClub
	}
	if !homeMapped {
		misses = append(misses, home)
	}
	if !awayMapped {
		misses = append(misses, away)
	}

	kickoff, err := parseKickoff(rec.Kickoff, rec.TimeZone, n.cfg.KickoffLocation)
	if err != nil {
		return fixture.Fixture{}, misses, fmt.Errorf("%w: %v", fixture.ErrMissingKickoff, err)
	}

	homeScore, awayScore := rec.HomeScore, rec.AwayScore
	if homeScore == nil && awayScore == nil {
		homeScore, awayScore, _ = parseScoreText(rec.ScoreText)
	}
	if (homeScore == nil) != (awayScore == nil) {
		return fixture.Fixture{}, misses, fixture.ErrPartialScore
	}
	hasScore := homeScore != nil

	status := fixture.ClassifyStatus(fixture.StatusSignals{
		Marker:   rec.StatusText,
		HasScore: hasScore,
		Kickoff:  kickoff,
	}, now, n.cfg.FinishGrace)
	if status == fixture.StatusScheduled {
		// Placeholder "0-0" cells on fixture lists are not results.
		homeScore, awayScore = nil, nil
	}

	item := fixture.Fixture{
		ID:             fixture.BuildID(home, away, kickoff),
		HomeTeam:       home,
		AwayTeam:       away,
		KickoffAt:      kickoff,
		Status:         status,
		HomeScore:      homeScore,
		AwayScore:      awayScore,
		IsDerby:        n.aliases.IsDerby(home, away),
		Competition:    firstNonEmpty(rec.Competition, n.cfg.Competition),
		Season:         firstNonEmpty(rec.Season, n.cfg.Season),
		SourceID:       rec.SourceID,
		SourcePriority: priority,
		UpdatedAt:      now.UTC(),
	}
	if round := parseRoundLabel(rec.Round, n.cfg.MaxMatchweek); round > 0 {
		item.Matchweek = round
		item.MatchweekOrigin = fixture.MatchweekExplicit
	}

	if err := item.Validate(n.cfg.MaxMatchweek); err != nil {
		return fixture.Fixture{}, misses, err
	}
	return item, misses, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
