package sportmonks

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

const (
	// SourceID identifies records produced by this adapter.
	SourceID = "sportmonks"

	fixtureDetailChunkSize    = 20
	defaultIncludeFixtureLite = "participants;scores;state"
)

type SourceConfig struct {
	SeasonID    int64
	Competition string
	Season      string
}

// FixtureSource reads a season schedule from SportMonks and hydrates each
// fixture with its state and scores.
type FixtureSource struct {
	client *Client
	cfg    SourceConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewFixtureSource(client *Client, cfg SourceConfig, logger *logging.Logger) *FixtureSource {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureSource{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *FixtureSource) ID() string {
	return SourceID
}

func (s *FixtureSource) Fetch(ctx context.Context, window source.Window) source.Result {
	started := s.now()
	records, payloads, err := s.fetchSeason(ctx, window)
	return source.Capture(SourceID, started, records, payloads, err)
}

func (s *FixtureSource) fetchSeason(ctx context.Context, window source.Window) ([]source.RawMatchRecord, []rawdata.Payload, error) {
	if s.cfg.SeasonID <= 0 {
		return nil, nil, fmt.Errorf("season id must be greater than zero")
	}

	payloads := make([]rawdata.Payload, 0, 8)
	byID := make(map[int64]source.RawMatchRecord, 400)

	schedulePath := fmt.Sprintf("/schedules/seasons/%d", s.cfg.SeasonID)
	var schedule scheduleEnvelope
	raw, err := s.client.doJSON(ctx, schedulePath, nil, &schedule)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch schedule season_id=%d: %w", s.cfg.SeasonID, err)
	}
	payloads = append(payloads, s.buildAPIPayload(schedulePath, nil, raw))

	for _, stage := range schedule.Data {
		for _, round := range stage.Rounds {
			for _, item := range round.Fixtures {
				if item.ID <= 0 {
					continue
				}
				if kickoff := parseProviderDateTime(item.StartingAt); kickoff != nil && !window.Contains(*kickoff) {
					continue
				}
				homeName, awayName := resolveFixtureParticipants(item.Participants)
				byID[item.ID] = source.RawMatchRecord{
					ExternalRef: strconv.FormatInt(item.ID, 10),
					HomeTeam:    homeName,
					AwayTeam:    awayName,
					Kickoff:     strings.TrimSpace(item.StartingAt),
					TimeZone:    "UTC",
					Round:       strings.TrimSpace(round.Name),
					Competition: s.cfg.Competition,
					Season:      s.cfg.Season,
				}
			}
		}
	}

	fixtureIDs := make([]int64, 0, len(byID))
	for fixtureID := range byID {
		fixtureIDs = append(fixtureIDs, fixtureID)
	}
	sort.SliceStable(fixtureIDs, func(i, j int) bool { return fixtureIDs[i] < fixtureIDs[j] })

	for start := 0; start < len(fixtureIDs); start += fixtureDetailChunkSize {
		end := min(start+fixtureDetailChunkSize, len(fixtureIDs))
		chunk := fixtureIDs[start:end]
		idValues := make([]string, 0, len(chunk))
		for _, fixtureID := range chunk {
			idValues = append(idValues, strconv.FormatInt(fixtureID, 10))
		}

		path := "/fixtures/multi/" + strings.Join(idValues, ",")
		query := map[string]string{"include": defaultIncludeFixtureLite}

		var details fixturesMultiEnvelope
		raw, err := s.client.doJSON(ctx, path, query, &details)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			s.logger.WarnContext(ctx, "fetch fixtures multi failed, continuing with schedule-only rows",
				"season_id", s.cfg.SeasonID,
				"chunk_size", len(chunk),
				"error", err,
			)
			continue
		}
		payloads = append(payloads, s.buildAPIPayload(path, query, raw))

		for _, item := range details.Data {
			existing, ok := byID[item.ID]
			if !ok {
				continue
			}
			byID[item.ID] = hydrateRecord(existing, item)
		}
	}

	records := make([]source.RawMatchRecord, 0, len(fixtureIDs))
	for _, fixtureID := range fixtureIDs {
		records = append(records, byID[fixtureID])
	}
	return records, payloads, nil
}

func hydrateRecord(record source.RawMatchRecord, item fixtureDetails) source.RawMatchRecord {
	if homeName, awayName := resolveFixtureParticipants(item.Participants); homeName != "" && awayName != "" {
		record.HomeTeam = homeName
		record.AwayTeam = awayName
	}
	if value := strings.TrimSpace(item.StartingAt); value != "" {
		record.Kickoff = value
	}
	record.StatusText = mapFixtureStatus(item.StateID, item.ResultInfo)
	record.HomeScore, record.AwayScore = resolveFixtureScores(item.Scores, item.Participants)
	return record
}

func (s *FixtureSource) buildAPIPayload(path string, query map[string]string, raw []byte) rawdata.Payload {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entityKey := strings.TrimSpace(path)
	for i, key := range keys {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		entityKey += sep + key + "=" + query[key]
	}

	payload := rawdata.NewPayload("api_response", entityKey, "application/json", raw, s.now())
	payload.Season = s.cfg.Season
	return payload
}
