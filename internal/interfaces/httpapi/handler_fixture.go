package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	"github.com/riskibarqy/fixture-reconciler/internal/usecase"
)

type fixtureDTO struct {
	ID              string    `json:"id"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	KickoffAt       time.Time `json:"kickoff_at"`
	Status          string    `json:"status"`
	HomeScore       *int      `json:"home_score"`
	AwayScore       *int      `json:"away_score"`
	Matchweek       int       `json:"matchweek"`
	MatchweekOrigin string    `json:"matchweek_origin"`
	IsDerby         bool      `json:"is_derby"`
	Competition     string    `json:"competition"`
	Season          string    `json:"season"`
	Source          string    `json:"source"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type syncMetadataDTO struct {
	CycleID        string            `json:"cycle_id"`
	Season         string            `json:"season"`
	SyncedAt       time.Time         `json:"synced_at"`
	FixtureCount   int               `json:"fixture_count"`
	Upserted       int               `json:"upserted"`
	Rejected       int               `json:"rejected"`
	SourceOutcomes map[string]string `json:"source_outcomes"`
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	filter, err := parseFixtureFilter(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.fixtureService.List(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "season", filter.Season, "matchweek", filter.Matchweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	item, err := h.fixtureService.Get(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) GetLastSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLastSync")
	defer span.End()

	meta, err := h.fixtureService.LastSync(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncMetadataToDTO(meta))
}

func parseFixtureFilter(r *http.Request) (fixture.Filter, error) {
	query := r.URL.Query()
	filter := fixture.Filter{Season: strings.TrimSpace(query.Get("season"))}

	if raw := strings.TrimSpace(query.Get("matchweek")); raw != "" {
		matchweek, err := strconv.Atoi(raw)
		if err != nil || matchweek <= 0 {
			return fixture.Filter{}, fmt.Errorf("%w: matchweek must be a positive integer", usecase.ErrInvalidInput)
		}
		filter.Matchweek = matchweek
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := fixture.ParseStatus(raw)
		if !ok {
			return fixture.Filter{}, fmt.Errorf("%w: unknown status %q", usecase.ErrInvalidInput, raw)
		}
		filter.Status = status
	}
	return filter, nil
}

func fixtureToDTO(item fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:              item.ID,
		HomeTeam:        item.HomeTeam,
		AwayTeam:        item.AwayTeam,
		KickoffAt:       item.KickoffAt.UTC(),
		Status:          string(item.Status),
		HomeScore:       item.HomeScore,
		AwayScore:       item.AwayScore,
		Matchweek:       item.Matchweek,
		MatchweekOrigin: string(item.MatchweekOrigin),
		IsDerby:         item.IsDerby,
		Competition:     item.Competition,
		Season:          item.Season,
		Source:          item.SourceID,
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func syncMetadataToDTO(meta syncstate.Metadata) syncMetadataDTO {
	outcomes := meta.SourceOutcomes
	if outcomes == nil {
		outcomes = map[string]string{}
	}
	return syncMetadataDTO{
		CycleID:        meta.CycleID,
		Season:         meta.Season,
		SyncedAt:       meta.SyncedAt.UTC(),
		FixtureCount:   meta.FixtureCount,
		Upserted:       meta.Upserted,
		Rejected:       meta.Rejected,
		SourceOutcomes: outcomes,
	}
}
