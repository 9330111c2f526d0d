package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
	"github.com/riskibarqy/fixture-reconciler/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
	"github.com/riskibarqy/fixture-reconciler/internal/usecase"
)

type stubRunner struct {
	calls  int
	result usecase.CycleResult
	err    error
}

func (s *stubRunner) RunCycle(context.Context) (usecase.CycleResult, error) {
	s.calls++
	return s.result, s.err
}

type envelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       any            `json:"data"`
	Error      map[string]any `json:"error"`
}

func intPtr(v int) *int { return &v }

func newTestRouter(t *testing.T, runner CycleRunner) (http.Handler, *memory.SyncStateRepository) {
	t.Helper()

	fixtures := memory.NewFixtureRepository([]fixture.Fixture{
		{
			ID:              "arsenal-vs-chelsea-2025-11-08",
			HomeTeam:        "Arsenal",
			AwayTeam:        "Chelsea",
			KickoffAt:       time.Date(2025, 11, 8, 17, 30, 0, 0, time.UTC),
			Status:          fixture.StatusFinished,
			HomeScore:       intPtr(2),
			AwayScore:       intPtr(1),
			Matchweek:       11,
			MatchweekOrigin: fixture.MatchweekExplicit,
			IsDerby:         true,
			Season:          "2025-26",
			SourceID:        "sportmonks",
		},
		{
			ID:              "everton-vs-fulham-2025-11-29",
			HomeTeam:        "Everton",
			AwayTeam:        "Fulham",
			KickoffAt:       time.Date(2025, 11, 29, 15, 0, 0, 0, time.UTC),
			Status:          fixture.StatusScheduled,
			Matchweek:       13,
			MatchweekOrigin: fixture.MatchweekInferred,
			Season:          "2025-26",
			SourceID:        "football-data",
		},
	})
	syncRepo := memory.NewSyncStateRepository()
	service := usecase.NewFixtureService(fixtures, syncRepo, "2025-26", 38)
	handler := NewHandler(service, runner, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), "job-token"), syncRepo
}

func serve(router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var body envelope
	_ = sonic.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubRunner{})
	rec, body := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2.0", body.APIVersion)
}

func TestRouter_ListFixturesFilters(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubRunner{})

	rec, body := serve(router, httptest.NewRequest(http.MethodGet, "/v1/fixtures", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data, 2)

	rec, body = serve(router, httptest.NewRequest(http.MethodGet, "/v1/fixtures?matchweek=11&status=finished", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	items, ok := body.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	require.Equal(t, "arsenal-vs-chelsea-2025-11-08", first["id"])
	require.Equal(t, float64(2), first["home_score"])
	require.Equal(t, true, first["is_derby"])
}

func TestRouter_ListFixturesRejectsBadQuery(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubRunner{})
	for _, target := range []string{"/v1/fixtures?matchweek=abc", "/v1/fixtures?matchweek=39", "/v1/fixtures?status=abandoned"} {
		rec, body := serve(router, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.Equal(t, "INVALID_ARGUMENT", body.Error["status"], target)
	}
}

func TestRouter_GetFixture(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubRunner{})

	rec, body := serve(router, httptest.NewRequest(http.MethodGet, "/v1/fixtures/everton-vs-fulham-2025-11-29", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	item := body.Data.(map[string]any)
	require.Equal(t, "scheduled", item["status"])
	require.Nil(t, item["home_score"])

	rec, _ = serve(router, httptest.NewRequest(http.MethodGet, "/v1/fixtures/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_LastSync(t *testing.T) {
	t.Parallel()

	router, syncRepo := newTestRouter(t, &stubRunner{})

	rec, _ := serve(router, httptest.NewRequest(http.MethodGet, "/v1/sync/last", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, syncRepo.Save(context.Background(), syncstate.Metadata{
		CycleID:        "cycle-1",
		Season:         "2025-26",
		SyncedAt:       time.Date(2025, 11, 9, 6, 0, 0, 0, time.UTC),
		FixtureCount:   2,
		SourceOutcomes: map[string]string{"sportmonks": "success"},
	}))

	rec, body := serve(router, httptest.NewRequest(http.MethodGet, "/v1/sync/last", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	meta := body.Data.(map[string]any)
	require.Equal(t, "cycle-1", meta["cycle_id"])
	require.Equal(t, float64(2), meta["fixture_count"])
}

func TestRouter_SyncJobRequiresToken(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	router, _ := newTestRouter(t, runner)

	rec, _ := serve(router, httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-fixtures", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-fixtures", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec, _ = serve(router, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, runner.calls)
}

func TestRouter_SyncJobRunsCycle(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: usecase.CycleResult{
		CycleID:        "cycle-9",
		Season:         "2025-26",
		Upserted:       4,
		SourceOutcomes: map[string]source.Outcome{"sportmonks": source.OutcomeSuccess},
	}}
	router, _ := newTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-fixtures", strings.NewReader(`{"dispatch_id":"cron-42"}`))
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec, body := serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, runner.calls)

	data := body.Data.(map[string]any)
	require.Equal(t, "cron-42", data["dispatch_id"])
	result := data["result"].(map[string]any)
	require.Equal(t, "cycle-9", result["cycle_id"])
	require.Equal(t, float64(4), result["upserted"])
}

func TestRouter_SyncJobEmptyBodyGetsManualDispatchID(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: usecase.CycleResult{CycleID: "cycle-1"}}
	router, _ := newTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-fixtures", nil)
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec, body := serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body.Data.(map[string]any)
	require.True(t, strings.HasPrefix(data["dispatch_id"].(string), "manual-sync-fixtures-"))
}

func TestRouter_SyncJobRejectsBadPayload(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	router, _ := newTestRouter(t, runner)

	for _, payload := range []string{`{"unknown":1}`, `{"dispatch_id":` + `"` + strings.Repeat("x", 200) + `"}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-fixtures", strings.NewReader(payload))
		req.Header.Set("X-Internal-Job-Token", "job-token")
		rec, _ := serve(router, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
	require.Zero(t, runner.calls)
}

func TestRouter_SyncJobPersistenceFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: errors.Join(usecase.ErrPersistence, errors.New("connection reset"))}
	router, _ := newTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-fixtures", nil)
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec, body := serve(router, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	items := body.Error["errors"].([]any)
	require.Equal(t, "persistenceFailure", items[0].(map[string]any)["reason"])
}

func TestRouter_RecoversPanics(t *testing.T) {
	t.Parallel()

	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fixtures", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
