package sportmonks

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

const scheduleBody = `{"data":[{"rounds":[
  {"name":"10","fixtures":[
    {"id":101,"starting_at":"2025-11-01 15:00:00","participants":[
      {"id":1,"name":"Arsenal","meta":{"location":"home"}},
      {"id":2,"name":"Chelsea","meta":{"location":"away"}}]},
    {"id":102,"starting_at":"2025-11-01 17:30:00","participants":[
      {"id":3,"name":"Liverpool","meta":{"location":"home"}},
      {"id":4,"name":"Everton","meta":{"location":"away"}}]}
  ]},
  {"name":"11","fixtures":[
    {"id":103,"starting_at":"2025-11-08 15:00:00","participants":[
      {"id":2,"name":"Chelsea","meta":{"location":"home"}},
      {"id":3,"name":"Liverpool","meta":{"location":"away"}}]}
  ]}
]}]}`

const multiBody = `{"data":[
  {"id":101,"starting_at":"2025-11-01 15:00:00","state_id":5,"result_info":"Arsenal won after full-time.",
   "participants":[{"id":1,"name":"Arsenal","meta":{"location":"home"}},{"id":2,"name":"Chelsea","meta":{"location":"away"}}],
   "scores":[
     {"participant_id":1,"description":"1ST_HALF","score":{"goals":0}},
     {"participant_id":2,"description":"1ST_HALF","score":{"goals":1}},
     {"participant_id":1,"description":"CURRENT","score":{"goals":2}},
     {"participant_id":2,"description":"CURRENT","score":{"goals":1}}]},
  {"id":102,"starting_at":"2025-11-01 17:30:00","state_id":10,"result_info":null,
   "participants":[{"id":3,"name":"Liverpool","meta":{"location":"home"}},{"id":4,"name":"Everton","meta":{"location":"away"}}],
   "scores":[]},
  {"id":103,"starting_at":"2025-11-08 15:00:00","state_id":1,
   "participants":[{"id":2,"name":"Chelsea","meta":{"location":"home"}},{"id":3,"name":"Liverpool","meta":{"location":"away"}}],
   "scores":[]}
]}`

func newTestSource(t *testing.T, handler http.Handler) *FixtureSource {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		Token:        "secret-token",
		Timeout:      time.Second,
		RetryBackoff: time.Millisecond,
		Logger:       logging.NewNop(),
	})
	return NewFixtureSource(client, SourceConfig{SeasonID: 25583, Competition: "Premier League", Season: "2025-26"}, logging.NewNop())
}

func TestFixtureSource_FetchHydratesScheduleRows(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/schedules/seasons/25583":
			_, _ = w.Write([]byte(scheduleBody))
		case strings.HasPrefix(r.URL.Path, "/fixtures/multi/"):
			_, _ = w.Write([]byte(multiBody))
		default:
			http.NotFound(w, r)
		}
	}))

	result := src.Fetch(t.Context(), source.Window{})
	require.NoError(t, result.Err)
	require.Equal(t, source.OutcomeSuccess, result.Outcome)
	require.Len(t, result.Records, 3)
	require.Len(t, result.RawPayloads, 2)

	first := result.Records[0]
	require.Equal(t, SourceID, first.SourceID)
	require.Equal(t, "101", first.ExternalRef)
	require.Equal(t, "Arsenal", first.HomeTeam)
	require.Equal(t, "Chelsea", first.AwayTeam)
	require.Equal(t, "UTC", first.TimeZone)
	require.Equal(t, "10", first.Round)
	require.Equal(t, "FINISHED", first.StatusText)
	require.Equal(t, 2, *first.HomeScore)
	require.Equal(t, 1, *first.AwayScore)

	require.Equal(t, "POSTPONED", result.Records[1].StatusText)
	require.Nil(t, result.Records[1].HomeScore)
	require.Equal(t, "SCHEDULED", result.Records[2].StatusText)
	require.Equal(t, "11", result.Records[2].Round)

	for _, payload := range result.RawPayloads {
		require.NotContains(t, payload.EntityKey, "secret-token")
		require.Equal(t, "2025-26", payload.Season)
		require.NotEmpty(t, payload.BodyHash)
	}
}

func TestFixtureSource_FetchAppliesWindow(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/schedules/seasons/25583" {
			_, _ = w.Write([]byte(scheduleBody))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	result := src.Fetch(t.Context(), source.Window{
		From: time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, source.OutcomeSuccess, result.Outcome)
	require.Len(t, result.Records, 1)
	require.Equal(t, "103", result.Records[0].ExternalRef)
	require.Empty(t, result.Records[0].StatusText)
}

func TestFixtureSource_HydrationFailureKeepsScheduleRows(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/schedules/seasons/25583" {
			_, _ = w.Write([]byte(scheduleBody))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))

	result := src.Fetch(t.Context(), source.Window{})
	require.Equal(t, source.OutcomeSuccess, result.Outcome)
	require.Len(t, result.Records, 3)
	require.Len(t, result.RawPayloads, 1)
}

func TestFixtureSource_ScheduleFailureIsSourceFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"bad api_token=secret-token"}`))
	}))

	result := src.Fetch(t.Context(), source.Window{})
	require.Equal(t, source.OutcomeFailure, result.Outcome)
	require.Empty(t, result.Records)
	require.Error(t, result.Err)
	require.Equal(t, int32(1), calls.Load())
}

func TestResolveFixtureScores_RequiresBothSides(t *testing.T) {
	t.Parallel()

	participants := []fixtureParticipant{
		{ID: 1, Meta: fixtureParticipantMeta{Location: "home"}},
		{ID: 2, Meta: fixtureParticipantMeta{Location: "away"}},
	}
	home, away := resolveFixtureScores([]fixtureScoreItem{
		{ParticipantID: 1, Description: "CURRENT", Score: map[string]any{"goals": float64(3)}},
	}, participants)
	require.Nil(t, home)
	require.Nil(t, away)
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://api.sportmonks.com/v3?api_token=abc123&x=1": EOF`, "abc123")
	require.NotContains(t, got, "abc123")
	require.Contains(t, got, "api_token=REDACTED")
}
