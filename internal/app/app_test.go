package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-reconciler/external/footballdata"
	"github.com/riskibarqy/fixture-reconciler/external/sportmonks"
	"github.com/riskibarqy/fixture-reconciler/internal/config"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                     config.EnvDev,
		HTTPAddr:                   ":0",
		StorageDriver:              config.StorageMemory,
		CacheEnabled:               true,
		CacheTTL:                   time.Minute,
		Season:                     "2025-26",
		Competition:                "Premier League",
		MatchweekMax:               38,
		MatchweekClusterDays:       3,
		MatchweekCompleteThreshold: 8,
		StatusFinishGrace:          3 * time.Hour,
		KickoffTimeZone:            "Europe/London",
		SourcePriority:             []string{"football-data", "sportmonks"},
		SourceTimeout:              time.Second,
		SourceMinRecords:           10,
		SourceFetchMode:            "sequential",
		SourceWorkers:              2,
		FetchTimeout:               time.Second,
		FootballData: config.FootballDataConfig{
			BaseURL:    "http://127.0.0.1:1",
			SeasonCode: "2526",
			Division:   "E0",
		},
		FixturePage: config.FixturePageConfig{ID: "fixture-page", Layout: "table"},
	}
}

func TestBuildSourceDescriptors_PriorityAndEnabled(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.FootballData.Enabled = true
	cfg.FixturePage.Enabled = true
	cfg.FixturePage.URL = "https://example.org/fixtures"
	cfg.FixturePage.RowSelector = "li.match"

	descriptors, err := buildSourceDescriptors(cfg, logging.NewNop())
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	byID := make(map[string]source.Descriptor, len(descriptors))
	for _, desc := range descriptors {
		byID[desc.ID] = desc
	}
	require.Equal(t, 0, byID[footballdata.SourceID].Priority)
	require.True(t, byID[footballdata.SourceID].Enabled)
	require.Equal(t, 1, byID[sportmonks.SourceID].Priority)
	require.False(t, byID[sportmonks.SourceID].Enabled)
	require.Equal(t, 2, byID["fixture-page"].Priority)
}

func TestBuildSourceDescriptors_OmitsUnconfiguredPage(t *testing.T) {
	t.Parallel()

	descriptors, err := buildSourceDescriptors(memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
}

func TestAssignPriorities_UnlistedSourcesRankLast(t *testing.T) {
	t.Parallel()

	descriptors := []source.Descriptor{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assignPriorities(descriptors, []string{"C", "a"})
	require.Equal(t, 1, descriptors[0].Priority)
	require.Equal(t, 2, descriptors[1].Priority)
	require.Equal(t, 0, descriptors[2].Priority)
}

func TestBuild_MemoryRuntime(t *testing.T) {
	t.Parallel()

	rt, err := Build(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	server, err := NewHTTPServer(rt)
	require.NoError(t, err)
	require.Equal(t, ":0", server.Addr)

	// Every source is disabled: the cycle still completes and records
	// their outcomes.
	result, err := rt.SyncService.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025-26", result.Season)
	require.Equal(t, source.OutcomeSkipped, result.SourceOutcomes[sportmonks.SourceID])

	meta, err := rt.QueryService.LastSync(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.CycleID, meta.CycleID)
}

func TestBuild_RejectsMissingAliasFile(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.ClubAliasFile = "/nonexistent/aliases.json"
	_, err := Build(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}
