package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/club"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
)

type stubAdapter struct {
	id       string
	records  []source.RawMatchRecord
	err      error
	delay    time.Duration
	panicMsg string
	calls    atomic.Int32
}

func (a *stubAdapter) ID() string {
	return a.id
}

func (a *stubAdapter) Fetch(ctx context.Context, _ source.Window) source.Result {
	a.calls.Add(1)
	started := time.Now()
	if a.panicMsg != "" {
		panic(a.panicMsg)
	}
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return source.Failed(a.id, started, ctx.Err())
		}
	}
	if a.err != nil {
		return source.Failed(a.id, started, a.err)
	}

	records := make([]source.RawMatchRecord, len(a.records))
	copy(records, a.records)
	return source.Capture(a.id, started, records, nil, nil)
}

func descriptor(adapter *stubAdapter, priority int) source.Descriptor {
	return source.Descriptor{
		ID:       adapter.id,
		Priority: priority,
		Adapter:  adapter,
		Enabled:  true,
	}
}

func mustAliases(t *testing.T) *club.AliasTable {
	t.Helper()

	table, err := club.DefaultPremierLeague()
	if err != nil {
		t.Fatalf("build alias table: %v", err)
	}
	return table
}

// roundRecords returns count distinct finished matches played on one
// Saturday, each reported as "Matchweek <round>".
func roundRecords(count int, kickoff string, round string) []source.RawMatchRecord {
	pairs := [][2]string{
		{"Arsenal", "Aston Villa"},
		{"Brentford", "Burnley"},
		{"Chelsea", "Crystal Palace"},
		{"Everton", "Fulham"},
		{"Leeds United", "Liverpool"},
		{"Manchester City", "Newcastle United"},
		{"Nottingham Forest", "Sunderland"},
		{"Tottenham Hotspur", "West Ham United"},
		{"Wolverhampton Wanderers", "AFC Bournemouth"},
		{"Brighton & Hove Albion", "Manchester United"},
	}
	out := make([]source.RawMatchRecord, 0, count)
	for i := 0; i < count && i < len(pairs); i++ {
		out = append(out, source.RawMatchRecord{
			HomeTeam:   pairs[i][0],
			AwayTeam:   pairs[i][1],
			Kickoff:    kickoff,
			ScoreText:  "1-0",
			StatusText: "FT",
			Round:      round,
		})
	}
	return out
}
