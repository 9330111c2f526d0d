package source

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
)

func TestCapture_TagsRecordsWithSource(t *testing.T) {
	t.Parallel()

	records := []RawMatchRecord{{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}
	payloads := []rawdata.Payload{{EntityType: "csv"}}
	result := Capture("footballdata", time.Now(), records, payloads, nil)

	if result.Outcome != OutcomeSuccess || !result.Usable() {
		t.Fatalf("expected usable success, got %+v", result)
	}
	if result.Records[0].SourceID != "footballdata" || result.RawPayloads[0].Source != "footballdata" {
		t.Fatalf("expected source tag on records and payloads")
	}
}

func TestCapture_FailureDropsRecords(t *testing.T) {
	t.Parallel()

	cause := errors.New("status 503")
	result := Capture("sportmonks", time.Now(), []RawMatchRecord{{}}, nil, cause)

	if result.Outcome != OutcomeFailure || len(result.Records) != 0 {
		t.Fatalf("expected failure without records, got %+v", result)
	}
	if !errors.Is(result.Err, cause) {
		t.Fatalf("expected wrapped cause, got %v", result.Err)
	}
	if result.Usable() {
		t.Fatalf("failed result must not be usable")
	}
}

func TestWindow_Contains(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	w := Window{From: from, To: from.AddDate(1, 0, 0)}
	if !w.Contains(from.AddDate(0, 3, 0)) || w.Contains(from.AddDate(0, 0, -1)) || w.Contains(from.AddDate(2, 0, 0)) {
		t.Fatalf("unexpected window bounds")
	}
	if !(Window{}).Contains(time.Time{}) {
		t.Fatalf("empty window contains everything")
	}
}
