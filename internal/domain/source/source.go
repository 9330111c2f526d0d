package source

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// RawMatchRecord is a match exactly as one source reported it. Only the
// adapter that produced it knows the source's format; everything downstream
// sees strings and optional integers.
type RawMatchRecord struct {
	SourceID    string
	ExternalRef string
	HomeTeam    string
	AwayTeam    string
	// Kickoff holds the source's date/time text. Naive values are read in
	// TimeZone (IANA name) or the engine default when empty.
	Kickoff     string
	TimeZone    string
	ScoreText   string
	HomeScore   *int
	AwayScore   *int
	StatusText  string
	Round       string
	Competition string
	Season      string
}

// Window bounds what an adapter is asked for. Zero values mean "whatever
// the source considers the current season".
type Window struct {
	Season string
	From   time.Time
	To     time.Time
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Result is what a single adapter produced in one cycle. A failed fetch is a
// Result with OutcomeFailure and no records, never a returned error.
type Result struct {
	SourceID    string
	Priority    int
	Outcome     Outcome
	Records     []RawMatchRecord
	RawPayloads []rawdata.Payload
	Err         error
	Duration    time.Duration
}

func (r Result) Usable() bool {
	return r.Outcome == OutcomeSuccess && len(r.Records) > 0
}

func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Adapter reads one upstream source. Fetch must honor ctx and must not panic
// or return partial state on failure.
type Adapter interface {
	ID() string
	Fetch(ctx context.Context, window Window) Result
}

// Descriptor places an adapter in the trust order. Lower Priority values are
// consulted first and win conflicts.
type Descriptor struct {
	ID       string
	Priority int
	Adapter  Adapter
	Timeout  time.Duration
	Enabled  bool
}

// Skipped is the Result of a source that was not consulted.
func Skipped(sourceID string, priority int, reason string) Result {
	return Result{
		SourceID: sourceID,
		Priority: priority,
		Outcome:  OutcomeSkipped,
		Err:      fmt.Errorf("source %s skipped: %s", sourceID, reason),
	}
}

// Capture turns an adapter's (records, err) pair into a Result, tagging every
// record with the source id.
func Capture(sourceID string, started time.Time, records []RawMatchRecord, payloads []rawdata.Payload, err error) Result {
	result := Result{
		SourceID: sourceID,
		Duration: time.Since(started),
	}
	if err != nil {
		result.Outcome = OutcomeFailure
		result.Err = fmt.Errorf("source %s: %w", sourceID, err)
		return result
	}

	for i := range records {
		records[i].SourceID = sourceID
	}
	for i := range payloads {
		if payloads[i].Source == "" {
			payloads[i].Source = sourceID
		}
	}
	result.Outcome = OutcomeSuccess
	result.Records = records
	result.RawPayloads = payloads
	return result
}

// Failed is shorthand for a Result that carries only an error.
func Failed(sourceID string, started time.Time, err error) Result {
	return Capture(sourceID, started, nil, nil, err)
}
