package fixture

import (
	"regexp"
	"strings"
	"time"
)

// DefaultFinishGrace is how long after kickoff a scored match without a
// finished marker is taken as finished.
const DefaultFinishGrace = 3 * time.Hour

var minuteMarkerRegex = regexp.MustCompile(`^\d{1,3}(\+\d{1,2})?\s*['′’]$`)

var liveMarkers = map[string]struct{}{
	"LIVE":        {},
	"IN PLAY":     {},
	"INPLAY":      {},
	"PLAYING":     {},
	"HT":          {},
	"HALF TIME":   {},
	"HALFTIME":    {},
	"1H":          {},
	"2H":          {},
	"1ST HALF":    {},
	"2ND HALF":    {},
	"ET":          {},
	"EXTRA TIME":  {},
	"BT":          {},
	"BREAK":       {},
	"PEN LIVE":    {},
	"PENALTIES":   {},
	"INT":         {},
	"INTERRUPTED": {},
}

var finishedMarkers = map[string]struct{}{
	"FT":               {},
	"FINISHED":         {},
	"FULL TIME":        {},
	"FULLTIME":         {},
	"ENDED":            {},
	"AET":              {},
	"AFTER EXTRA TIME": {},
	"PEN":              {},
	"PENS":             {},
	"FT PEN":           {},
	"AP":               {},
	"AFTER PENALTIES":  {},
	"FINAL":            {},
	"RESULT":           {},
}

// StatusSignals are the raw hints a source gives about a match's state.
type StatusSignals struct {
	Marker   string
	HasScore bool
	Kickoff  time.Time
}

// ClassifyStatus applies the first matching rule:
//
//  1. live marker => live
//  2. finished marker, or a score with kickoff more than grace ago => finished
//  3. future or unknown kickoff without a score => scheduled
//  4. score with kickoff in the past => finished
//
// Anything else, including postponed and cancelled markers, is scheduled.
func ClassifyStatus(signals StatusSignals, now time.Time, grace time.Duration) Status {
	if grace <= 0 {
		grace = DefaultFinishGrace
	}
	marker := normalizeMarker(signals.Marker)
	kickoffKnown := !signals.Kickoff.IsZero()

	if IsLiveMarker(marker) {
		return StatusLive
	}
	if IsFinishedMarker(marker) {
		return StatusFinished
	}
	if signals.HasScore && kickoffKnown && now.Sub(signals.Kickoff) > grace {
		return StatusFinished
	}
	if !signals.HasScore && (!kickoffKnown || signals.Kickoff.After(now)) {
		return StatusScheduled
	}
	if signals.HasScore && kickoffKnown && !signals.Kickoff.After(now) {
		return StatusFinished
	}
	return StatusScheduled
}

func IsLiveMarker(raw string) bool {
	marker := normalizeMarker(raw)
	if marker == "" {
		return false
	}
	if _, ok := liveMarkers[marker]; ok {
		return true
	}
	return minuteMarkerRegex.MatchString(marker)
}

func IsFinishedMarker(raw string) bool {
	_, ok := finishedMarkers[normalizeMarker(raw)]
	return ok
}

func normalizeMarker(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	value = strings.NewReplacer("_", " ", "-", " ", ".", "").Replace(value)
	return strings.Join(strings.Fields(value), " ")
}
