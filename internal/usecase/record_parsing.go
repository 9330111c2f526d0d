package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// defaultKickoffHour is used when a source gives a date without a time.
const defaultKickoffHour = 15

var (
	dashScoreRegex  = regexp.MustCompile(`^(\d{1,2})\s*[-–—]\s*(\d{1,2})$`)
	colonScoreRegex = regexp.MustCompile(`^(\d{1,2})\s*:\s*(\d)$`)
	roundRegex      = regexp.MustCompile(`\d+`)
)

// Layouts carrying their own offset.
var zonedKickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC1123Z,
	time.RFC1123,
}

// Layouts read in the record's time zone.
var naiveKickoffLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
	"02/01/06 15:04",
	"2 Jan 2006 15:04",
	"Mon 2 Jan 2006 15:04",
	"Monday 2 January 2006 15:04",
	"2 January 2006 15:04",
}

// Date-only layouts; kickoff defaults to 15:00 local.
var dateOnlyLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
	"2 Jan 2006",
	"Mon 2 Jan 2006",
	"2 January 2006",
	"Monday 2 January 2006",
}

// parseKickoff reads a source date/time string into UTC. Unix seconds are
// accepted as well.
func parseKickoff(raw, zone string, fallback *time.Location) (time.Time, error) {
	value := strings.Join(strings.Fields(raw), " ")
	if value == "" {
		return time.Time{}, fmt.Errorf("kickoff is empty")
	}

	loc := fallback
	if loc == nil {
		loc = time.UTC
	}
	if zone = strings.TrimSpace(zone); zone != "" {
		named, err := time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("load time zone %q: %w", zone, err)
		}
		loc = named
	}

	for _, layout := range zonedKickoffLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	for _, layout := range naiveKickoffLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed.UTC(), nil
		}
	}
	for _, layout := range dateOnlyLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed.Add(defaultKickoffHour * time.Hour).UTC(), nil
		}
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil && seconds > 0 {
		return time.Unix(seconds, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized kickoff %q", raw)
}

// parseScoreText reads "2-1", "2 – 1" or "2:1". Clock times such as "15:00"
// are not scores.
func parseScoreText(raw string) (*int, *int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil, false
	}

	match := dashScoreRegex.FindStringSubmatch(value)
	if match == nil {
		match = colonScoreRegex.FindStringSubmatch(value)
	}
	if match == nil {
		return nil, nil, false
	}

	home, errHome := strconv.Atoi(match[1])
	away, errAway := strconv.Atoi(match[2])
	if errHome != nil || errAway != nil {
		return nil, nil, false
	}
	return &home, &away, true
}

// parseRoundLabel extracts the first number of labels like "Matchweek 12"
// or "Round 3"; zero means no usable round.
func parseRoundLabel(raw string, maxRound int) int {
	candidate := roundRegex.FindString(strings.TrimSpace(raw))
	if candidate == "" {
		return 0
	}
	value, err := strconv.Atoi(candidate)
	if err != nil || value <= 0 {
		return 0
	}
	if maxRound > 0 && value > maxRound {
		return 0
	}
	return value
}
