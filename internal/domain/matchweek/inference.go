package matchweek

import (
	"sort"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
)

const (
	DefaultMaxRound          = 38
	DefaultClusterDays       = 3
	DefaultCompleteThreshold = 8
)

type Config struct {
	SeasonStart       time.Time
	MaxRound          int
	ClusterDays       int
	CompleteThreshold int
}

func DefaultConfig(seasonStart time.Time) Config {
	return Config{
		SeasonStart:       seasonStart,
		MaxRound:          DefaultMaxRound,
		ClusterDays:       DefaultClusterDays,
		CompleteThreshold: DefaultCompleteThreshold,
	}
}

func (c Config) normalized() Config {
	if c.MaxRound <= 0 {
		c.MaxRound = DefaultMaxRound
	}
	if c.ClusterDays < 0 {
		c.ClusterDays = DefaultClusterDays
	}
	if c.CompleteThreshold <= 0 {
		c.CompleteThreshold = DefaultCompleteThreshold
	}
	return c
}

// Record is one match seen in the current cycle. ExplicitRound is zero when
// the source gave no round. A Context record only lends its round to its date
// cluster and gets no assignment.
type Record struct {
	Key           string
	Kickoff       time.Time
	ExplicitRound int
	Finished      bool
	Context       bool
}

// Settled is a stored finished fixture and the round it was assigned.
type Settled struct {
	Key   string
	Round int
}

type Assignment struct {
	Round  int
	Origin fixture.MatchweekOrigin
}

// Infer assigns a round to every record, keyed by Record.Key:
//
//  1. explicit round from the source
//  2. most common explicit round in the record's date cluster
//  3. weeks elapsed since season start
//  4. correction of unfinished records that sit at or below the highest
//     complete finished round
//
// It is a pure function of its inputs and yields the same answer on every
// run over the same data.
func Infer(records []Record, prior []Settled, cfg Config) map[string]Assignment {
	cfg = cfg.normalized()
	out := make(map[string]Assignment, len(records))
	if len(records) == 0 {
		return out
	}

	ordered := sortedByKickoff(records)
	seasonStart := cfg.SeasonStart
	if seasonStart.IsZero() {
		seasonStart = ordered[0].Kickoff
	}

	for _, cluster := range clusterByDate(ordered, cfg.ClusterDays) {
		inherited := dominantRound(cluster, cfg.MaxRound)
		for _, rec := range cluster {
			switch {
			case rec.Context:
				continue
			case validRound(rec.ExplicitRound, cfg.MaxRound):
				out[rec.Key] = Assignment{Round: rec.ExplicitRound, Origin: fixture.MatchweekExplicit}
			case inherited > 0:
				out[rec.Key] = Assignment{Round: inherited, Origin: fixture.MatchweekInferred}
			default:
				out[rec.Key] = Assignment{Round: elapsedRound(rec.Kickoff, seasonStart, cfg.MaxRound), Origin: fixture.MatchweekInferred}
			}
		}
	}

	correct(out, ordered, prior, cfg)
	return out
}

func correct(out map[string]Assignment, ordered []Record, prior []Settled, cfg Config) {
	finishedByRound := make(map[int]map[string]struct{})
	addFinished := func(key string, round int) {
		if round <= 0 {
			return
		}
		if finishedByRound[round] == nil {
			finishedByRound[round] = make(map[string]struct{})
		}
		finishedByRound[round][key] = struct{}{}
	}

	priorKeys := make(map[string]struct{}, len(prior))
	for _, item := range prior {
		priorKeys[item.Key] = struct{}{}
		addFinished(item.Key, item.Round)
	}
	for _, rec := range ordered {
		if !rec.Finished || rec.Context {
			continue
		}
		if _, ok := priorKeys[rec.Key]; ok {
			continue
		}
		addFinished(rec.Key, out[rec.Key].Round)
	}

	highest := 0
	for round := range finishedByRound {
		if round > highest {
			highest = round
		}
	}
	if highest == 0 || len(finishedByRound[highest]) < cfg.CompleteThreshold {
		return
	}

	unresolved := make([]Record, 0)
	for _, rec := range ordered {
		if rec.Finished || rec.Context {
			continue
		}
		if _, settled := priorKeys[rec.Key]; settled {
			continue
		}
		if out[rec.Key].Round <= highest {
			unresolved = append(unresolved, rec)
		}
	}

	for offset, cluster := range clusterByDate(unresolved, cfg.ClusterDays) {
		round := clamp(highest+1+offset, 1, cfg.MaxRound)
		for _, rec := range cluster {
			out[rec.Key] = Assignment{Round: round, Origin: fixture.MatchweekCorrected}
		}
	}
}

func sortedByKickoff(records []Record) []Record {
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Kickoff.Equal(ordered[j].Kickoff) {
			return ordered[i].Kickoff.Before(ordered[j].Kickoff)
		}
		return ordered[i].Key < ordered[j].Key
	})
	return ordered
}

// clusterByDate groups kickoff-ordered records whose UTC calendar date lies
// within windowDays of the first record in the group.
func clusterByDate(ordered []Record, windowDays int) [][]Record {
	if len(ordered) == 0 {
		return nil
	}

	clusters := make([][]Record, 0, len(ordered)/5+1)
	current := []Record{ordered[0]}
	anchor := calendarDay(ordered[0].Kickoff)
	for _, rec := range ordered[1:] {
		if calendarDay(rec.Kickoff)-anchor > windowDays {
			clusters = append(clusters, current)
			current = []Record{rec}
			anchor = calendarDay(rec.Kickoff)
			continue
		}
		current = append(current, rec)
	}
	return append(clusters, current)
}

func dominantRound(cluster []Record, maxRound int) int {
	counts := make(map[int]int)
	for _, rec := range cluster {
		if validRound(rec.ExplicitRound, maxRound) {
			counts[rec.ExplicitRound]++
		}
	}

	best, bestCount := 0, 0
	for round, count := range counts {
		if count > bestCount || (count == bestCount && round < best) {
			best, bestCount = round, count
		}
	}
	return best
}

func elapsedRound(kickoff, seasonStart time.Time, maxRound int) int {
	days := calendarDay(kickoff) - calendarDay(seasonStart)
	if days < 0 {
		return 1
	}
	return clamp(days/7+1, 1, maxRound)
}

func calendarDay(t time.Time) int {
	return int(t.UTC().Truncate(24*time.Hour).Unix() / 86400)
}

func validRound(round, maxRound int) bool {
	return round >= 1 && round <= maxRound
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
