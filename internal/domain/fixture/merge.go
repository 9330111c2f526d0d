package fixture

import "sort"

// Merge folds an incoming observation of a match into what is already known
// about it. Lower SourcePriority values are more trusted.
//
//   - status only moves scheduled -> live -> finished
//   - scores are never erased; a finished observation replaces them unless the
//     stored match is already finished from a more trusted source; a live
//     observation updates them while the stored match is not finished and
//     the incoming source is at least as trusted
//   - matchweek changes only for a corrected assignment on an unfinished
//     match, or an explicit round replacing an inferred one
//   - IsDerby always comes from the incoming record
func Merge(existing, incoming Fixture) Fixture {
	out := existing.Clone()
	if out.ID == "" {
		out.ID = incoming.ID
	}
	if out.HomeTeam == "" {
		out.HomeTeam = incoming.HomeTeam
	}
	if out.AwayTeam == "" {
		out.AwayTeam = incoming.AwayTeam
	}
	if out.Competition == "" {
		out.Competition = incoming.Competition
	}
	if out.Season == "" {
		out.Season = incoming.Season
	}
	if out.Status == "" {
		out.Status = StatusScheduled
	}

	moreTrusted := out.SourceID == "" || incoming.SourcePriority <= out.SourcePriority
	contributed := false

	if incoming.Status.Rank() > out.Status.Rank() {
		out.Status = incoming.Status
		contributed = true
	}

	if incoming.HasScore() {
		switch {
		case !out.HasScore():
			contributed = true
			setScore(&out, incoming)
		case incoming.Status == StatusFinished && (existing.Status != StatusFinished || moreTrusted):
			contributed = true
			setScore(&out, incoming)
		case incoming.Status == StatusLive && existing.Status != StatusFinished && moreTrusted:
			contributed = contributed || !sameScore(out, incoming)
			setScore(&out, incoming)
		}
	}

	if !incoming.KickoffAt.IsZero() && (out.KickoffAt.IsZero() || (moreTrusted && existing.Status != StatusFinished)) {
		out.KickoffAt = incoming.KickoffAt
	}

	if shouldReplaceMatchweek(existing, incoming) {
		out.Matchweek = incoming.Matchweek
		out.MatchweekOrigin = incoming.MatchweekOrigin
	}

	out.IsDerby = incoming.IsDerby

	if contributed || out.SourceID == "" {
		out.SourceID = incoming.SourceID
		out.SourcePriority = incoming.SourcePriority
	}
	if incoming.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = incoming.UpdatedAt
	}

	return out
}

func shouldReplaceMatchweek(existing, incoming Fixture) bool {
	if incoming.Matchweek <= 0 {
		return false
	}
	if existing.Matchweek <= 0 {
		return true
	}
	switch incoming.MatchweekOrigin {
	case MatchweekCorrected:
		return existing.Status != StatusFinished
	case MatchweekExplicit:
		return existing.MatchweekOrigin == MatchweekInferred || existing.MatchweekOrigin == ""
	default:
		return false
	}
}

func setScore(dst *Fixture, src Fixture) {
	dst.HomeScore = cloneIntPtr(src.HomeScore)
	dst.AwayScore = cloneIntPtr(src.AwayScore)
}

func sameScore(a, b Fixture) bool {
	return a.HasScore() && b.HasScore() && *a.HomeScore == *b.HomeScore && *a.AwayScore == *b.AwayScore
}

// Reconcile merges one cycle's candidates into the stored state. Candidates
// sharing an id are merged with each other first, most trusted source first,
// and the result is then merged into the stored fixture for that id.
// Output is ordered by matchweek, kickoff and id.
func Reconcile(candidates []Fixture, existing []Fixture) []Fixture {
	if len(candidates) == 0 {
		return nil
	}

	byID := make(map[string][]Fixture, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, item := range candidates {
		if _, ok := byID[item.ID]; !ok {
			order = append(order, item.ID)
		}
		byID[item.ID] = append(byID[item.ID], item)
	}

	stored := make(map[string]Fixture, len(existing))
	for _, item := range existing {
		stored[item.ID] = item
	}

	out := make([]Fixture, 0, len(order))
	for _, id := range order {
		group := byID[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].SourcePriority < group[j].SourcePriority
		})

		merged := group[0].Clone()
		for _, next := range group[1:] {
			merged = Merge(merged, next)
		}
		if current, ok := stored[id]; ok {
			merged = Merge(current, merged)
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Matchweek != out[j].Matchweek {
			return out[i].Matchweek < out[j].Matchweek
		}
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
