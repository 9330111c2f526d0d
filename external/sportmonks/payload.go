package sportmonks

import (
	"strconv"
	"strings"
	"time"
)

type scheduleEnvelope struct {
	Data []scheduleStage `json:"data"`
}

type scheduleStage struct {
	Rounds []scheduleRound `json:"rounds"`
}

type scheduleRound struct {
	Name     string            `json:"name"`
	Fixtures []scheduleFixture `json:"fixtures"`
}

type scheduleFixture struct {
	ID           int64                `json:"id"`
	StartingAt   string               `json:"starting_at"`
	Participants []fixtureParticipant `json:"participants"`
}

type fixtureParticipant struct {
	ID        int64                  `json:"id"`
	Name      string                 `json:"name"`
	ShortCode string                 `json:"short_code"`
	Meta      fixtureParticipantMeta `json:"meta"`
}

type fixtureParticipantMeta struct {
	Location string `json:"location"`
}

type fixturesMultiEnvelope struct {
	Data []fixtureDetails `json:"data"`
}

type fixtureDetails struct {
	ID           int64                `json:"id"`
	StartingAt   string               `json:"starting_at"`
	StateID      int64                `json:"state_id"`
	ResultInfo   string               `json:"result_info"`
	Participants []fixtureParticipant `json:"participants"`
	Scores       []fixtureScoreItem   `json:"scores"`
}

type fixtureScoreItem struct {
	ParticipantID int64          `json:"participant_id"`
	Description   string         `json:"description"`
	Score         map[string]any `json:"score"`
	Data          map[string]any `json:"data"`
	Goals         any            `json:"goals"`
}

func (f fixtureScoreItem) numericScore() (int, bool) {
	for _, candidate := range []any{
		f.Goals,
		lookupMapValue(f.Data, "goals"),
		lookupMapValue(f.Data, "value"),
		lookupMapValue(f.Score, "goals"),
		lookupMapValue(f.Score, "score"),
		lookupMapValue(f.Score, "value"),
	} {
		if candidate == nil {
			continue
		}
		score, ok := asInt(candidate)
		if ok && score >= 0 {
			return score, true
		}
	}
	return 0, false
}

// parseProviderDateTime reads SportMonks' "starting_at", which is UTC.
func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func resolveFixtureParticipants(participants []fixtureParticipant) (string, string) {
	var homeName, awayName string
	for _, item := range participants {
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			homeName = strings.TrimSpace(item.Name)
		case "away":
			awayName = strings.TrimSpace(item.Name)
		}
	}
	return homeName, awayName
}

// resolveFixtureScores picks the most authoritative score description present
// ("current" over "2nd_half" and so on) and returns both sides from it.
func resolveFixtureScores(scores []fixtureScoreItem, participants []fixtureParticipant) (*int, *int) {
	if len(scores) == 0 {
		return nil, nil
	}

	var homeParticipantID, awayParticipantID int64
	for _, item := range participants {
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			homeParticipantID = item.ID
		case "away":
			awayParticipantID = item.ID
		}
	}
	if homeParticipantID <= 0 || awayParticipantID <= 0 {
		return nil, nil
	}

	bestWeight := 0
	var home, away *int
	for _, score := range scores {
		value, ok := score.numericScore()
		if !ok {
			continue
		}
		weight := scoreDescriptionWeight(score.Description)
		if weight > bestWeight {
			bestWeight = weight
			home, away = nil, nil
		}
		if weight < bestWeight {
			continue
		}

		switch score.ParticipantID {
		case homeParticipantID:
			home = &value
		case awayParticipantID:
			away = &value
		}
	}
	if home == nil || away == nil {
		return nil, nil
	}
	return home, away
}

func scoreDescriptionWeight(raw string) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "current":
		return 6
	case strings.Contains(value, "normal_time"), strings.Contains(value, "90"):
		return 5
	case strings.Contains(value, "extra_time"):
		return 4
	case strings.Contains(value, "penalt"):
		return 3
	case value == "1st_half", value == "2nd_half":
		return 2
	default:
		return 1
	}
}

// mapFixtureStatus turns a SportMonks state id into a status marker the
// normalizer understands, falling back to the free-text result info.
func mapFixtureStatus(stateID int64, resultInfo string) string {
	switch stateID {
	case 2, 3, 4, 6, 7, 8, 9, 21, 22:
		return "LIVE"
	case 5, 13, 14:
		return "FINISHED"
	case 10, 16:
		return "POSTPONED"
	case 11, 12, 15:
		return "CANCELLED"
	case 1:
		return "SCHEDULED"
	}

	info := strings.ToLower(strings.TrimSpace(resultInfo))
	switch {
	case strings.Contains(info, "postpon"):
		return "POSTPONED"
	case strings.Contains(info, "cancel"), strings.Contains(info, "abandon"):
		return "CANCELLED"
	case strings.Contains(info, "won"), strings.Contains(info, "draw"), strings.Contains(info, "full time"):
		return "FINISHED"
	default:
		return ""
	}
}

func lookupMapValue(src map[string]any, key string) any {
	if src == nil {
		return nil
	}
	return src[key]
}

func asInt(value any) (int, bool) {
	switch typed := value.(type) {
	case float64:
		return int(typed), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
