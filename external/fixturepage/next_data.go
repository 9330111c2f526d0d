package fixturepage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
)

type nextDataDocument struct {
	Props struct {
		PageProps struct {
			Matches struct {
				AllMatches []nextMatch `json:"allMatches"`
			} `json:"matches"`
		} `json:"pageProps"`
	} `json:"props"`
}

type nextMatch struct {
	ID     any           `json:"id"`
	Round  any           `json:"round"`
	Home   nextMatchTeam `json:"home"`
	Away   nextMatchTeam `json:"away"`
	Status struct {
		UTCTime   string `json:"utcTime"`
		Started   bool   `json:"started"`
		Finished  bool   `json:"finished"`
		Cancelled bool   `json:"cancelled"`
		ScoreStr  string `json:"scoreStr"`
		Reason    struct {
			Short string `json:"short"`
		} `json:"reason"`
	} `json:"status"`
}

type nextMatchTeam struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

func (t nextMatchTeam) display() string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return strings.TrimSpace(t.ShortName)
}

func (s *PageSource) extractNextData(doc *goquery.Document) ([]source.RawMatchRecord, error) {
	script := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if script == "" {
		return nil, fmt.Errorf("could not find __NEXT_DATA__ script tag")
	}

	var data nextDataDocument
	if err := sonic.UnmarshalString(script, &data); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}

	matches := data.Props.PageProps.Matches.AllMatches
	records := make([]source.RawMatchRecord, 0, len(matches))
	for _, match := range matches {
		record := source.RawMatchRecord{
			ExternalRef: scalarText(match.ID),
			HomeTeam:    match.Home.display(),
			AwayTeam:    match.Away.display(),
			Kickoff:     strings.TrimSpace(match.Status.UTCTime),
			Round:       scalarText(match.Round),
			StatusText:  nextMatchStatus(match),
		}
		if match.Status.Started || match.Status.Finished {
			record.ScoreText = strings.TrimSpace(match.Status.ScoreStr)
		}
		records = append(records, record)
	}
	return records, nil
}

func nextMatchStatus(match nextMatch) string {
	short := strings.TrimSpace(match.Status.Reason.Short)
	switch {
	case match.Status.Cancelled:
		if short != "" {
			return short
		}
		return "CANCELLED"
	case match.Status.Finished:
		if short != "" {
			return short
		}
		return "FT"
	case match.Status.Started:
		return "LIVE"
	default:
		return ""
	}
}

func scalarText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
