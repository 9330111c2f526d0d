// Package fixturepage scrapes fixture lists published as HTML pages, either
// as plain tables or as a Next.js page carrying its data in __NEXT_DATA__.
package fixturepage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/httpfetch"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

type Layout string

const (
	LayoutTable    Layout = "table"
	LayoutNextData Layout = "next_data"
)

// Fetcher is the subset of httpfetch.Client the adapter needs.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) (httpfetch.Response, error)
}

// TableSelectors locate fields inside a fixture table. Row is matched against
// the document, the rest against each row. A row matching DateHeader sets the
// date for the rows below it.
type TableSelectors struct {
	Row        string
	DateHeader string
	Date       string
	Time       string
	Home       string
	Away       string
	Score      string
	Status     string
	Round      string
}

func DefaultTableSelectors() TableSelectors {
	return TableSelectors{
		Row:        "table.fixtures tbody tr",
		DateHeader: "tr.date-header",
		Date:       "td.date",
		Time:       "td.time",
		Home:       "td.home",
		Away:       "td.away",
		Score:      "td.score",
		Status:     "td.status",
		Round:      "td.round",
	}
}

type Config struct {
	ID          string
	URL         string
	Layout      Layout
	Selectors   TableSelectors
	TimeZone    string
	Competition string
	Season      string
}

type PageSource struct {
	fetcher Fetcher
	cfg     Config
	logger  *logging.Logger
	now     func() time.Time
}

func NewPageSource(fetcher Fetcher, cfg Config, logger *logging.Logger) (*PageSource, error) {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.ID == "" || cfg.URL == "" {
		return nil, fmt.Errorf("fixture page source requires id and url")
	}
	switch cfg.Layout {
	case "":
		cfg.Layout = LayoutTable
	case LayoutTable, LayoutNextData:
	default:
		return nil, fmt.Errorf("unknown fixture page layout %q", cfg.Layout)
	}
	if cfg.Layout == LayoutTable && strings.TrimSpace(cfg.Selectors.Row) == "" {
		cfg.Selectors = DefaultTableSelectors()
	}

	return &PageSource{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *PageSource) ID() string {
	return s.cfg.ID
}

func (s *PageSource) Fetch(ctx context.Context, window source.Window) source.Result {
	started := s.now()
	records, payloads, err := s.fetch(ctx)
	return source.Capture(s.cfg.ID, started, records, payloads, err)
}

func (s *PageSource) fetch(ctx context.Context) ([]source.RawMatchRecord, []rawdata.Payload, error) {
	resp, err := s.fetcher.Get(ctx, s.cfg.URL, map[string]string{"Accept-Language": "en-GB,en;q=0.8"})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	var records []source.RawMatchRecord
	switch s.cfg.Layout {
	case LayoutNextData:
		records, err = s.extractNextData(doc)
	default:
		records, err = s.extractTable(doc)
	}
	if err != nil {
		return nil, nil, err
	}

	for i := range records {
		records[i].Competition = s.cfg.Competition
		records[i].Season = s.cfg.Season
		if records[i].TimeZone == "" {
			records[i].TimeZone = s.cfg.TimeZone
		}
	}
	if len(records) == 0 {
		s.logger.WarnContext(ctx, "fixture page yielded no rows", "source", s.cfg.ID, "layout", s.cfg.Layout)
	}

	payload := rawdata.NewPayload("html_page", s.cfg.URL, resp.ContentType, resp.Body, resp.FetchedAt)
	payload.Season = s.cfg.Season
	return records, []rawdata.Payload{payload}, nil
}

func (s *PageSource) extractTable(doc *goquery.Document) ([]source.RawMatchRecord, error) {
	sel := s.cfg.Selectors
	rows := doc.Find(sel.Row)
	if rows.Length() == 0 {
		return nil, fmt.Errorf("no rows match %q", sel.Row)
	}

	records := make([]source.RawMatchRecord, 0, rows.Length())
	currentDate := ""
	rows.Each(func(i int, row *goquery.Selection) {
		if sel.DateHeader != "" && row.Is(sel.DateHeader) {
			currentDate = cleanText(row.Text())
			return
		}

		home := fieldText(row, sel.Home)
		away := fieldText(row, sel.Away)
		if home == "" && away == "" {
			return
		}

		date := fieldText(row, sel.Date)
		if date == "" {
			date = currentDate
		}
		kickoff := strings.TrimSpace(date + " " + fieldText(row, sel.Time))
		if ts, ok := row.Attr("data-kickoff"); ok && strings.TrimSpace(ts) != "" {
			kickoff = strings.TrimSpace(ts)
		}

		ref, _ := row.Attr("data-match-id")
		if ref == "" {
			ref = fmt.Sprintf("row-%d", i)
		}

		records = append(records, source.RawMatchRecord{
			ExternalRef: ref,
			HomeTeam:    home,
			AwayTeam:    away,
			Kickoff:     kickoff,
			ScoreText:   fieldText(row, sel.Score),
			StatusText:  fieldText(row, sel.Status),
			Round:       fieldText(row, sel.Round),
		})
	})
	return records, nil
}

func fieldText(row *goquery.Selection, selector string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	return cleanText(row.Find(selector).First().Text())
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
