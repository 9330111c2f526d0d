package footballdata

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/rawdata"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/httpfetch"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

const (
	SourceID = "football-data"

	defaultBaseURL  = "https://www.football-data.co.uk"
	defaultDivision = "E0"
	// football-data.co.uk publishes UK local times.
	feedTimeZone = "Europe/London"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var requiredColumns = []string{"Div", "Date", "HomeTeam", "AwayTeam"}

// Fetcher is the subset of httpfetch.Client the adapter needs.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) (httpfetch.Response, error)
}

type Config struct {
	BaseURL string
	// SeasonCode is the feed's four digit season folder, "2526" for 2025-26.
	SeasonCode string
	Division   string
	// IncludeUpcoming also reads fixtures.csv, which lists the coming week's
	// matches for every division.
	IncludeUpcoming bool
	Competition     string
	Season          string
}

// ResultsSource reads the football-data.co.uk season CSV.
type ResultsSource struct {
	fetcher Fetcher
	cfg     Config
	logger  *logging.Logger
	now     func() time.Time
}

func NewResultsSource(fetcher Fetcher, cfg Config, logger *logging.Logger) *ResultsSource {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Division) == "" {
		cfg.Division = defaultDivision
	}
	return &ResultsSource{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *ResultsSource) ID() string {
	return SourceID
}

func (s *ResultsSource) Fetch(ctx context.Context, window source.Window) source.Result {
	started := s.now()
	records, payloads, err := s.fetch(ctx, window)
	return source.Capture(SourceID, started, records, payloads, err)
}

func (s *ResultsSource) fetch(ctx context.Context, window source.Window) ([]source.RawMatchRecord, []rawdata.Payload, error) {
	if strings.TrimSpace(s.cfg.SeasonCode) == "" {
		return nil, nil, errors.New("season code is required")
	}

	resultsURL := fmt.Sprintf("%s/mmz4281/%s/%s.csv", s.cfg.BaseURL, s.cfg.SeasonCode, s.cfg.Division)
	records, payload, err := s.fetchCSV(ctx, resultsURL, "results_csv")
	if err != nil {
		return nil, nil, err
	}
	payloads := []rawdata.Payload{payload}

	if s.cfg.IncludeUpcoming {
		upcoming, upcomingPayload, err := s.fetchCSV(ctx, s.cfg.BaseURL+"/fixtures.csv", "fixtures_csv")
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, nil, ctx.Err()
		case err != nil:
			s.logger.WarnContext(ctx, "fetch upcoming fixtures csv failed, continuing with results only", "error", err)
		default:
			records = append(records, upcoming...)
			payloads = append(payloads, upcomingPayload)
		}
	}

	if window.From.IsZero() && window.To.IsZero() {
		return records, payloads, nil
	}
	filtered := records[:0]
	for _, record := range records {
		if kickoff, ok := s.kickoffHint(record); ok && !window.Contains(kickoff) {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered, payloads, nil
}

func (s *ResultsSource) fetchCSV(ctx context.Context, rawURL, entityType string) ([]source.RawMatchRecord, rawdata.Payload, error) {
	resp, err := s.fetcher.Get(ctx, rawURL, nil)
	if err != nil {
		return nil, rawdata.Payload{}, fmt.Errorf("fetch %s: %w", entityType, err)
	}

	body, err := decodeText(resp.Body)
	if err != nil {
		return nil, rawdata.Payload{}, fmt.Errorf("decode %s: %w", entityType, err)
	}
	records, err := s.parseCSV(body)
	if err != nil {
		return nil, rawdata.Payload{}, fmt.Errorf("parse %s: %w", entityType, err)
	}

	payload := rawdata.NewPayload(entityType, s.cfg.SeasonCode+"/"+s.cfg.Division, resp.ContentType, resp.Body, resp.FetchedAt)
	payload.Season = s.cfg.Season
	return records, payload, nil
}

func (s *ResultsSource) parseCSV(body []byte) ([]source.RawMatchRecord, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]source.RawMatchRecord, 0, 380)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !strings.EqualFold(cell(row, "Div"), s.cfg.Division) || cell(row, "Date") == "" {
			continue
		}

		record := source.RawMatchRecord{
			ExternalRef: fmt.Sprintf("%s:%d", s.cfg.Division, line),
			HomeTeam:    cell(row, "HomeTeam"),
			AwayTeam:    cell(row, "AwayTeam"),
			Kickoff:     strings.TrimSpace(cell(row, "Date") + " " + cell(row, "Time")),
			TimeZone:    feedTimeZone,
			Competition: s.cfg.Competition,
			Season:      s.cfg.Season,
		}
		home, homeErr := strconv.Atoi(cell(row, "FTHG"))
		away, awayErr := strconv.Atoi(cell(row, "FTAG"))
		if homeErr == nil && awayErr == nil {
			record.HomeScore = &home
			record.AwayScore = &away
		}
		if cell(row, "FTR") != "" {
			record.StatusText = "FT"
		}
		records = append(records, record)
	}
	return records, nil
}

// kickoffHint reads the feed's day for window filtering only; the normalizer
// owns real kickoff parsing.
func (s *ResultsSource) kickoffHint(record source.RawMatchRecord) (time.Time, bool) {
	day, _, _ := strings.Cut(record.Kickoff, " ")
	for _, layout := range []string{"02/01/2006", "02/01/06"} {
		if parsed, err := time.Parse(layout, day); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// decodeText returns body as UTF-8. Older season files are Windows-1252.
func decodeText(body []byte) ([]byte, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return body, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(body)
}
