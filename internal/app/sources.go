package app

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/fixture-reconciler/external/fixturepage"
	"github.com/riskibarqy/fixture-reconciler/external/footballdata"
	"github.com/riskibarqy/fixture-reconciler/external/sportmonks"
	"github.com/riskibarqy/fixture-reconciler/internal/config"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/source"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/httpfetch"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/resilience"
)

// buildSourceDescriptors returns every known adapter, disabled ones included
// so they surface as skipped. Priority follows SOURCE_PRIORITY; sources it
// does not name rank after the named ones in registration order.
func buildSourceDescriptors(cfg config.Config, logger *logging.Logger) ([]source.Descriptor, error) {
	fetcher := httpfetch.New(httpfetch.Config{
		UserAgent: cfg.FetchUserAgent,
		Timeout:   cfg.FetchTimeout,
		Retries:   cfg.FetchRetries,
	}, logger.Named("httpfetch"))

	descriptors := make([]source.Descriptor, 0, 3)

	smClient := sportmonks.NewClient(sportmonks.ClientConfig{
		BaseURL:    cfg.SportMonks.BaseURL,
		Token:      cfg.SportMonks.Token,
		Timeout:    cfg.SportMonks.Timeout,
		MaxRetries: cfg.SportMonks.MaxRetries,
		Logger:     logger.Named("sportmonks"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportMonks.Circuit.Enabled,
			FailureThreshold: cfg.SportMonks.Circuit.FailureCount,
			OpenTimeout:      cfg.SportMonks.Circuit.OpenTimeout,
			HalfOpenMaxReq:   cfg.SportMonks.Circuit.HalfOpenMaxReq,
		},
	})
	descriptors = append(descriptors, source.Descriptor{
		ID:      sportmonks.SourceID,
		Enabled: cfg.SportMonks.Enabled,
		Adapter: sportmonks.NewFixtureSource(smClient, sportmonks.SourceConfig{
			SeasonID:    cfg.SportMonks.SeasonID,
			Competition: cfg.Competition,
			Season:      cfg.Season,
		}, logger.Named("sportmonks")),
	})

	descriptors = append(descriptors, source.Descriptor{
		ID:      footballdata.SourceID,
		Enabled: cfg.FootballData.Enabled,
		Adapter: footballdata.NewResultsSource(fetcher, footballdata.Config{
			BaseURL:         cfg.FootballData.BaseURL,
			SeasonCode:      cfg.FootballData.SeasonCode,
			Division:        cfg.FootballData.Division,
			IncludeUpcoming: cfg.FootballData.IncludeUpcoming,
			Competition:     cfg.Competition,
			Season:          cfg.Season,
		}, logger.Named("footballdata")),
	})

	if cfg.FixturePage.Enabled || cfg.FixturePage.URL != "" {
		page, err := fixturepage.NewPageSource(fetcher, fixturePageConfig(cfg), logger.Named("fixturepage"))
		if err != nil {
			return nil, fmt.Errorf("build fixture page source: %w", err)
		}
		descriptors = append(descriptors, source.Descriptor{
			ID:      cfg.FixturePage.ID,
			Enabled: cfg.FixturePage.Enabled,
			Adapter: page,
		})
	}

	assignPriorities(descriptors, cfg.SourcePriority)
	return descriptors, nil
}

func fixturePageConfig(cfg config.Config) fixturepage.Config {
	selectors := fixturepage.DefaultTableSelectors()
	override := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	page := cfg.FixturePage
	override(&selectors.Row, page.RowSelector)
	override(&selectors.DateHeader, page.DateHeaderSelector)
	override(&selectors.Date, page.DateSelector)
	override(&selectors.Time, page.TimeSelector)
	override(&selectors.Home, page.HomeSelector)
	override(&selectors.Away, page.AwaySelector)
	override(&selectors.Score, page.ScoreSelector)
	override(&selectors.Status, page.StatusSelector)
	override(&selectors.Round, page.RoundSelector)

	return fixturepage.Config{
		ID:          page.ID,
		URL:         page.URL,
		Layout:      fixturepage.Layout(page.Layout),
		Selectors:   selectors,
		TimeZone:    page.TimeZone,
		Competition: cfg.Competition,
		Season:      cfg.Season,
	}
}

func assignPriorities(descriptors []source.Descriptor, order []string) {
	rank := make(map[string]int, len(order))
	for i, id := range order {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	next := len(order)
	for i := range descriptors {
		if p, ok := rank[strings.ToLower(descriptors[i].ID)]; ok {
			descriptors[i].Priority = p
			continue
		}
		descriptors[i].Priority = next
		next++
	}
}
