package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/syncstate"
)

// FixtureService is the read side used by downstream consumers.
type FixtureService struct {
	fixtureRepo   fixture.Repository
	syncRepo      syncstate.Repository
	defaultSeason string
	maxMatchweek  int
}

func NewFixtureService(fixtureRepo fixture.Repository, syncRepo syncstate.Repository, defaultSeason string, maxMatchweek int) *FixtureService {
	return &FixtureService{
		fixtureRepo:   fixtureRepo,
		syncRepo:      syncRepo,
		defaultSeason: strings.TrimSpace(defaultSeason),
		maxMatchweek:  maxMatchweek,
	}
}

func (s *FixtureService) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.List")
	defer span.End()

	filter.Season = strings.TrimSpace(filter.Season)
	if filter.Season == "" {
		filter.Season = s.defaultSeason
	}
	if filter.Matchweek < 0 || (s.maxMatchweek > 0 && filter.Matchweek > s.maxMatchweek) {
		return nil, fmt.Errorf("%w: matchweek must be between 1 and %d", ErrInvalidInput, s.maxMatchweek)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}

	items, err := s.fixtureRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return items, nil
}

func (s *FixtureService) Get(ctx context.Context, fixtureID string) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Get")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *FixtureService) LastSync(ctx context.Context) (syncstate.Metadata, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.LastSync")
	defer span.End()

	meta, exists, err := s.syncRepo.Last(ctx)
	if err != nil {
		return syncstate.Metadata{}, fmt.Errorf("get last sync: %w", err)
	}
	if !exists {
		return syncstate.Metadata{}, fmt.Errorf("%w: no completed sync cycle", ErrNotFound)
	}
	return meta, nil
}
