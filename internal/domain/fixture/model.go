package fixture

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
)

// Rank orders statuses along the only legal direction of travel.
func (s Status) Rank() int {
	switch s {
	case StatusLive:
		return 1
	case StatusFinished:
		return 2
	default:
		return 0
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinished:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	return status, status.Valid()
}

// MatchweekOrigin records how a fixture's matchweek was decided.
type MatchweekOrigin string

const (
	MatchweekInferred  MatchweekOrigin = "inferred"
	MatchweekExplicit  MatchweekOrigin = "explicit"
	MatchweekCorrected MatchweekOrigin = "corrected"
)

var (
	ErrMissingID        = errors.New("fixture id is empty")
	ErrMissingClub      = errors.New("fixture club name is empty")
	ErrSameClub         = errors.New("home and away club are the same")
	ErrMissingKickoff   = errors.New("fixture kickoff is missing")
	ErrInvalidStatus    = errors.New("fixture status is invalid")
	ErrMissingScore     = errors.New("finished fixture has no score")
	ErrUnexpectedScore  = errors.New("scheduled fixture carries a score")
	ErrPartialScore     = errors.New("fixture score is incomplete")
	ErrNegativeScore    = errors.New("fixture score is negative")
	ErrInvalidMatchweek = errors.New("fixture matchweek is out of range")
)

// Fixture is the canonical, reconciled record of one real-world match.
type Fixture struct {
	ID              string
	HomeTeam        string
	AwayTeam        string
	KickoffAt       time.Time
	Status          Status
	HomeScore       *int
	AwayScore       *int
	Matchweek       int
	MatchweekOrigin MatchweekOrigin
	IsDerby         bool
	Competition     string
	Season          string
	SourceID        string
	SourcePriority  int
	UpdatedAt       time.Time
}

func (f Fixture) HasScore() bool {
	return f.HomeScore != nil && f.AwayScore != nil
}

// Validate checks the invariants every stored fixture must satisfy.
// maxMatchweek <= 0 skips the upper bound.
func (f Fixture) Validate(maxMatchweek int) error {
	switch {
	case strings.TrimSpace(f.ID) == "":
		return ErrMissingID
	case strings.TrimSpace(f.HomeTeam) == "", strings.TrimSpace(f.AwayTeam) == "":
		return ErrMissingClub
	case strings.EqualFold(strings.TrimSpace(f.HomeTeam), strings.TrimSpace(f.AwayTeam)):
		return fmt.Errorf("%w: %s", ErrSameClub, f.HomeTeam)
	case f.KickoffAt.IsZero():
		return ErrMissingKickoff
	case !f.Status.Valid():
		return fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	case (f.HomeScore == nil) != (f.AwayScore == nil):
		return ErrPartialScore
	case f.HasScore() && (*f.HomeScore < 0 || *f.AwayScore < 0):
		return ErrNegativeScore
	case f.Status == StatusFinished && !f.HasScore():
		return ErrMissingScore
	case f.Status == StatusScheduled && f.HasScore():
		return ErrUnexpectedScore
	case f.Matchweek < 0, maxMatchweek > 0 && f.Matchweek > maxMatchweek:
		return fmt.Errorf("%w: %d", ErrInvalidMatchweek, f.Matchweek)
	}
	return nil
}

func (f Fixture) Clone() Fixture {
	out := f
	out.HomeScore = cloneIntPtr(f.HomeScore)
	out.AwayScore = cloneIntPtr(f.AwayScore)
	return out
}

// Filter narrows fixture listings; zero values match everything.
type Filter struct {
	Season    string
	Matchweek int
	Status    Status
}

func (f Filter) Matches(item Fixture) bool {
	if f.Season != "" && item.Season != f.Season {
		return false
	}
	if f.Matchweek > 0 && item.Matchweek != f.Matchweek {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	return true
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func IntPtr(value int) *int {
	return &value
}
