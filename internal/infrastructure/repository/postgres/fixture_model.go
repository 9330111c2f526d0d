package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/fixture"
)

var fixtureColumns = []string{
	"id",
	"home_team",
	"away_team",
	"kickoff_at",
	"status",
	"status_rank",
	"home_score",
	"away_score",
	"matchweek",
	"matchweek_origin",
	"is_derby",
	"competition",
	"season",
	"source_id",
	"source_priority",
	"updated_at",
}

type fixtureTableModel struct {
	ID              string        `db:"id"`
	HomeTeam        string        `db:"home_team"`
	AwayTeam        string        `db:"away_team"`
	KickoffAt       time.Time     `db:"kickoff_at"`
	Status          string        `db:"status"`
	StatusRank      int           `db:"status_rank"`
	HomeScore       sql.NullInt64 `db:"home_score"`
	AwayScore       sql.NullInt64 `db:"away_score"`
	Matchweek       int           `db:"matchweek"`
	MatchweekOrigin string        `db:"matchweek_origin"`
	IsDerby         bool          `db:"is_derby"`
	Competition     string        `db:"competition"`
	Season          string        `db:"season"`
	SourceID        string        `db:"source_id"`
	SourcePriority  int           `db:"source_priority"`
	UpdatedAt       sql.NullTime  `db:"updated_at"`
}

func fixtureToRow(item fixture.Fixture) fixtureTableModel {
	updatedAt := sql.NullTime{}
	if !item.UpdatedAt.IsZero() {
		updatedAt = sql.NullTime{Time: item.UpdatedAt.UTC(), Valid: true}
	}
	return fixtureTableModel{
		ID:              item.ID,
		HomeTeam:        item.HomeTeam,
		AwayTeam:        item.AwayTeam,
		KickoffAt:       item.KickoffAt.UTC(),
		Status:          string(item.Status),
		StatusRank:      item.Status.Rank(),
		HomeScore:       nullableInt(item.HomeScore),
		AwayScore:       nullableInt(item.AwayScore),
		Matchweek:       item.Matchweek,
		MatchweekOrigin: string(item.MatchweekOrigin),
		IsDerby:         item.IsDerby,
		Competition:     item.Competition,
		Season:          item.Season,
		SourceID:        item.SourceID,
		SourcePriority:  item.SourcePriority,
		UpdatedAt:       updatedAt,
	}
}

func fixtureFromRow(row fixtureTableModel) fixture.Fixture {
	return fixture.Fixture{
		ID:              row.ID,
		HomeTeam:        row.HomeTeam,
		AwayTeam:        row.AwayTeam,
		KickoffAt:       row.KickoffAt.UTC(),
		Status:          fixture.Status(row.Status),
		HomeScore:       nullInt64ToIntPtr(row.HomeScore),
		AwayScore:       nullInt64ToIntPtr(row.AwayScore),
		Matchweek:       row.Matchweek,
		MatchweekOrigin: fixture.MatchweekOrigin(row.MatchweekOrigin),
		IsDerby:         row.IsDerby,
		Competition:     row.Competition,
		Season:          row.Season,
		SourceID:        row.SourceID,
		SourcePriority:  row.SourcePriority,
		UpdatedAt:       nullTimeToTime(row.UpdatedAt),
	}
}
