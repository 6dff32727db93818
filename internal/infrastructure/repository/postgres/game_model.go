package postgres

import (
	"database/sql"
	"time"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
)

type gameModel struct {
	ExternalID   string         `db:"external_id"`
	Sport        string         `db:"sport"`
	LeagueID     int64          `db:"league_id"`
	LeagueName   string         `db:"league_name"`
	Season       int            `db:"season"`
	HomeTeamID   string         `db:"home_team_id"`
	HomeTeamName string         `db:"home_team_name"`
	AwayTeamID   string         `db:"away_team_id"`
	AwayTeamName string         `db:"away_team_name"`
	StartTime    sql.NullTime   `db:"start_time"`
	StartTimeRaw string         `db:"start_time_raw"`
	Status       string         `db:"status"`
	HomeScore    sql.NullInt64  `db:"home_score"`
	AwayScore    sql.NullInt64  `db:"away_score"`
	Venue        string         `db:"venue"`
	RawPayload   string         `db:"raw_payload"`
	FetchedAt    time.Time      `db:"fetched_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

var gameColumns = []string{
	"external_id",
	"sport",
	"league_id",
	"league_name",
	"season",
	"home_team_id",
	"home_team_name",
	"away_team_id",
	"away_team_name",
	"start_time",
	"start_time_raw",
	"status",
	"home_score",
	"away_score",
	"venue",
	"raw_payload",
	"fetched_at",
	"updated_at",
}

func newGameModel(item game.Game) gameModel {
	out := gameModel{
		ExternalID:   item.ExternalID,
		Sport:        item.Sport,
		LeagueID:     item.LeagueID,
		LeagueName:   item.LeagueName,
		Season:       item.Season,
		HomeTeamID:   item.HomeTeamID,
		HomeTeamName: item.HomeTeamName,
		AwayTeamID:   item.AwayTeamID,
		AwayTeamName: item.AwayTeamName,
		StartTimeRaw: item.StartTimeRaw,
		Status:       string(item.Status),
		Venue:        item.Venue,
		RawPayload:   item.RawPayload,
		FetchedAt:    item.FetchedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
	if !item.StartTime.IsZero() {
		out.StartTime = sql.NullTime{Time: item.StartTime.UTC(), Valid: true}
	}
	if item.Score != nil {
		out.HomeScore = sql.NullInt64{Int64: int64(item.Score.Home), Valid: true}
		out.AwayScore = sql.NullInt64{Int64: int64(item.Score.Away), Valid: true}
	}

	return out
}

func (m gameModel) toDomain() game.Game {
	out := game.Game{
		ExternalID:   m.ExternalID,
		Sport:        m.Sport,
		LeagueID:     m.LeagueID,
		LeagueName:   m.LeagueName,
		Season:       m.Season,
		HomeTeamID:   m.HomeTeamID,
		HomeTeamName: m.HomeTeamName,
		AwayTeamID:   m.AwayTeamID,
		AwayTeamName: m.AwayTeamName,
		StartTimeRaw: m.StartTimeRaw,
		Status:       game.Status(m.Status),
		Venue:        m.Venue,
		RawPayload:   m.RawPayload,
		FetchedAt:    m.FetchedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.StartTime.Valid {
		out.StartTime = m.StartTime.Time.UTC()
	}
	if m.HomeScore.Valid && m.AwayScore.Valid {
		out.Score = &game.Score{
			Home: int(m.HomeScore.Int64),
			Away: int(m.AwayScore.Int64),
		}
	}

	return out
}
