package game

import (
	"fmt"
	"strings"
	"time"
)

// Status is the canonical schedule state of a game. Unrecognized
// provider vocabulary is carried verbatim in the same field so a new
// provider status never fails normalization.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusHalftime  Status = "HALFTIME"
	StatusFinished  Status = "FINISHED"
	StatusPostponed Status = "POSTPONED"
	StatusCancelled Status = "CANCELLED"
	StatusUnknown   Status = "UNKNOWN"
)

// Terminal reports whether a status makes the game eligible for
// pruning.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Canonical() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusHalftime, StatusFinished, StatusPostponed, StatusCancelled, StatusUnknown:
		return true
	default:
		return false
	}
}

// Score is a sport-agnostic final or running tally. A nil *Score means
// the provider reported nothing; zero is a valid in-progress value.
type Score struct {
	Home int
	Away int
}

// Game is the canonical, sport-agnostic event record persisted by the
// ingestion engine. ExternalID is globally unique per provider; a later
// fetch of the same id updates the same row.
type Game struct {
	ExternalID   string
	Sport        string
	LeagueID     int64
	LeagueName   string
	Season       int
	HomeTeamID   string
	HomeTeamName string
	AwayTeamID   string
	AwayTeamName string
	StartTime    time.Time
	// StartTimeRaw preserves the provider's original timestamp string
	// when it could not be converted to UTC.
	StartTimeRaw string
	Status       Status
	Score        *Score
	Venue        string
	RawPayload   string
	FetchedAt    time.Time
	UpdatedAt    time.Time
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.ExternalID) == "" {
		return fmt.Errorf("game external id is required")
	}
	if g.StartTime.IsZero() && strings.TrimSpace(g.StartTimeRaw) == "" {
		return fmt.Errorf("game start time is required")
	}
	return nil
}

// ManualEntryID identifies the synthetic row returned first by every
// upcoming-games query so consuming UIs always have a manual fallback.
const ManualEntryID = "manual"

func ManualEntry(leagueID int64, season int) Game {
	return Game{
		ExternalID:   ManualEntryID,
		LeagueID:     leagueID,
		Season:       season,
		HomeTeamName: "Manual Entry",
		AwayTeamName: "Manual Entry",
		Status:       StatusUnknown,
	}
}
