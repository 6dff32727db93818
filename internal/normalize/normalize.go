package normalize

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/GHILLIExSTEW/sportfeed/external/provider"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

// ErrSkipGame marks a raw object that cannot become a canonical game
// because its required identity fields are absent. Callers drop the
// row and keep going.
var ErrSkipGame = crerr.New("raw game missing required fields")

// Normalizer converts raw provider objects into canonical games.
type Normalizer struct {
	logger *logging.Logger
	now    func() time.Time
}

func New(logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{
		logger: logger,
		now:    time.Now,
	}
}

// Game normalizes one raw provider object for the given league. It
// returns ErrSkipGame when the object has no external id or no start
// time at all.
func (n *Normalizer) Game(ctx context.Context, league catalog.League, raw provider.RawGame) (game.Game, error) {
	fields := extractorFor(league.Sport)(raw.Fields)

	out := game.Game{
		ExternalID:   fields.ID,
		Sport:        league.Sport,
		LeagueID:     league.ID,
		LeagueName:   league.Name,
		Season:       league.Season,
		HomeTeamID:   fields.HomeID,
		HomeTeamName: fields.HomeName,
		AwayTeamID:   fields.AwayID,
		AwayTeamName: fields.AwayName,
		Status:       mapStatus(fields.StatusCode),
		Venue:        fields.Venue,
		RawPayload:   string(raw.Raw),
		FetchedAt:    n.now().UTC(),
	}
	out.Score = buildScore(fields.HomeScore, fields.AwayScore)
	out.StartTime, out.StartTimeRaw = parseStartTime(fields.Date, fields.Timestamp)

	if err := out.Validate(); err != nil {
		n.logger.WarnContext(ctx, "dropping raw game",
			"sport", league.Sport,
			"league_id", league.ID,
			"error", err,
		)
		return game.Game{}, crerr.Mark(err, ErrSkipGame)
	}
	if out.StartTimeRaw != "" {
		n.logger.WarnContext(ctx, "keeping unparseable start time",
			"sport", league.Sport,
			"external_id", out.ExternalID,
			"start_time_raw", out.StartTimeRaw,
		)
	}

	return out, nil
}

// buildScore keeps the score nil unless the provider reported both
// sides; zero is a legitimate in-progress value.
func buildScore(home, away *int) *game.Score {
	if home == nil || away == nil {
		return nil
	}
	return &game.Score{Home: *home, Away: *away}
}

var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseStartTime converts the provider timestamp to UTC. When every
// layout fails the original string is preserved instead of being lost.
func parseStartTime(date string, timestamp int64) (time.Time, string) {
	if date != "" {
		for _, layout := range startTimeLayouts {
			if at, err := time.Parse(layout, date); err == nil {
				return at.UTC(), ""
			}
		}
	}
	if timestamp > 0 {
		return time.Unix(timestamp, 0).UTC(), ""
	}

	return time.Time{}, date
}

// statusCodes maps provider schedule vocabulary onto the canonical
// statuses. Codes outside the table pass through verbatim so a new
// provider status is visible downstream instead of failing the row.
var statusCodes = map[string]game.Status{
	"NS":          game.StatusScheduled,
	"TBD":         game.StatusScheduled,
	"SCHEDULED":   game.StatusScheduled,
	"1H":          game.StatusLive,
	"2H":          game.StatusLive,
	"Q1":          game.StatusLive,
	"Q2":          game.StatusLive,
	"Q3":          game.StatusLive,
	"Q4":          game.StatusLive,
	"OT":          game.StatusLive,
	"ET":          game.StatusLive,
	"BT":          game.StatusLive,
	"P":           game.StatusLive,
	"LIVE":        game.StatusLive,
	"IN PLAY":     game.StatusLive,
	"IN PROGRESS": game.StatusLive,
	"HT":          game.StatusHalftime,
	"HALFTIME":    game.StatusHalftime,
	"FT":          game.StatusFinished,
	"AET":         game.StatusFinished,
	"AOT":         game.StatusFinished,
	"PEN":         game.StatusFinished,
	"FINAL":       game.StatusFinished,
	"FINISHED":    game.StatusFinished,
	"PST":         game.StatusPostponed,
	"POST":        game.StatusPostponed,
	"POSTPONED":   game.StatusPostponed,
	"CANC":        game.StatusCancelled,
	"ABD":         game.StatusCancelled,
	"CANCELLED":   game.StatusCancelled,
}

func mapStatus(code string) game.Status {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return game.StatusUnknown
	}
	if status, ok := statusCodes[strings.ToUpper(trimmed)]; ok {
		return status
	}
	return game.Status(trimmed)
}
