package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
	sq "github.com/GHILLIExSTEW/sportfeed/internal/platform/querybuilder"
)

const gamesTable = "games"

// upsertSuffix keeps fetched_at from the first sighting of a row and
// reports via xmax whether the statement inserted rather than updated.
const upsertSuffix = `ON CONFLICT (external_id) DO UPDATE SET
	sport = EXCLUDED.sport,
	league_id = EXCLUDED.league_id,
	league_name = EXCLUDED.league_name,
	season = EXCLUDED.season,
	home_team_id = EXCLUDED.home_team_id,
	home_team_name = EXCLUDED.home_team_name,
	away_team_id = EXCLUDED.away_team_id,
	away_team_name = EXCLUDED.away_team_name,
	start_time = EXCLUDED.start_time,
	start_time_raw = EXCLUDED.start_time_raw,
	status = EXCLUDED.status,
	home_score = EXCLUDED.home_score,
	away_score = EXCLUDED.away_score,
	venue = EXCLUDED.venue,
	raw_payload = EXCLUDED.raw_payload,
	updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0)`

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

var _ game.Repository = (*GameRepository)(nil)

func (r *GameRepository) Upsert(ctx context.Context, item game.Game) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, fmt.Errorf("upsert game: %w", err)
	}

	model := newGameModel(item)
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now().UTC()
	}

	query, args, err := sq.InsertModel(gamesTable, model, upsertSuffix)
	if err != nil {
		return false, fmt.Errorf("build upsert game query: %w", err)
	}

	var inserted bool
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert game %s: %w", item.ExternalID, err)
	}

	return inserted, nil
}

func (r *GameRepository) ClearAll(ctx context.Context) error {
	query, args, err := sq.DeleteFrom(gamesTable).ToSQL()
	if err != nil {
		return fmt.Errorf("build clear games query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear games: %w", err)
	}

	return nil
}

func (r *GameRepository) PrunePastAndFinished(ctx context.Context, now time.Time, exempt map[string]struct{}) (int, error) {
	statuses := make([]any, 0, 3)
	for _, status := range []game.Status{game.StatusFinished, game.StatusPostponed, game.StatusCancelled} {
		statuses = append(statuses, string(status))
	}

	exemptIDs := make([]any, 0, len(exempt))
	for id := range exempt {
		exemptIDs = append(exemptIDs, id)
	}

	query, args, err := sq.DeleteFrom(gamesTable).
		Where(
			sq.Or(
				sq.In("status", statuses),
				sq.Lt("start_time", now.UTC()),
			),
			sq.NotIn("external_id", exemptIDs),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build prune games query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune games: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune games rows affected: %w", err)
	}

	return int(removed), nil
}

func (r *GameRepository) ListUpcoming(ctx context.Context, leagueID int64, season int, exclude []game.Status) ([]game.Game, error) {
	excluded := make([]any, 0, len(exclude))
	for _, status := range exclude {
		excluded = append(excluded, string(status))
	}

	query, args, err := sq.Select(gameColumns...).
		From(gamesTable).
		Where(
			sq.Eq("league_id", leagueID),
			sq.Eq("season", season),
			sq.NotIn("status", excluded),
		).
		OrderBy("start_time ASC NULLS LAST", "external_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list upcoming query: %w", err)
	}

	var models []gameModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list upcoming games: %w", err)
	}

	// The synthetic manual row leads so consumers always have a
	// fallback entry even for an empty schedule.
	out := make([]game.Game, 0, len(models)+1)
	out = append(out, game.ManualEntry(leagueID, season))
	for _, model := range models {
		out = append(out, model.toDomain())
	}

	return out, nil
}

func (r *GameRepository) ListByExternalIDs(ctx context.Context, ids []string) ([]game.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}

	query, args, err := sq.Select(gameColumns...).
		From(gamesTable).
		Where(sq.In("external_id", values)).
		OrderBy("external_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by id query: %w", err)
	}

	var models []gameModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list games by id: %w", err)
	}

	out := make([]game.Game, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}

	return out, nil
}
