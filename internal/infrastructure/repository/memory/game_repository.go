package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
)

// GameRepository is the in-memory store used by tests and by runs that
// do not need durable persistence.
type GameRepository struct {
	mu    sync.RWMutex
	games map[string]game.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{games: make(map[string]game.Game)}
}

var _ game.Repository = (*GameRepository)(nil)

func (r *GameRepository) Upsert(_ context.Context, item game.Game) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, fmt.Errorf("upsert game: %w", err)
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.games[item.ExternalID]
	if ok {
		item.FetchedAt = existing.FetchedAt
	}
	r.games[item.ExternalID] = item

	return !ok, nil
}

func (r *GameRepository) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games = make(map[string]game.Game)
	return nil
}

func (r *GameRepository) PrunePastAndFinished(_ context.Context, now time.Time, exempt map[string]struct{}) (int, error) {
	now = now.UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, item := range r.games {
		if _, ok := exempt[id]; ok {
			continue
		}
		past := !item.StartTime.IsZero() && item.StartTime.Before(now)
		if item.Status.Terminal() || past {
			delete(r.games, id)
			removed++
		}
	}

	return removed, nil
}

func (r *GameRepository) ListUpcoming(_ context.Context, leagueID int64, season int, exclude []game.Status) ([]game.Game, error) {
	excluded := make(map[game.Status]struct{}, len(exclude))
	for _, status := range exclude {
		excluded[status] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.games)+1)
	out = append(out, game.ManualEntry(leagueID, season))
	for _, item := range r.games {
		if item.LeagueID != leagueID || item.Season != season {
			continue
		}
		if _, skip := excluded[item.Status]; skip {
			continue
		}
		out = append(out, item)
	}

	// Sentinel stays first; the rest sort by start time then id, with
	// zero start times last.
	sort.SliceStable(out[1:], func(i, j int) bool {
		a, b := out[i+1], out[j+1]
		if a.StartTime.IsZero() != b.StartTime.IsZero() {
			return !a.StartTime.IsZero()
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ExternalID < b.ExternalID
	})

	return out, nil
}

func (r *GameRepository) ListByExternalIDs(_ context.Context, ids []string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.games[id]; ok {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

// Len reports the number of stored games.
func (r *GameRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
