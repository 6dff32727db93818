package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases. Upsert
// must be idempotent per ExternalID and safe under concurrent callers.
type Repository interface {
	// Upsert inserts a game on first sight of its external id and
	// updates all mutable fields afterwards, preserving the original
	// FetchedAt. It reports whether a new row was created.
	Upsert(ctx context.Context, item Game) (bool, error)

	// ClearAll removes every row so a full refresh repopulates from a
	// clean slate.
	ClearAll(ctx context.Context) error

	// PrunePastAndFinished deletes rows whose status is terminal or
	// whose start time is in the past, except rows whose external id is
	// in the exempt set. It returns the number of rows removed.
	PrunePastAndFinished(ctx context.Context, now time.Time, exempt map[string]struct{}) (int, error)

	// ListUpcoming returns games for a league/season with the given
	// statuses excluded, manual-entry sentinel first.
	ListUpcoming(ctx context.Context, leagueID int64, season int, exclude []Status) ([]Game, error)

	// ListByExternalIDs returns the stored rows for the given ids,
	// silently skipping unknown ones.
	ListByExternalIDs(ctx context.Context, ids []string) ([]Game, error)
}
