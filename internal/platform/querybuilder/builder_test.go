package querybuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWithConditionsAndOrder(t *testing.T) {
	query, args, err := Select("external_id", "status").
		From("games").
		Where(
			Eq("league_id", int64(12)),
			NotIn("status", []any{"FINISHED", "CANCELLED"}),
		).
		OrderBy("start_time ASC").
		Limit(10).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT external_id, status FROM games WHERE league_id = $1 AND status NOT IN ($2, $3) ORDER BY start_time ASC LIMIT 10",
		query)
	assert.Equal(t, []any{int64(12), "FINISHED", "CANCELLED"}, args)
}

func TestEmptyInAndNotInDegenerate(t *testing.T) {
	query, args, err := Select("external_id").
		From("games").
		Where(In("status", nil), NotIn("external_id", nil)).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT external_id FROM games WHERE 1=0 AND 1=1", query)
	assert.Empty(t, args)
}

func TestDeleteWithOrGrouping(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	query, args, err := DeleteFrom("games").
		Where(
			Or(
				In("status", []any{"FINISHED"}),
				Lt("start_time", now),
			),
			NotIn("external_id", []any{"wagered"}),
		).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t,
		"DELETE FROM games WHERE (status IN ($1) OR start_time < $2) AND external_id NOT IN ($3)",
		query)
	assert.Equal(t, []any{"FINISHED", now, "wagered"}, args)
}

func TestInsertWithSuffix(t *testing.T) {
	query, args, err := InsertInto("games").
		Columns("external_id", "status").
		Values("g1", "SCHEDULED").
		Suffix("ON CONFLICT (external_id) DO NOTHING").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO games (external_id, status) VALUES ($1, $2) ON CONFLICT (external_id) DO NOTHING",
		query)
	assert.Equal(t, []any{"g1", "SCHEDULED"}, args)
}

func TestInsertRowArityMismatch(t *testing.T) {
	_, _, err := InsertInto("games").
		Columns("external_id", "status").
		Values("g1").
		ToSQL()
	require.Error(t, err)
}

func TestInsertModelUsesDBTags(t *testing.T) {
	type row struct {
		ExternalID string `db:"external_id"`
		Status     string `db:"status"`
		Ignored    string `db:"-"`
		NoTag      string
	}

	query, args, err := InsertModel("games", row{ExternalID: "g1", Status: "LIVE", Ignored: "x", NoTag: "y"}, "")
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO games (external_id, status) VALUES ($1, $2)", query)
	assert.Equal(t, []any{"g1", "LIVE"}, args)
}

func TestExprRewritesPlaceholders(t *testing.T) {
	query, args, err := Select("external_id").
		From("games").
		Where(
			Eq("sport", "basketball"),
			Expr("start_time BETWEEN ? AND ?", "2025-06-01", "2025-06-07"),
		).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT external_id FROM games WHERE sport = $1 AND start_time BETWEEN $2 AND $3",
		query)
	assert.Equal(t, []any{"basketball", "2025-06-01", "2025-06-07"}, args)
}
