package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStorage_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS match_scores").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgresStorage(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	entry := ScoreHistoryEntry{Player: "kid", Pairs: 8, Score: 94, Moves: 10, Duration: 25, Timestamp: "2026-03-01T10:00:00Z"}
	recordedAt, _ := time.Parse(time.RFC3339, entry.Timestamp)

	mock.ExpectExec("INSERT INTO match_scores").
		WithArgs("kid", 8, 94, 10, 25, recordedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresStorage(mock).Append(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_AppendError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO match_scores").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err = NewPostgresStorage(mock).Append(context.Background(), ScoreHistoryEntry{Player: "kid", Pairs: 8})
	assert.ErrorContains(t, err, "connection reset")
}

func TestPostgresStorage_LoadAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"player", "pairs", "score", "moves", "duration", "recorded_at"}).
		AddRow("kid", 8, 100, 8, 20, at).
		AddRow("kid", 8, 61, 18, 45, at.Add(time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM match_scores ORDER BY score DESC").WillReturnRows(rows)

	entries, err := NewPostgresStorage(mock).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ScoreHistoryEntry{Player: "kid", Pairs: 8, Score: 100, Moves: 8, Duration: 20, Timestamp: "2026-03-01T10:00:00Z"}, entries[0])
	assert.Equal(t, 61, entries[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
