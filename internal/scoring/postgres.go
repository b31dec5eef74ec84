package scoring

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const scoresTable = "match_scores"

const createScoresTableSQL = `
CREATE TABLE IF NOT EXISTS match_scores (
	id          BIGSERIAL PRIMARY KEY,
	player      TEXT        NOT NULL,
	pairs       INT         NOT NULL,
	score       INT         NOT NULL,
	moves       INT         NOT NULL,
	duration    INT         NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_match_scores_player_pairs ON match_scores(player, pairs);
`

// Querier is the subset of *pgxpool.Pool used by PostgresStorage.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStorage keeps score history in a Postgres table.
type PostgresStorage struct {
	db   Querier
	psql sq.StatementBuilderType
}

// NewPostgresStorage wraps a pgx pool (or anything with the same Exec/Query).
func NewPostgresStorage(db Querier) *PostgresStorage {
	return &PostgresStorage{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the scores table if it does not exist.
func (s *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createScoresTableSQL); err != nil {
		return fmt.Errorf("create %s: %w", scoresTable, err)
	}
	return nil
}

// LoadAll returns every stored entry, best scores first.
func (s *PostgresStorage) LoadAll(ctx context.Context) ([]ScoreHistoryEntry, error) {
	query, args, err := s.psql.
		Select("player", "pairs", "score", "moves", "duration", "recorded_at").
		From(scoresTable).
		OrderBy("score DESC", "recorded_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", scoresTable, err)
	}
	defer rows.Close()

	entries := make([]ScoreHistoryEntry, 0)
	for rows.Next() {
		var (
			e          ScoreHistoryEntry
			recordedAt time.Time
		)
		if err := rows.Scan(&e.Player, &e.Pairs, &e.Score, &e.Moves, &e.Duration, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", scoresTable, err)
		}
		e.Timestamp = recordedAt.UTC().Format(time.RFC3339)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", scoresTable, err)
	}
	return entries, nil
}

// Append inserts one entry.
func (s *PostgresStorage) Append(ctx context.Context, entry ScoreHistoryEntry) error {
	recordedAt, err := time.Parse(time.RFC3339, entry.Timestamp)
	if err != nil {
		recordedAt = time.Now().UTC()
	}

	query, args, err := s.psql.
		Insert(scoresTable).
		Columns("player", "pairs", "score", "moves", "duration", "recorded_at").
		Values(entry.Player, entry.Pairs, entry.Score, entry.Moves, entry.Duration, recordedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", scoresTable, err)
	}
	return nil
}
