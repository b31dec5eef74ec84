package scoring

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ScoreHistoryEntry is a single stored score for a player on a board size.
type ScoreHistoryEntry struct {
	Player    string `json:"player"`
	Pairs     int    `json:"pairs"`
	Score     int    `json:"score"`
	Moves     int    `json:"moves"`
	Duration  int    `json:"duration"`
	Timestamp string `json:"timestamp"`
}

// EntryFromResult converts a round result into a storable entry.
func EntryFromResult(r Result) ScoreHistoryEntry {
	return ScoreHistoryEntry{
		Player:    r.Player,
		Pairs:     r.Pairs,
		Score:     r.Score,
		Moves:     r.Moves,
		Duration:  r.Duration,
		Timestamp: r.CompletedAt.UTC().Format(time.RFC3339),
	}
}

// ScoreHistory holds the score data for one player and board size,
// including past entries and the latest recorded round.
type ScoreHistory struct {
	Player         string
	Pairs          int
	Entries        []ScoreHistoryEntry
	HighScoreEntry *ScoreHistoryEntry
	CurrentScore   *ScoreHistoryEntry
	Attempts       int

	storage ScoreStorage
}

// LoadHistory loads all stored entries for player on a board of pairs pairs.
func LoadHistory(ctx context.Context, storage ScoreStorage, player string, pairs int) (*ScoreHistory, error) {
	allEntries, err := storage.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load score history: %w", err)
	}

	filtered := []ScoreHistoryEntry{}
	for _, entry := range allEntries {
		if entry.Player == player && entry.Pairs == pairs {
			filtered = append(filtered, entry)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	sh := &ScoreHistory{
		Player:   player,
		Pairs:    pairs,
		Entries:  filtered,
		Attempts: len(filtered),
		storage:  storage,
	}
	if len(filtered) > 0 {
		sh.HighScoreEntry = &filtered[0]
	}
	return sh, nil
}

// Record persists a finished round and makes it the current entry.
// The high score is compared against history as it was before this round.
func (sh *ScoreHistory) Record(ctx context.Context, r Result) error {
	entry := EntryFromResult(r)
	if err := sh.storage.Append(ctx, entry); err != nil {
		return fmt.Errorf("could not save score: %w", err)
	}

	if sh.CurrentScore != nil {
		sh.Entries = append(sh.Entries, *sh.CurrentScore)
		sort.SliceStable(sh.Entries, func(i, j int) bool {
			return sh.Entries[i].Score > sh.Entries[j].Score
		})
		sh.HighScoreEntry = &sh.Entries[0]
	}
	sh.Attempts++
	sh.CurrentScore = &entry
	return nil
}

// GetHighScoreEntry returns the highest score entry from the loaded history.
func (sh ScoreHistory) GetHighScoreEntry() *ScoreHistoryEntry {
	return sh.HighScoreEntry
}

// GetNScoreEntries returns the top N entries, the current one included, sorted by score.
func (sh ScoreHistory) GetNScoreEntries(n int) []ScoreHistoryEntry {
	entriesCopy := make([]ScoreHistoryEntry, len(sh.Entries), len(sh.Entries)+1)
	copy(entriesCopy, sh.Entries)
	if sh.CurrentScore != nil {
		entriesCopy = append(entriesCopy, *sh.CurrentScore)
	}

	sort.SliceStable(entriesCopy, func(i, j int) bool {
		return entriesCopy[i].Score > entriesCopy[j].Score
	})

	if len(entriesCopy) < n {
		return entriesCopy
	}
	return entriesCopy[:n]
}

// GotHighScore checks if the current score is greater than or equal to the
// previously recorded high score.
func (sh ScoreHistory) GotHighScore() bool {
	if sh.HighScoreEntry == nil || sh.CurrentScore == nil {
		// No previous score, or nothing played yet: vacuously a high score.
		return true
	}
	return sh.CurrentScore.Score >= sh.HighScoreEntry.Score
}
