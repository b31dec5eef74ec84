package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"go-match/internal/scoring"
	"go-match/internal/state"
	"go-match/internal/trial"

	"github.com/jonboulle/clockwork"
)

// MockStorage is an in-memory ScoreStorage.
type MockStorage struct {
	Entries []scoring.ScoreHistoryEntry
	err     error
}

func (m *MockStorage) LoadAll(context.Context) ([]scoring.ScoreHistoryEntry, error) {
	return m.Entries, m.err
}

func (m *MockStorage) Append(_ context.Context, e scoring.ScoreHistoryEntry) error {
	if m.err != nil {
		return m.err
	}
	m.Entries = append(m.Entries, e)
	return nil
}

type recordingSink struct {
	results []scoring.Result
	err     error
}

func (r *recordingSink) HandleResult(_ context.Context, res scoring.Result) error {
	r.results = append(r.results, res)
	return r.err
}

func sessionOptions(store scoring.ScoreStorage) SessionOptions {
	return SessionOptions{
		Game: Options{
			Pairs:  2,
			Pool:   []string{"A", "B"},
			Player: "kid",
			Clock:  clockwork.NewFakeClock(),
			Rand:   rand.New(rand.NewSource(3)),
		},
		Storage: store,
	}
}

func winRound(t *testing.T, s *Session) {
	t.Helper()
	pos := positions(s.CurrentGame)
	for _, sym := range []string{"A", "B"} {
		if _, err := s.Flip(pos[sym][0]); err != nil {
			t.Fatalf("flip %s: %v", sym, err)
		}
		if _, err := s.Flip(pos[sym][1]); err != nil {
			t.Fatalf("flip %s: %v", sym, err)
		}
	}
	if s.CurrentGame.Snapshot().Status != state.StatusComplete {
		t.Fatal("round should be complete")
	}
}

func TestSession_Init(t *testing.T) {
	store := &MockStorage{Entries: []scoring.ScoreHistoryEntry{
		{Player: "kid", Pairs: 2, Score: 70},
		{Player: "kid", Pairs: 8, Score: 90},
		{Player: "other", Pairs: 2, Score: 99},
	}}

	sess, err := NewSession(context.Background(), sessionOptions(store))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer sess.Close()

	if sess.CurrentGame == nil {
		t.Fatal("CurrentGame should be initialized")
	}
	if sess.History.Attempts != 1 {
		t.Errorf("Expected 1 prior attempt on this board, got %d", sess.History.Attempts)
	}
	if sess.History.GetHighScoreEntry().Score != 70 {
		t.Errorf("Expected high score 70, got %d", sess.History.GetHighScoreEntry().Score)
	}
	if sess.RoundsPlayed() != 0 || sess.TotalScore() != 0 {
		t.Error("New session should have no completed rounds")
	}
	if sess.LastResult() != nil {
		t.Error("LastResult should be nil before any round completes")
	}
}

func TestSession_Progression(t *testing.T) {
	store := &MockStorage{}
	sink := &recordingSink{}
	opts := sessionOptions(store)
	opts.Sinks = sink

	sess, err := NewSession(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer sess.Close()

	if err := sess.NextRound(); !errors.Is(err, ErrRoundInProgress) {
		t.Errorf("Expected ErrRoundInProgress, got %v", err)
	}

	winRound(t, sess)

	if sess.RoundsPlayed() != 1 {
		t.Errorf("Expected 1 round played, got %d", sess.RoundsPlayed())
	}
	if sess.TotalScore() != scoring.MaxScore {
		t.Errorf("Expected total %d, got %d", scoring.MaxScore, sess.TotalScore())
	}
	if len(store.Entries) != 1 || store.Entries[0].Player != "kid" {
		t.Errorf("Expected one stored entry for kid, got %+v", store.Entries)
	}
	if len(sink.results) != 1 {
		t.Fatalf("Expected sink to receive 1 result, got %d", len(sink.results))
	}
	if !sess.History.GotHighScore() {
		t.Error("First round should be a high score")
	}

	if err := sess.NextRound(); err != nil {
		t.Fatalf("NextRound failed: %v", err)
	}
	if sess.CurrentGame.Snapshot().Status != state.StatusIdle {
		t.Error("Next round should start idle")
	}

	winRound(t, sess)

	if sess.RoundsPlayed() != 2 {
		t.Errorf("Expected 2 rounds played, got %d", sess.RoundsPlayed())
	}
	if sess.TotalScore() != 2*scoring.MaxScore {
		t.Errorf("Expected total %d, got %d", 2*scoring.MaxScore, sess.TotalScore())
	}
	if sess.History.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", sess.History.Attempts)
	}
	last := sess.LastResult()
	if last == nil || last.RoundID != sess.CurrentGame.Snapshot().RoundID {
		t.Error("LastResult should be the current round")
	}
}

func TestSession_RestartDoesNotRecord(t *testing.T) {
	store := &MockStorage{}
	sess, err := NewSession(context.Background(), sessionOptions(store))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer sess.Close()

	pos := positions(sess.CurrentGame)
	_, _ = sess.Flip(pos["A"][0])
	if err := sess.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if sess.RoundsPlayed() != 0 || len(store.Entries) != 0 {
		t.Error("Abandoned rounds should not be recorded")
	}
}

func TestSession_SinkErrorDoesNotStopRecording(t *testing.T) {
	store := &MockStorage{}
	opts := sessionOptions(store)
	opts.Sinks = &recordingSink{err: errors.New("points service down")}

	sess, err := NewSession(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer sess.Close()

	winRound(t, sess)
	if len(store.Entries) != 1 {
		t.Errorf("Expected the round to be stored despite sink error")
	}
	if sess.RoundsPlayed() != 1 {
		t.Errorf("Expected 1 round played, got %d", sess.RoundsPlayed())
	}
}

func TestSession_StorageError(t *testing.T) {
	store := &MockStorage{err: errors.New("disk gone")}
	if _, err := NewSession(context.Background(), sessionOptions(store)); err == nil {
		t.Error("Expected history load error")
	}
}

func TestSession_TrialGate(t *testing.T) {
	opts := sessionOptions(&MockStorage{})
	opts.Gate = trial.NewGate(trial.NewMemoryStore())

	sess, err := NewSession(context.Background(), opts)
	if err != nil {
		t.Fatalf("First trial should be allowed: %v", err)
	}
	sess.Close()

	if _, err := NewSession(context.Background(), opts); !errors.Is(err, trial.ErrTrialUsed) {
		t.Errorf("Expected ErrTrialUsed, got %v", err)
	}
}
