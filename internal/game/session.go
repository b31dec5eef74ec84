package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-match/internal/reward"
	"go-match/internal/scoring"
	"go-match/internal/state"
	"go-match/internal/trial"

	"github.com/sirupsen/logrus"
)

// ErrRoundInProgress is returned by NextRound before the current round completes.
var ErrRoundInProgress = errors.New("round still in progress")

// SessionOptions configures a Session.
type SessionOptions struct {
	Game    Options
	Storage scoring.ScoreStorage
	// Gate, when set, consumes the player's trial when the session starts.
	Gate *trial.Gate
	// Sinks receive every completed round after it is recorded.
	Sinks reward.Handler
}

// Session plays consecutive rounds for one player, recording each finished
// round in the score history and forwarding it to the reward sinks.
type Session struct {
	Player      string
	CurrentGame *Game
	History     *scoring.ScoreHistory

	mu           sync.Mutex
	totalScore   int
	roundsPlayed int
	lastResult   *scoring.Result

	sinks reward.Handler
	log   logrus.FieldLogger
}

// NewSession checks the trial gate, loads the player's history and deals the
// first round.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	gopts := opts.Game
	if gopts.Logger == nil {
		gopts.Logger = discardLogger()
	}
	log := gopts.Logger.WithField("player", gopts.Player)

	if opts.Gate != nil {
		if err := opts.Gate.Begin(ctx, gopts.Player, reward.GameName); err != nil {
			return nil, err
		}
	}

	storage := opts.Storage
	if storage == nil {
		storage = scoring.NopStorage{}
	}

	s := &Session{
		Player: gopts.Player,
		sinks:  opts.Sinks,
		log:    log,
	}

	gopts.OnComplete = reward.HandlerFunc(s.roundComplete)
	g, err := NewGame(gopts)
	if err != nil {
		return nil, err
	}

	hist, err := scoring.LoadHistory(ctx, storage, gopts.Player, g.State.Pairs)
	if err != nil {
		g.Close()
		return nil, err
	}

	s.CurrentGame = g
	s.History = hist
	return s, nil
}

func (s *Session) roundComplete(ctx context.Context, r scoring.Result) error {
	var errs []error
	if err := s.History.Record(ctx, r); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	s.totalScore += r.Score
	s.roundsPlayed++
	s.lastResult = &r
	s.mu.Unlock()

	if s.sinks != nil {
		if err := s.sinks.HandleResult(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("reward sinks: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Flip forwards to the current round.
func (s *Session) Flip(id int) (state.Outcome, error) {
	return s.CurrentGame.Flip(id)
}

// Restart abandons the current round and deals a new one.
func (s *Session) Restart() error {
	s.log.Debug("round restarted")
	return s.CurrentGame.Restart()
}

// NextRound deals a new round once the current one is complete.
func (s *Session) NextRound() error {
	if s.CurrentGame.Snapshot().Status != state.StatusComplete {
		return ErrRoundInProgress
	}
	return s.CurrentGame.Restart()
}

// TotalScore is the sum of scores over completed rounds.
func (s *Session) TotalScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalScore
}

// RoundsPlayed counts completed rounds.
func (s *Session) RoundsPlayed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundsPlayed
}

// LastResult is the most recent completed round, or nil.
func (s *Session) LastResult() *scoring.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil
	}
	r := *s.lastResult
	return &r
}

// Close stops the current round's timers.
func (s *Session) Close() {
	s.CurrentGame.Close()
}
