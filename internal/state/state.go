package state

import (
	"context"
	"errors"
	"time"

	"go-match/internal/deck"

	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"
)

// Status is the coarse lifecycle of a round.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome describes what an accepted (or rejected) flip did.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeFirstPick
	OutcomeMatch
	OutcomeMismatch
	OutcomeComplete // a match that resolved the last pair
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeFirstPick:
		return "first_pick"
	case OutcomeMatch:
		return "match"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// NoPick marks an empty pick slot.
const NoPick = -1

// FSM state names.
const (
	Idle           = "idle"
	starting       = "starting"
	revealingFirst = "revealingFirst"
	PickingFirst   = "pickingFirst"
	PickingSecond  = "pickingSecond"
	comparing      = "comparing"
	matched        = "matched"
	Checking       = "checking"
	Complete       = "complete"
)

// State is one round of Memory Match. It has a single writer; callers
// serialise Flip, FlipBack and Tick.
type State struct {
	Cards        []deck.Card
	Pairs        int
	Status       Status
	Moves        int
	MatchedPairs int
	StartTime    time.Time // zero while idle
	Duration     int       // whole seconds since StartTime
	FirstPick    int
	SecondPick   int
	IsChecking   bool
	CompletedAt  time.Time
	FSM          *fsm.FSM

	clock    clockwork.Clock
	current  int // card being flipped in the running event
	outcome  Outcome
	rejected error
}

// NewState starts a round over a freshly dealt deck.
func NewState(cards []deck.Card, clock clockwork.Clock) *State {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &State{
		Cards:      cards,
		Pairs:      len(cards) / 2,
		Status:     StatusIdle,
		FirstPick:  NoPick,
		SecondPick: NoPick,
		clock:      clock,
		current:    NoPick,
	}

	s.FSM = fsm.NewFSM(
		Idle,
		getStateTransitions(),
		getStateCallbacks(s),
	)
	return s
}

// Flip attempts to reveal card id. A rejected flip changes nothing and
// returns OutcomeRejected with an error matching ErrIllegalTransition.
func (s *State) Flip(ctx context.Context, id int) (Outcome, error) {
	s.rejected = nil
	s.outcome = OutcomeRejected

	err := s.FSM.Event(ctx, "flip", id)
	if s.rejected != nil {
		return OutcomeRejected, s.rejected
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return OutcomeRejected, rejectionFor(invalid.State)
	}
	if err != nil {
		return OutcomeRejected, err
	}
	return s.outcome, nil
}

// FlipBack ends a mismatch cooldown, hiding both picked cards.
func (s *State) FlipBack(ctx context.Context) error {
	return s.FSM.Event(ctx, "flipBack")
}

// Tick recomputes Duration while the round is playing.
func (s *State) Tick(now time.Time) {
	if s.Status != StatusPlaying {
		return
	}
	s.updateDuration(now)
}

func (s *State) updateDuration(now time.Time) {
	elapsed := int(now.Sub(s.StartTime) / time.Second)
	if elapsed > s.Duration {
		s.Duration = elapsed
	}
}

func getStateTransitions() []fsm.EventDesc {
	return fsm.Events{
		// First flip of the round starts the clock
		{Name: "flip", Src: []string{Idle}, Dst: starting},
		{Name: "begin", Src: []string{starting}, Dst: revealingFirst},

		{Name: "flip", Src: []string{PickingFirst}, Dst: revealingFirst},
		{Name: "revealed", Src: []string{revealingFirst}, Dst: PickingSecond},

		// Second pick of a pair
		{Name: "flip", Src: []string{PickingSecond}, Dst: comparing},
		{Name: "match", Src: []string{comparing}, Dst: matched},
		{Name: "mismatch", Src: []string{comparing}, Dst: Checking},

		{Name: "next", Src: []string{matched}, Dst: PickingFirst},
		{Name: "finish", Src: []string{matched}, Dst: Complete},

		// Cooldown over
		{Name: "flipBack", Src: []string{Checking}, Dst: PickingFirst},
	}
}

func getStateCallbacks(s *State) map[string]fsm.Callback {
	return fsm.Callbacks{
		"before_flip": func(_ context.Context, e *fsm.Event) {
			id, ok := cardArg(e)
			if !ok || id < 0 || id >= len(s.Cards) {
				s.rejected = ErrCardOutOfRange
				e.Cancel(s.rejected)
				return
			}
			if !s.Cards[id].Hidden() {
				s.rejected = ErrCardUnavailable
				e.Cancel(s.rejected)
				return
			}
			s.current = id
		},
		"enter_" + starting: func(ctx context.Context, e *fsm.Event) {
			s.Status = StatusPlaying
			s.StartTime = s.clock.Now()
			e.FSM.Event(ctx, "begin")
		},
		"enter_" + revealingFirst: func(ctx context.Context, e *fsm.Event) {
			s.Cards[s.current].IsFlipped = true
			s.FirstPick = s.current
			s.outcome = OutcomeFirstPick
			e.FSM.Event(ctx, "revealed")
		},
		"enter_" + comparing: func(ctx context.Context, e *fsm.Event) {
			s.Cards[s.current].IsFlipped = true
			s.Moves++
			if s.Cards[s.FirstPick].Symbol == s.Cards[s.current].Symbol {
				e.FSM.Event(ctx, "match")
				return
			}
			e.FSM.Event(ctx, "mismatch")
		},
		"enter_" + matched: func(ctx context.Context, e *fsm.Event) {
			s.Cards[s.FirstPick].IsMatched = true
			s.Cards[s.current].IsMatched = true
			s.MatchedPairs++
			s.clearPicks()

			if s.MatchedPairs == s.Pairs {
				e.FSM.Event(ctx, "finish")
				return
			}
			s.outcome = OutcomeMatch
			e.FSM.Event(ctx, "next")
		},
		"enter_" + Checking: func(_ context.Context, e *fsm.Event) {
			s.SecondPick = s.current
			s.IsChecking = true
			s.outcome = OutcomeMismatch
		},
		"leave_" + Checking: func(_ context.Context, e *fsm.Event) {
			s.Cards[s.FirstPick].IsFlipped = false
			s.Cards[s.SecondPick].IsFlipped = false
			s.clearPicks()
			s.IsChecking = false
		},
		"enter_" + Complete: func(_ context.Context, e *fsm.Event) {
			now := s.clock.Now()
			s.updateDuration(now)
			s.CompletedAt = now
			s.Status = StatusComplete
			s.outcome = OutcomeComplete
		},
	}
}
