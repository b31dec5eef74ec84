package state

import (
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// ErrIllegalTransition is matched by every rejected flip.
var ErrIllegalTransition = errors.New("illegal transition")

var (
	ErrChecking        = fmt.Errorf("%w: mismatch cooldown in progress", ErrIllegalTransition)
	ErrRoundComplete   = fmt.Errorf("%w: round is complete", ErrIllegalTransition)
	ErrCardUnavailable = fmt.Errorf("%w: card already flipped or matched", ErrIllegalTransition)
	ErrCardOutOfRange  = fmt.Errorf("%w: no such card", ErrIllegalTransition)
)

func rejectionFor(current string) error {
	switch current {
	case Checking:
		return ErrChecking
	case Complete:
		return ErrRoundComplete
	default:
		return fmt.Errorf("%w: flip not allowed in state %s", ErrIllegalTransition, current)
	}
}

func cardArg(e *fsm.Event) (int, bool) {
	if len(e.Args) == 0 {
		return 0, false
	}
	id, ok := e.Args[0].(int)
	return id, ok
}

func (s *State) clearPicks() {
	s.FirstPick = NoPick
	s.SecondPick = NoPick
	s.current = NoPick
}

// Phase is the current FSM state name.
func (s *State) Phase() string {
	return s.FSM.Current()
}

// IsComplete reports whether every pair has been matched.
func (s *State) IsComplete() bool {
	return s.Status == StatusComplete
}

// CanFlip reports whether a flip of id would currently be accepted.
func (s *State) CanFlip(id int) bool {
	if !s.FSM.Can("flip") {
		return false
	}
	return id >= 0 && id < len(s.Cards) && s.Cards[id].Hidden()
}

// Remaining is the number of unmatched pairs.
func (s *State) Remaining() int {
	return s.Pairs - s.MatchedPairs
}
