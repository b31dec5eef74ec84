package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Scoring constants for a single round.
const (
	MaxScore             = 100
	MinScore             = 10
	MovePenalty          = 3
	GracePeriodSeconds   = 30
	TimePenaltyPerSecond = 0.5
)

// Score maps a finished round to a score in [MinScore, MaxScore].
// A round with exactly one move per pair inside the grace period scores MaxScore.
func Score(moves, duration, pairs int) int {
	extraMoves := max(0, moves-pairs)
	extraSeconds := max(0, duration-GracePeriodSeconds)

	raw := float64(MaxScore) -
		float64(extraMoves*MovePenalty) -
		float64(extraSeconds)*TimePenaltyPerSecond

	score := int(math.Round(raw))
	return min(MaxScore, max(MinScore, score))
}

// Result is the immutable summary of a completed round.
type Result struct {
	RoundID     uuid.UUID `json:"roundId"`
	Player      string    `json:"player,omitempty"`
	Pairs       int       `json:"pairs"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	Duration    int       `json:"duration"`
	Moves       int       `json:"moves"`
	CompletedAt time.Time `json:"completedAt"`
}

// NewResult scores a finished round.
func NewResult(roundID uuid.UUID, player string, moves, duration, pairs int, completedAt time.Time) Result {
	return Result{
		RoundID:     roundID,
		Player:      player,
		Pairs:       pairs,
		Score:       Score(moves, duration, pairs),
		MaxScore:    MaxScore,
		Duration:    duration,
		Moves:       moves,
		CompletedAt: completedAt,
	}
}
