package game

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"go-match/internal/deck"
	"go-match/internal/reward"
	"go-match/internal/scoring"
	"go-match/internal/state"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Round timing defaults.
const (
	DefaultCooldown     = 800 * time.Millisecond
	DefaultTickInterval = time.Second
)

// Options configures a Game. Zero values take the defaults.
type Options struct {
	Pairs        int
	Pool         []string
	Cooldown     time.Duration
	TickInterval time.Duration
	Player       string

	Clock clockwork.Clock
	Rand  *rand.Rand

	// OnComplete receives each finished round exactly once.
	OnComplete reward.Handler
	// OnChange is called after state changes driven by timers.
	OnChange func()

	Logger logrus.FieldLogger
}

// Game encapsulates the round logic and timers, independent of the UI.
// All mutations are serialised so flips and timer callbacks never overlap.
type Game struct {
	mu sync.Mutex

	opts    Options
	clock   clockwork.Clock
	builder *deck.Builder
	log     logrus.FieldLogger

	State    *state.State
	RoundID  uuid.UUID
	reporter *reward.Reporter

	// generation is bumped on restart; timer callbacks from older rounds are ignored.
	generation uint64
	cooldown   clockwork.Timer
	ticker     clockwork.Ticker
	tickerDone chan struct{}
}

// NewGame validates opts and deals the first round.
func NewGame(opts Options) (*Game, error) {
	if opts.Pairs == 0 {
		opts.Pairs = deck.DefaultPairs
	}
	if opts.Pool == nil {
		opts.Pool = deck.DefaultPool()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	builder, err := deck.NewBuilder(opts.Pool, opts.Rand)
	if err != nil {
		return nil, err
	}

	g := &Game{
		opts:    opts,
		clock:   opts.Clock,
		builder: builder,
		log:     opts.Logger,
	}
	if err := g.deal(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) deal() error {
	cards, err := g.builder.Build(g.opts.Pairs)
	if err != nil {
		return err
	}
	g.State = state.NewState(cards, g.clock)
	g.RoundID = uuid.New()
	g.reporter = reward.NewReporter(g.opts.OnComplete, g.log)
	g.log.WithFields(logrus.Fields{"round": g.RoundID, "pairs": g.opts.Pairs}).Debug("round dealt")
	return nil
}

// Flip attempts to reveal card id. Rejected flips return state.OutcomeRejected
// and an error matching state.ErrIllegalTransition; nothing changes.
func (g *Game) Flip(id int) (state.Outcome, error) {
	g.mu.Lock()

	st := g.State
	wasIdle := st.Status == state.StatusIdle
	outcome, err := st.Flip(context.Background(), id)
	if err != nil {
		g.mu.Unlock()
		g.log.WithFields(logrus.Fields{"card": id, "phase": st.Phase()}).WithError(err).Debug("flip rejected")
		return outcome, err
	}

	if wasIdle {
		g.startTicker()
	}

	var (
		result   scoring.Result
		reporter *reward.Reporter
	)
	switch outcome {
	case state.OutcomeMismatch:
		g.scheduleFlipBack()
	case state.OutcomeComplete:
		g.stopTimers()
		result = scoring.NewResult(g.RoundID, g.opts.Player, st.Moves, st.Duration, st.Pairs, st.CompletedAt)
		reporter = g.reporter
		g.log.WithFields(logrus.Fields{
			"round":    g.RoundID,
			"moves":    result.Moves,
			"duration": result.Duration,
			"score":    result.Score,
		}).Info("round complete")
	}
	g.mu.Unlock()

	// Handlers run outside the lock so they may read the game.
	if reporter != nil {
		reporter.Report(context.Background(), result)
	}
	return outcome, nil
}

// Restart cancels pending timers and deals a fresh idle round.
func (g *Game) Restart() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopTimers()
	g.generation++
	return g.deal()
}

// Close stops any running timers.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimers()
	g.generation++
}

// Must be called with g.mu held.
func (g *Game) scheduleFlipBack() {
	gen := g.generation
	g.cooldown = g.clock.AfterFunc(g.opts.Cooldown, func() {
		g.flipBack(gen)
	})
}

func (g *Game) flipBack(gen uint64) {
	g.mu.Lock()
	if gen != g.generation || !g.State.IsChecking {
		g.mu.Unlock()
		return
	}
	g.cooldown = nil
	if err := g.State.FlipBack(context.Background()); err != nil {
		g.log.WithError(err).Warn("flip back failed")
	}
	g.mu.Unlock()
	g.changed()
}

// Must be called with g.mu held.
func (g *Game) startTicker() {
	ticker := g.clock.NewTicker(g.opts.TickInterval)
	done := make(chan struct{})
	g.ticker, g.tickerDone = ticker, done

	gen := g.generation
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				g.tick(gen)
			}
		}
	}()
}

func (g *Game) tick(gen uint64) {
	g.mu.Lock()
	if gen != g.generation || g.State.Status != state.StatusPlaying {
		g.mu.Unlock()
		return
	}
	g.State.Tick(g.clock.Now())
	g.mu.Unlock()
	g.changed()
}

// Must be called with g.mu held.
func (g *Game) stopTimers() {
	if g.cooldown != nil {
		g.cooldown.Stop()
		g.cooldown = nil
	}
	if g.ticker != nil {
		g.ticker.Stop()
		close(g.tickerDone)
		g.ticker, g.tickerDone = nil, nil
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func (g *Game) changed() {
	if g.opts.OnChange != nil {
		g.opts.OnChange()
	}
}

// Snapshot is a copy of the round for renderers.
type Snapshot struct {
	RoundID      uuid.UUID
	Cards        []deck.Card
	Pairs        int
	Status       state.Status
	Phase        string
	Moves        int
	MatchedPairs int
	Duration     int
	FirstPick    int
	SecondPick   int
	IsChecking   bool
	Score        int // live score, final once complete
}

// Snapshot copies the current round state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.State
	return Snapshot{
		RoundID:      g.RoundID,
		Cards:        append([]deck.Card(nil), st.Cards...),
		Pairs:        st.Pairs,
		Status:       st.Status,
		Phase:        st.Phase(),
		Moves:        st.Moves,
		MatchedPairs: st.MatchedPairs,
		Duration:     st.Duration,
		FirstPick:    st.FirstPick,
		SecondPick:   st.SecondPick,
		IsChecking:   st.IsChecking,
		Score:        scoring.Score(st.Moves, st.Duration, st.Pairs),
	}
}
