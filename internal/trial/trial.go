// Package trial tracks which games a player has already used their free
// trial on. Storage is an injected key-value capability.
package trial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTrialUsed is returned by Gate.Begin when the free trial is spent.
var ErrTrialUsed = errors.New("trial already used")

// Store is a minimal key-value capability.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Gate decides whether a player may start a trial round of a game.
type Gate struct {
	store     Store
	prefix    string
	unlimited bool
	now       func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithPrefix namespaces keys in a shared store.
func WithPrefix(prefix string) Option {
	return func(g *Gate) { g.prefix = prefix }
}

// Unlimited disables gating, e.g. for subscribed players.
func Unlimited() Option {
	return func(g *Gate) { g.unlimited = true }
}

// WithNow overrides the clock used to stamp trial starts.
func WithNow(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate builds a Gate over store.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{store: store, prefix: "trial", now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) key(player, game string) string {
	return fmt.Sprintf("%s:%s:%s", g.prefix, player, game)
}

// Tried reports whether player already started a trial of game.
func (g *Gate) Tried(ctx context.Context, player, game string) (bool, error) {
	_, ok, err := g.store.Get(ctx, g.key(player, game))
	if err != nil {
		return false, fmt.Errorf("trial lookup: %w", err)
	}
	return ok, nil
}

// Begin consumes the player's trial of game. It returns ErrTrialUsed if the
// trial was already consumed, unless the gate is unlimited.
func (g *Gate) Begin(ctx context.Context, player, game string) error {
	if g.unlimited {
		return nil
	}
	tried, err := g.Tried(ctx, player, game)
	if err != nil {
		return err
	}
	if tried {
		return ErrTrialUsed
	}
	if err := g.store.Set(ctx, g.key(player, game), g.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("trial record: %w", err)
	}
	return nil
}

// MemoryStore keeps trial state in process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
