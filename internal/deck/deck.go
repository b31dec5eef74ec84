package deck

import (
	"errors"
	"fmt"
	"math/rand"
)

// DefaultPairs is the number of pairs dealt when no size is configured.
const DefaultPairs = 8

// ErrInvalidConfiguration is returned when a deck cannot be dealt from the
// requested pair count and symbol pool.
var ErrInvalidConfiguration = errors.New("invalid deck configuration")

// Card is a single card in a dealt deck. ID is its position in the deal.
type Card struct {
	ID        int    `json:"id"`
	Symbol    string `json:"symbol"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
}

// Hidden reports whether the card is face down and unresolved.
func (c Card) Hidden() bool {
	return !c.IsFlipped && !c.IsMatched
}

// DefaultPool returns the stock set of 16 symbols.
func DefaultPool() []string {
	return []string{
		"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼",
		"🐨", "🐯", "🦁", "🐮", "🐷", "🐸", "🐵", "🐔",
	}
}

// Builder deals decks from a fixed, validated pool.
type Builder struct {
	pool []string
	rng  *rand.Rand
}

// NewBuilder validates pool and returns a Builder over a private copy of it.
// A nil rng uses the package-level source.
func NewBuilder(pool []string, rng *rand.Rand) (*Builder, error) {
	if err := validatePool(pool); err != nil {
		return nil, err
	}
	return &Builder{pool: append([]string(nil), pool...), rng: rng}, nil
}

// PoolSize is the number of distinct symbols available.
func (b *Builder) PoolSize() int {
	return len(b.pool)
}

// Build deals a fresh shuffled deck of 2*pairs cards.
func (b *Builder) Build(pairs int) ([]Card, error) {
	if pairs < 1 {
		return nil, fmt.Errorf("%w: pairs must be positive, got %d", ErrInvalidConfiguration, pairs)
	}
	if pairs > len(b.pool) {
		return nil, fmt.Errorf("%w: %d pairs requested but pool only has %d symbols",
			ErrInvalidConfiguration, pairs, len(b.pool))
	}

	symbols := append([]string(nil), b.pool...)
	b.shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})
	symbols = symbols[:pairs]

	cards := make([]Card, 0, 2*pairs)
	for _, sym := range symbols {
		cards = append(cards, Card{Symbol: sym}, Card{Symbol: sym})
	}
	b.shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	// Ids follow the final order
	for i := range cards {
		cards[i].ID = i
	}
	return cards, nil
}

func (b *Builder) shuffle(n int, swap func(i, j int)) {
	if b.rng != nil {
		b.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

// Build deals a deck in one call. See Builder.Build.
func Build(pairs int, pool []string, rng *rand.Rand) ([]Card, error) {
	b, err := NewBuilder(pool, rng)
	if err != nil {
		return nil, err
	}
	return b.Build(pairs)
}

func validatePool(pool []string) error {
	if len(pool) == 0 {
		return fmt.Errorf("%w: symbol pool is empty", ErrInvalidConfiguration)
	}
	seen := make(map[string]struct{}, len(pool))
	for i, sym := range pool {
		if sym == "" {
			return fmt.Errorf("%w: empty symbol at index %d", ErrInvalidConfiguration, i)
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidConfiguration, sym)
		}
		seen[sym] = struct{}{}
	}
	return nil
}
