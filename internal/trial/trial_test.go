package trial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_OneTrialPerGame(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	store := NewMemoryStore()
	g := NewGate(store, WithNow(func() time.Time { return at }))

	tried, err := g.Tried(ctx, "kid", "memory-match")
	require.NoError(t, err)
	assert.False(t, tried)

	require.NoError(t, g.Begin(ctx, "kid", "memory-match"))
	assert.ErrorIs(t, g.Begin(ctx, "kid", "memory-match"), ErrTrialUsed)

	// Other players and other games are independent
	assert.NoError(t, g.Begin(ctx, "sibling", "memory-match"))
	assert.NoError(t, g.Begin(ctx, "kid", "puzzle"))

	v, ok, _ := store.Get(ctx, "trial:kid:memory-match")
	assert.True(t, ok)
	assert.Equal(t, "2026-02-03T04:05:06Z", v)
}

func TestGate_Unlimited(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryStore(), Unlimited())

	for i := 0; i < 3; i++ {
		assert.NoError(t, g.Begin(ctx, "kid", "memory-match"))
	}
}

func TestGate_Prefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, NewGate(store, WithPrefix("family42")).Begin(ctx, "kid", "memory-match"))

	_, ok, _ := store.Get(ctx, "family42:kid:memory-match")
	assert.True(t, ok)
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }

func TestGate_StoreError(t *testing.T) {
	boom := errors.New("store offline")
	err := NewGate(failingStore{err: boom}).Begin(context.Background(), "kid", "memory-match")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTrialUsed)
}

type fakeKV struct {
	data map[string]string
	err  error
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{data: map[string]string{}}
	s := NewRedisStore(kv)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	kv.err = errors.New("LOADING")
	_, _, err = s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", "v"))
}

func TestRedisStore_BacksGate(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewRedisStore(&fakeKV{data: map[string]string{}}))

	require.NoError(t, g.Begin(ctx, "kid", "memory-match"))
	assert.ErrorIs(t, g.Begin(ctx, "kid", "memory-match"), ErrTrialUsed)
}
