package reward

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-match/internal/scoring"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() scoring.Result {
	return scoring.NewResult(uuid.New(), "kid", 10, 20, 8, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
}

func TestReporter_DeliversOnce(t *testing.T) {
	var calls atomic.Int32
	rp := NewReporter(HandlerFunc(func(context.Context, scoring.Result) error {
		calls.Add(1)
		return nil
	}), nil)

	r := sampleResult()
	assert.True(t, rp.Report(context.Background(), r))
	assert.False(t, rp.Report(context.Background(), r))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rp.Report(context.Background(), r)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestReporter_HandlerErrorNotRetried(t *testing.T) {
	var calls int
	rp := NewReporter(HandlerFunc(func(context.Context, scoring.Result) error {
		calls++
		return errors.New("points service down")
	}), nil)

	assert.True(t, rp.Report(context.Background(), sampleResult()))
	assert.False(t, rp.Report(context.Background(), sampleResult()))
	assert.Equal(t, 1, calls)
}

func TestReporter_NilHandler(t *testing.T) {
	rp := NewReporter(nil, nil)
	assert.True(t, rp.Report(context.Background(), sampleResult()))
}

func TestMulti_FansOut(t *testing.T) {
	var got []string
	record := func(name string, err error) Handler {
		return HandlerFunc(func(context.Context, scoring.Result) error {
			got = append(got, name)
			return err
		})
	}

	boom := errors.New("boom")
	m := Multi{record("a", nil), nil, record("b", boom), record("c", nil)}

	err := m.HandleResult(context.Background(), sampleResult())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestAsync_DeliversInBackground(t *testing.T) {
	release := make(chan struct{})
	done := make(chan scoring.Result, 1)
	a := NewAsync(HandlerFunc(func(ctx context.Context, r scoring.Result) error {
		<-release
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		done <- r
		return nil
	}), time.Second, nil)

	r := sampleResult()
	require.NoError(t, a.HandleResult(context.Background(), r))

	close(release)
	a.Wait()
	assert.Equal(t, r, <-done)
}

func TestHTTPSink_PostsResult(t *testing.T) {
	var (
		gotAuth string
		gotBody pointsRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	r := sampleResult()
	err := NewHTTPSink(srv.URL, "secret", srv.Client()).HandleResult(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, GameName, gotBody.Game)
	assert.Equal(t, r.Score, gotBody.Result.Score)
	assert.Equal(t, r.RoundID, gotBody.Result.RoundID)
	assert.Equal(t, scoring.MaxScore, gotBody.Result.MaxScore)
}

func TestHTTPSink_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPSink(srv.URL, "", nil).HandleResult(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "502")
}

type fakePusher struct {
	key    string
	values []interface{}
	err    error
}

func (f *fakePusher) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = values
	return redis.NewIntResult(int64(len(values)), f.err)
}

func TestRedisQueue_PushesJSON(t *testing.T) {
	p := &fakePusher{}
	r := sampleResult()

	require.NoError(t, NewRedisQueue(p, "").HandleResult(context.Background(), r))
	assert.Equal(t, DefaultQueueName, p.key)
	require.Len(t, p.values, 1)

	var decoded scoring.Result
	require.NoError(t, json.Unmarshal(p.values[0].([]byte), &decoded))
	assert.Equal(t, r.RoundID, decoded.RoundID)
	assert.Equal(t, r.Score, decoded.Score)
	assert.Equal(t, r.Moves, decoded.Moves)
	assert.True(t, r.CompletedAt.Equal(decoded.CompletedAt))
}

func TestRedisQueue_Error(t *testing.T) {
	p := &fakePusher{err: errors.New("READONLY")}
	err := NewRedisQueue(p, "points").HandleResult(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "points")
	assert.ErrorContains(t, err, "READONLY")
}
