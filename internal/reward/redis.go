package reward

import (
	"context"
	"encoding/json"
	"fmt"

	"go-match/internal/scoring"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the points consumer reads from.
const DefaultQueueName = "go_match_results"

// ListPusher is the part of *redis.Client used by RedisQueue.
type ListPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisQueue pushes each result as JSON onto a Redis list.
type RedisQueue struct {
	rdb   ListPusher
	queue string
}

// NewRedisQueue pushes onto queue, or DefaultQueueName when empty.
func NewRedisQueue(rdb ListPusher, queue string) *RedisQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisQueue{rdb: rdb, queue: queue}
}

func (q *RedisQueue) HandleResult(ctx context.Context, r scoring.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}
