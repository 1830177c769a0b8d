// internal/cache/queue.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue pops action records pushed by a RedisPublisher.
type RedisQueue struct {
	client redis.Cmdable
	queue  string
}

// NewRedisQueue reads from queue, or DefaultQueueName when empty.
func NewRedisQueue(client redis.Cmdable, queue string) *RedisQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisQueue{client: client, queue: queue}
}

// Pop blocks up to timeout for the next entry. It returns nil, nil when the queue stayed empty.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BLPop(ctx, timeout, q.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", q.queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}
