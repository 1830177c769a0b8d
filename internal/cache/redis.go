// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "set_actions"

// GameActionRecord holds the minimal info needed by the historian to persist one engine action.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	Round         int                    `json:"round"`
	ActionIndex   int                    `json:"action_index"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis opens a client for addr/db and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisPublisher pushes action records onto a Redis list.
type RedisPublisher struct {
	client redis.Cmdable
	queue  string
}

// NewRedisPublisher returns a publisher writing to queue. An empty queue name
// falls back to DefaultQueueName.
func NewRedisPublisher(client redis.Cmdable, queue string) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisPublisher{client: client, queue: queue}
}

// Queue returns the list name records are pushed to.
func (p *RedisPublisher) Queue() string {
	return p.queue
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (p *RedisPublisher) PublishGameAction(ctx context.Context, record GameActionRecord) error {
	data, err := EncodeGameAction(record)
	if err != nil {
		return err
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// EncodeGameAction marshals a record into its queue form.
func EncodeGameAction(record GameActionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	return data, nil
}

// DecodeGameAction parses a queue entry. Records without a game ID are rejected.
func DecodeGameAction(data []byte) (GameActionRecord, error) {
	var rec GameActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal GameActionRecord: %w", err)
	}
	if rec.GameID == uuid.Nil {
		return rec, fmt.Errorf("GameActionRecord missing game_id")
	}
	return rec, nil
}
