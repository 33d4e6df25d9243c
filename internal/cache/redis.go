// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/kingscup/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list session actions are pushed onto.
const DefaultQueueName = "kingscup_actions"

// Connect creates a client for addr/db and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionPublisher pushes session actions onto a Redis queue for the historian.
type ActionPublisher struct {
	rdb   redis.Cmdable
	queue string
}

// NewActionPublisher publishes onto queue, or DefaultQueueName when queue is empty.
func NewActionPublisher(rdb redis.Cmdable, queue string) *ActionPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionPublisher{rdb: rdb, queue: queue}
}

// RecordAction serializes the action to JSON and appends it to the queue.
func (p *ActionPublisher) RecordAction(ctx context.Context, action models.SessionAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal session action: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Queue names the list this publisher writes to.
func (p *ActionPublisher) Queue() string {
	return p.queue
}
