// internal/historian/queue.go
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue yields raw action payloads one at a time.
type Queue interface {
	// Pop waits up to timeout for the next payload. ok is false when none arrived.
	Pop(ctx context.Context, timeout time.Duration) (payload string, ok bool, err error)
}

// RedisQueue pops from a Redis list with BLPOP.
type RedisQueue struct {
	rdb  redis.Cmdable
	name string
}

func NewRedisQueue(rdb redis.Cmdable, name string) *RedisQueue {
	return &RedisQueue{rdb: rdb, name: name}
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, bool, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// res[0] is the list name, res[1] the payload
	if len(res) < 2 {
		return "", false, nil
	}
	return res[1], true, nil
}
