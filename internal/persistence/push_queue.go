package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PushMessage is a notification handed to the external push deliverer.
type PushMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisPushQueue appends push messages to a redis list consumed by the deliverer.
type RedisPushQueue struct {
	client *redis.Client
	key    string
}

// NewRedisPushQueue builds a queue writing to key.
func NewRedisPushQueue(r *Redis, key string) *RedisPushQueue {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &RedisPushQueue{client: client, key: key}
}

// Enqueue pushes msg onto the head of the list.
func (q *RedisPushQueue) Enqueue(ctx context.Context, msg PushMessage) error {
	if q == nil || q.client == nil {
		return errors.New("push queue not configured")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Len reports how many messages wait for delivery.
func (q *RedisPushQueue) Len(ctx context.Context) (int64, error) {
	if q == nil || q.client == nil {
		return 0, errors.New("push queue not configured")
	}
	return q.client.LLen(ctx, q.key).Result()
}
