package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"pricedrop/priceworker/internal/model"
)

// RedisPublisher implements Publisher using a capped Redis stream
type RedisPublisher struct {
	client    *redis.Client
	stream    string
	maxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, maxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:    client,
		stream:    stream,
		maxLength: maxLength,
	}
}

// PublishDrop publishes a price drop event to the stream.
// The JSON payload is base64 encoded, and the stream is trimmed to the
// configured maximum length on every add.
func (p *RedisPublisher) PublishDrop(ctx context.Context, event model.PriceDropEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(payload)

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: int64(p.maxLength),
		Approx: true,
		Values: map[string]interface{}{
			"b64_price_drop": encoded,
		},
	}).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
