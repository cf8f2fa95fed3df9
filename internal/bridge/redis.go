package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nidhogg/agentsim/internal/event"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultStream = "agentsim:events"

// RedisBridge forwards flushed simulation events to a Redis Stream so
// external dashboards and tooling can follow the simulation without being
// wired into the process. It implements event.Observer.
type RedisBridge struct {
	rdb    *redis.Client
	stream string
	logger *zap.Logger
}

// NewRedisBridge connects to Redis and verifies the connection.
func NewRedisBridge(redisURL, stream string, logger *zap.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if stream == "" {
		stream = defaultStream
	}
	return &RedisBridge{rdb: rdb, stream: stream, logger: logger}, nil
}

// OnEvent implements event.Observer. Publish failures are logged and never
// propagate; the bridge is an observer, not a participant.
func (b *RedisBridge) OnEvent(e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		b.logger.Warn("marshal event", zap.Error(err))
		return
	}

	err = b.rdb.XAdd(context.Background(), &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		b.logger.Warn("publish event",
			zap.String("event", string(e.Type)),
			zap.Error(err))
	}
}

// Stream returns the stream key events are published to.
func (b *RedisBridge) Stream() string { return b.stream }

// Close shuts down the Redis connection.
func (b *RedisBridge) Close() error {
	return b.rdb.Close()
}
