package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"traject/internal/shared/events"

	"github.com/redis/go-redis/v9"
)

const (
	redisDialTimeout  = 5 * time.Second
	redisReadTimeout  = 5 * time.Second
	redisWriteTimeout = 5 * time.Second
	redisPoolSize     = 10

	// defaultStreamMaxLen caps each topic stream; XADD trims approximately.
	defaultStreamMaxLen = 100_000
)

// RedisStreams publishes envelopes to one Redis stream per topic.
type RedisStreams struct {
	client *redis.Client
	prefix string
	maxLen int64
	logger *slog.Logger
}

func NewRedisStreams(addr string, prefix string, logger *slog.Logger) (*RedisStreams, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisReadTimeout,
		WriteTimeout: redisWriteTimeout,
		PoolSize:     redisPoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStreams{
		client: client,
		prefix: prefix,
		maxLen: defaultStreamMaxLen,
		logger: logger,
	}, nil
}

func (r *RedisStreams) Publish(ctx context.Context, topic string, event events.Envelope) error {
	values, err := streamValues(event)
	if err != nil {
		return err
	}
	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.streamName(topic),
		MaxLen: r.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", topic, err)
	}
	r.logger.Info("event published",
		"event", "redis_stream_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"stream_id", id,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (r *RedisStreams) Close() error {
	return r.client.Close()
}

func (r *RedisStreams) streamName(topic string) string {
	if r.prefix == "" {
		return topic
	}
	return r.prefix + ":" + topic
}

// streamValues flattens the envelope into stream fields. The full envelope is
// kept under "envelope" so consumers can decode it unchanged.
func streamValues(event events.Envelope) (map[string]any, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"event_id":      event.EventID,
		"event_type":    event.EventType,
		"partition_key": event.PartitionKey,
		"envelope":      string(payload),
	}, nil
}
