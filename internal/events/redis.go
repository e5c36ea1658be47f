package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Keep roughly a day of events at one-per-few-seconds rates.
const streamMaxLen = 50_000

// RedisRecorder appends events to a Redis stream so dashboards and
// downstream jobs can tail the audit trail.
type RedisRecorder struct {
	client *goredis.Client
	stream string
	log    *slog.Logger
}

// NewRedisRecorder connects to Redis and pings it before use.
func NewRedisRecorder(addr, password, stream string, log *slog.Logger) (*RedisRecorder, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("events: redis ping: %w", err)
	}

	log.Info("event stream connected", "addr", addr, "stream", stream)
	return &RedisRecorder{client: client, stream: stream, log: log}, nil
}

func (r *RedisRecorder) Record(ctx context.Context, ev Event) {
	err := r.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: r.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(ev.JSON())},
	}).Err()
	if err != nil {
		r.log.Warn("event stream write failed", "type", ev.Type, "err", err)
	}
}

// Close releases the Redis connection.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
