package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier implements Notifier using Redis pub/sub
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisClient parses redisURL and pings the server
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (r *RedisNotifier) Publish(ctx context.Context, n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(n)
	if err != nil {
		logger.Log.Error("Failed to encode notification", zap.Error(err))
		return
	}

	if err := r.client.Publish(ctx, Channel, data).Err(); err != nil {
		logger.Log.Warn("Failed to publish notification",
			zap.String("type", string(n.Type)),
			zap.Uint("recipient_id", n.RecipientID),
			zap.Error(err),
		)
		return
	}

	logger.Log.Debug("Notification published",
		zap.String("type", string(n.Type)),
		zap.Uint("recipient_id", n.RecipientID),
		zap.Uint("reference_id", n.ReferenceID),
	)
}

// Subscribe waits for the subscription to be confirmed so nothing published
// after it returns is missed.
func (r *RedisNotifier) Subscribe(ctx context.Context) (<-chan Notification, error) {
	pubsub := r.client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan Notification, 100)

	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logger.Log.Warn("Dropping malformed notification", zap.Error(err))
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
