package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("notify: redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("notify: connect to redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}

// RedisChannel fans change notifications out to every front-desk process
// through a Redis pub/sub channel.
type RedisChannel struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisChannel publishes and subscribes on channel.
func NewRedisChannel(client *redis.Client, channel string, logger *slog.Logger) *RedisChannel {
	if channel == "" {
		channel = "frontdesk:changes"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisChannel{client: client, channel: channel, logger: logger}
}

// Publish encodes change as JSON and publishes it.
func (r *RedisChannel) Publish(ctx context.Context, change Change) error {
	payload, err := encodeChange(change)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", r.channel, err)
	}
	return nil
}

// Subscribe confirms the subscription and then forwards decoded changes
// until ctx is cancelled. Undecodable payloads are logged and skipped.
func (r *RedisChannel) Subscribe(ctx context.Context) (<-chan Change, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("notify: subscribe to %s: %w", r.channel, err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, err := decodeChange(msg.Payload)
				if err != nil {
					r.logger.WarnContext(ctx, "skipping malformed change notification", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func encodeChange(change Change) ([]byte, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("notify: encode change: %w", err)
	}
	return payload, nil
}

func decodeChange(payload string) (Change, error) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Change{}, fmt.Errorf("notify: decode change: %w", err)
	}
	if change.Kind == "" {
		return Change{}, errors.New("notify: change without kind")
	}
	return change, nil
}
