package redisbus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string // host:port
	Password string // optional
	DB       int
}

// ClientBackend is a Backend on a plain go-redis client.
type ClientBackend struct {
	client *redis.Client
}

// NewClientBackend wraps an existing client.
func NewClientBackend(client *redis.Client) *ClientBackend {
	return &ClientBackend{client: client}
}

// Subscribe implements Backend.
func (b *ClientBackend) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return b.client.Subscribe(ctx, channels...)
}

// Publish implements Backend.
func (b *ClientBackend) Publish(ctx context.Context, channel string, data []byte) error {
	return b.client.Publish(ctx, channel, data).Err()
}

// Close implements Backend.
func (b *ClientBackend) Close(context.Context) error {
	return b.client.Close()
}

// Dial connects to Redis, verifies the connection with PING and returns a
// Transport on it.
func Dial(ctx context.Context, cfg Config, logger *logging.ColoredLogger) (*Transport, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.ComponentInfo(logging.ComponentRedis, "Connected to Redis",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return NewTransport(NewClientBackend(client), logger, logging.ComponentRedis), nil
}
