// Package olricbus carries hub traffic over the publish/subscribe facility
// of an Olric cluster.
package olricbus

import (
	"context"
	"fmt"
	"time"

	olriclib "github.com/olric-data/olric"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/redisbus"
)

const (
	defaultServer  = "localhost:3320"
	defaultTimeout = 10 * time.Second
)

// Config holds configuration for the Olric client
type Config struct {
	// Servers is a list of Olric server addresses (e.g., ["localhost:3320"])
	// If empty, defaults to ["localhost:3320"]
	Servers []string

	// Timeout bounds Publish calls. If zero, defaults to 10 seconds
	Timeout time.Duration
}

// Backend is a redisbus.Backend on an Olric cluster client.
type Backend struct {
	client  olriclib.Client
	ps      *olriclib.PubSub
	timeout time.Duration
}

// NewBackend opens a cluster client and its pub/sub handle.
func NewBackend(cfg Config) (*Backend, error) {
	servers := cfg.Servers
	if len(servers) == 0 {
		servers = []string{defaultServer}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	client, err := olriclib.NewClusterClient(servers)
	if err != nil {
		return nil, fmt.Errorf("failed to create Olric cluster client: %w", err)
	}

	ps, err := client.NewPubSub()
	if err != nil {
		client.Close(context.Background())
		return nil, fmt.Errorf("failed to create Olric pubsub: %w", err)
	}

	return &Backend{client: client, ps: ps, timeout: timeout}, nil
}

// Subscribe implements redisbus.Backend.
func (b *Backend) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return b.ps.Subscribe(ctx, channels...)
}

// Publish implements redisbus.Backend. The receiver count Olric reports is
// discarded; zero receivers is not an error.
func (b *Backend) Publish(ctx context.Context, channel string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if _, err := b.ps.Publish(ctx, channel, data); err != nil {
		return fmt.Errorf("olric publish failed: %w", err)
	}
	return nil
}

// Close implements redisbus.Backend.
func (b *Backend) Close(ctx context.Context) error {
	return b.client.Close(ctx)
}

// Dial connects to the cluster and returns a Transport on it. It retries
// with exponential backoff while the cluster is unreachable.
func Dial(ctx context.Context, cfg Config, logger *logging.ColoredLogger) (*redisbus.Transport, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	backend, err := dialWithRetry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.ComponentInfo(logging.ComponentOlric, "Olric pubsub client ready",
		zap.Strings("servers", cfg.Servers),
		zap.Duration("timeout", backend.timeout))

	return redisbus.NewTransport(backend, logger, logging.ComponentOlric), nil
}

const (
	dialMaxAttempts    = 5
	dialInitialBackoff = 500 * time.Millisecond
	dialMaxBackoff     = 5 * time.Second
)

func dialWithRetry(ctx context.Context, cfg Config, logger *logging.ColoredLogger) (*Backend, error) {
	backoff := dialInitialBackoff

	for attempt := 1; ; attempt++ {
		backend, err := NewBackend(cfg)
		if err == nil {
			if attempt > 1 {
				logger.ComponentInfo(logging.ComponentOlric, "Olric client initialized after retries",
					zap.Int("attempts", attempt))
			}
			return backend, nil
		}

		if attempt == dialMaxAttempts {
			return nil, fmt.Errorf("failed to initialize Olric client after %d attempts: %w", attempt, err)
		}

		logger.ComponentWarn(logging.ComponentOlric, "Olric client init attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > dialMaxBackoff {
			backoff = dialMaxBackoff
		}
	}
}
