// Package redisbus carries hub traffic over any server that speaks the Redis
// PUBLISH/SUBSCRIBE protocol. Redis itself and the Olric cluster both expose
// go-redis PubSub handles, so they share this Transport through Backend.
package redisbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

// Backend is the server-side half of the transport.
type Backend interface {
	// Subscribe opens a PubSub connection subscribed to channels.
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
	Publish(ctx context.Context, channel string, data []byte) error
	Close(ctx context.Context) error
}

// Transport implements pubsub.Transporter over a Backend. All channels share
// one PubSub connection, opened on the first Subscribe.
type Transport struct {
	backend   Backend
	logger    *logging.ColoredLogger
	component logging.Component

	mu       sync.Mutex
	conn     *redis.PubSub
	deliver  pubsub.DeliverFunc
	channels map[string]struct{}
	closed   bool
	wg       sync.WaitGroup
}

var _ pubsub.Transporter = (*Transport)(nil)

// NewTransport wraps backend. component tags log lines.
func NewTransport(backend Backend, logger *logging.ColoredLogger, component logging.Component) *Transport {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Transport{
		backend:   backend,
		logger:    logger,
		component: component,
		channels:  make(map[string]struct{}),
	}
}

// Connect implements pubsub.Transporter.
func (t *Transport) Connect(_ context.Context, deliver pubsub.DeliverFunc) error {
	if deliver == nil {
		return fmt.Errorf("deliver callback is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.ErrClosed
	}
	t.deliver = deliver
	return nil
}

// Publish implements pubsub.Transporter.
func (t *Transport) Publish(ctx context.Context, wireChannel string, data []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return errors.ErrClosed
	}
	return t.backend.Publish(ctx, wireChannel, data)
}

// Subscribe implements pubsub.Transporter.
func (t *Transport) Subscribe(ctx context.Context, wireChannel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.ErrClosed
	}
	if _, ok := t.channels[wireChannel]; ok {
		return nil
	}

	if t.conn == nil {
		conn := t.backend.Subscribe(ctx, wireChannel)
		// Wait for the server to confirm before handing the connection to
		// the reader goroutine.
		if _, err := conn.Receive(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("subscribe %s: %w", wireChannel, err)
		}
		t.conn = conn
		t.wg.Add(1)
		go t.readLoop(conn, t.deliver)
	} else if err := t.conn.Subscribe(ctx, wireChannel); err != nil {
		return fmt.Errorf("subscribe %s: %w", wireChannel, err)
	}

	t.channels[wireChannel] = struct{}{}
	t.logger.ComponentDebug(t.component, "Subscribed to channel", zap.String("channel", wireChannel))
	return nil
}

// Unsubscribe implements pubsub.Transporter.
func (t *Transport) Unsubscribe(ctx context.Context, wireChannel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.channels[wireChannel]; !ok || t.conn == nil {
		return nil
	}
	delete(t.channels, wireChannel)
	if err := t.conn.Unsubscribe(ctx, wireChannel); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", wireChannel, err)
	}
	t.logger.ComponentDebug(t.component, "Unsubscribed from channel", zap.String("channel", wireChannel))
	return nil
}

func (t *Transport) readLoop(conn *redis.PubSub, deliver pubsub.DeliverFunc) {
	defer t.wg.Done()
	for msg := range conn.Channel() {
		if deliver == nil {
			continue
		}
		deliver(msg.Channel, []byte(msg.Payload))
	}
}

// Close closes the PubSub connection, waits for the reader and closes the
// backend.
func (t *Transport) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.channels = make(map[string]struct{})
	t.mu.Unlock()

	var connErr error
	if conn != nil {
		connErr = conn.Close()
	}
	t.wg.Wait()

	if err := t.backend.Close(ctx); err != nil {
		return err
	}
	return connErr
}
