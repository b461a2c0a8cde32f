package pubsub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/protocol"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

const (
	outboundBuffer = 128
	writeWait      = 30 * time.Second
	pingInterval   = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin is accepted; put the gateway behind a proxy to restrict it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClient is one WebSocket connection and the hub subscriptions it holds,
// one per channel.
type wsClient struct {
	id     string
	conn   *websocket.Conn
	logger *logging.ColoredLogger

	out  chan protocol.Frame
	done chan struct{}

	mu   sync.Mutex
	subs map[string]*pubsub.Subscription
}

// newWSClient creates a new WebSocket client wrapper
func newWSClient(id string, conn *websocket.Conn, logger *logging.ColoredLogger) *wsClient {
	return &wsClient{
		id:     id,
		conn:   conn,
		logger: logger,
		out:    make(chan protocol.Frame, outboundBuffer),
		done:   make(chan struct{}),
		subs:   make(map[string]*pubsub.Subscription),
	}
}

// enqueue queues f for the writer without blocking. It reports false when
// the frame was dropped because the client is slow or gone.
func (c *wsClient) enqueue(f protocol.Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- f:
		return true
	default:
		return false
	}
}

// handlerFor returns the hub handler that forwards channel's messages to
// this client.
func (c *wsClient) handlerFor(channel string) pubsub.MessageHandler {
	return func(_ string, data []byte) error {
		if !c.enqueue(protocol.Frame{Op: protocol.OpMessage, Channel: channel, Data: data}) {
			c.logger.ComponentWarn(logging.ComponentGateway, "pubsub ws: client slow, dropping message",
				zap.String("conn_id", c.id),
				zap.String("channel", channel))
		}
		return nil
	}
}

// writeFrame sends a frame to the WebSocket client
func (c *wsClient) writeFrame(f protocol.Frame) error {
	b, err := protocol.Encode(f)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// writeControl sends a WebSocket control message
func (c *wsClient) writeControl(messageType int, data []byte, deadline time.Time) error {
	return c.conn.WriteControl(messageType, data, deadline)
}

// subscription returns the hub subscription the client holds on channel.
func (c *wsClient) subscription(channel string) (*pubsub.Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[channel]
	return sub, ok
}

func (c *wsClient) addSubscription(sub *pubsub.Subscription) {
	c.mu.Lock()
	c.subs[sub.Channel()] = sub
	c.mu.Unlock()
}

func (c *wsClient) removeSubscription(channel string) (*pubsub.Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[channel]
	if ok {
		delete(c.subs, channel)
	}
	return sub, ok
}

// releaseAll drops every hub subscription the client holds.
func (c *wsClient) releaseAll(ctx context.Context) {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*pubsub.Subscription)
	c.mu.Unlock()

	for ch, sub := range subs {
		if err := sub.Unsubscribe(ctx); err != nil {
			c.logger.ComponentWarn(logging.ComponentGateway, "pubsub ws: release failed",
				zap.String("conn_id", c.id),
				zap.String("channel", ch),
				zap.Error(err))
		}
	}
}
