// Package wsclient is a Transporter that talks to a channelhub gateway over
// a single WebSocket connection.
package wsclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/protocol"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 10 * time.Second
)

// Config holds the gateway endpoint.
type Config struct {
	// URL is the gateway WebSocket endpoint, e.g. ws://localhost:6101/v1/pubsub/ws
	URL string

	HandshakeTimeout time.Duration
	Header           http.Header
}

// Transport implements pubsub.Transporter against a gateway.
type Transport struct {
	cfg    Config
	logger *logging.ColoredLogger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
	done    chan struct{}
}

var _ pubsub.Transporter = (*Transport)(nil)

// New creates a transport for cfg. Nothing is dialed until Connect.
func New(cfg Config, logger *logging.ColoredLogger) *Transport {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &Transport{cfg: cfg, logger: logger, done: make(chan struct{})}
}

// Connect dials the gateway and starts the read loop that hands "message"
// frames to deliver.
func (t *Transport) Connect(ctx context.Context, deliver pubsub.DeliverFunc) error {
	if deliver == nil {
		return fmt.Errorf("deliver callback is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.ErrClosed
	}
	if t.conn != nil {
		return fmt.Errorf("already connected")
	}

	dialer := websocket.Dialer{HandshakeTimeout: t.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, t.cfg.URL, t.cfg.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", t.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", t.cfg.URL, err)
	}
	t.conn = conn

	t.logger.ComponentInfo(logging.ComponentTransport, "Connected to gateway",
		zap.String("url", t.cfg.URL))

	go t.readLoop(conn, deliver)
	return nil
}

func (t *Transport) readLoop(conn *websocket.Conn, deliver pubsub.DeliverFunc) {
	defer close(t.done)

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				t.logger.ComponentWarn(logging.ComponentTransport, "Gateway connection lost", zap.Error(err))
			}
			return
		}

		frame, err := protocol.Decode(b)
		if err != nil {
			t.logger.ComponentDebug(logging.ComponentTransport, "Dropping malformed frame", zap.Error(err))
			continue
		}

		switch frame.Op {
		case protocol.OpMessage:
			deliver(frame.Channel, frame.Data)
		case protocol.OpError:
			t.logger.ComponentWarn(logging.ComponentTransport, "Gateway reported an error",
				zap.String("channel", frame.Channel),
				zap.String("error", frame.Error))
		default:
			t.logger.ComponentDebug(logging.ComponentTransport, "Ignoring frame",
				zap.String("op", string(frame.Op)))
		}
	}
}

// Done is closed when the connection to the gateway ends.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Publish implements pubsub.Transporter.
func (t *Transport) Publish(_ context.Context, wireChannel string, data []byte) error {
	return t.send(protocol.Frame{Op: protocol.OpPublish, Channel: wireChannel, Data: data})
}

// Subscribe implements pubsub.Transporter. The gateway does not acknowledge
// subscriptions; failures come back as error frames.
func (t *Transport) Subscribe(_ context.Context, wireChannel string) error {
	return t.send(protocol.Frame{Op: protocol.OpSubscribe, Channel: wireChannel})
}

// Unsubscribe implements pubsub.Transporter.
func (t *Transport) Unsubscribe(_ context.Context, wireChannel string) error {
	return t.send(protocol.Frame{Op: protocol.OpUnsubscribe, Channel: wireChannel})
}

func (t *Transport) send(f protocol.Frame) error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()

	if closed {
		return errors.ErrClosed
	}
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	b, err := protocol.Encode(f)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Close sends a close frame, closes the connection and waits for the read
// loop to exit.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		close(t.done)
		return nil
	}

	t.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()

	err := conn.Close()
	<-t.done
	return err
}
