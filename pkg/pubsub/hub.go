// Package pubsub is a transport-agnostic publish/subscribe hub. Application code
// publishes and subscribes on logical channels; a pluggable Transporter does
// the network I/O, and the hub reference-counts transport subscriptions so
// a wire channel is subscribed exactly while it has at least one handler.
package pubsub

import (
	"context"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// Config is the argument to Initialize.
type Config struct {
	// Transporter performs all network I/O. Required.
	Transporter Transporter

	// ChannelPrefix is optional: a string applied to both directions, a
	// ChannelPrefix, or a map with "pub"/"sub" entries. Other shapes are
	// ignored, unlike every other argument which is validated strictly.
	ChannelPrefix any
}

// Hub decouples application code from a concrete transport. It owns the
// subscription registry, the prefix configuration and the bound transport;
// several hubs can coexist in one process.
type Hub struct {
	// opMu serializes registry mutations so transport subscribe/unsubscribe
	// calls follow the 0->1 and 1->0 count transitions in order.
	opMu sync.Mutex

	// mu guards everything below; dispatch only ever takes it for reading.
	mu          sync.RWMutex
	transport   Transporter
	prefix      prefixResolver
	channels    map[string]*channelEntry
	initialized bool

	logger  *logging.ColoredLogger
	metrics *Metrics
	newID   func() HandlerID
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger. The default discards everything.
func WithLogger(logger *logging.ColoredLogger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records hub activity in m.
func WithMetrics(m *Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithIDGenerator replaces the random HandlerID source. The generator must
// never return the same value twice.
func WithIDGenerator(gen func() HandlerID) Option {
	return func(h *Hub) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// New creates an uninitialized hub. Until Initialize succeeds every
// transport-bound operation fails with a TransportNotConfiguredError.
func New(opts ...Option) *Hub {
	h := &Hub{
		transport: unboundTransport{},
		channels:  make(map[string]*channelEntry),
		logger:    logging.NewNopLogger(),
		newID:     generateHandlerID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Initialize binds cfg.Transporter, applies the channel prefixes and connects
// the transport with OnMessage as its delivery callback. A hub can only be
// initialized once; call Close first to re-initialize. If Connect fails the
// hub is left uninitialized.
func (h *Hub) Initialize(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return errors.NewConfigurationError("config", "is required")
	}
	if err := checkTransporter(cfg.Transporter); err != nil {
		return err
	}

	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.Lock()
	if h.initialized {
		h.mu.Unlock()
		return errors.NewConfigurationError("", "cannot initialize twice").WithCause(errors.ErrAlreadyInitialized)
	}
	// The prefix goes in first so deliveries made during Connect are mapped;
	// the transport stays unbound until Connect succeeds.
	h.prefix = parseChannelPrefix(cfg.ChannelPrefix)
	prefix := h.prefix
	h.mu.Unlock()

	if err := cfg.Transporter.Connect(ctx, h.OnMessage); err != nil {
		h.mu.Lock()
		h.prefix = prefixResolver{}
		h.mu.Unlock()

		h.logger.ComponentError(logging.ComponentHub, "Transport connect failed", zap.Error(err))
		return wrapTransportErr(opConnect, "", err)
	}

	h.mu.Lock()
	h.transport = cfg.Transporter
	h.initialized = true
	h.mu.Unlock()

	h.logger.ComponentInfo(logging.ComponentHub, "Hub initialized",
		zap.String("pub_prefix", prefix.pub),
		zap.String("sub_prefix", prefix.sub))
	return nil
}

// Publish sends data on channel through the transport, applying the
// publish prefix. Blank channels and empty payloads are rejected before
// the transport is touched.
func (h *Hub) Publish(ctx context.Context, channel string, data []byte) error {
	ch, err := normalizeChannel(channel)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.NewInvalidArgumentError("data", "is required")
	}

	h.mu.RLock()
	transport := h.transport
	wire := h.prefix.toWire(ch, directionPub)
	h.mu.RUnlock()

	if err := transport.Publish(ctx, wire, data); err != nil {
		return wrapTransportErr(opPublish, wire, err)
	}
	h.metrics.messagePublished()
	return nil
}

// Subscribe registers handler on channel and returns the Subscription that
// releases it. The first handler of a channel subscribes the transport;
// if that fails no state is kept and the error is returned.
func (h *Hub) Subscribe(ctx context.Context, channel string, handler MessageHandler) (*Subscription, error) {
	id, err := h.register(ctx, channel, handler)
	if err != nil {
		return nil, err
	}
	ch, _ := normalizeChannel(channel)
	return &Subscription{hub: h, channel: ch, id: id}, nil
}

// Close unsubscribes every live wire channel, clears the registry and returns
// the hub to its uninitialized state. Outstanding Subscriptions become no-ops.
// The transport itself is not closed; its owner does that.
func (h *Hub) Close(ctx context.Context) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.Lock()
	transport := h.transport
	wires := make([]string, 0, len(h.channels))
	for ch := range h.channels {
		wires = append(wires, h.prefix.toWire(ch, directionSub))
	}
	wasInitialized := h.initialized
	h.channels = make(map[string]*channelEntry)
	h.transport = unboundTransport{}
	h.prefix = prefixResolver{}
	h.initialized = false
	h.mu.Unlock()

	h.metrics.reset()

	if !wasInitialized {
		return nil
	}

	var errs []error
	for _, wire := range wires {
		if err := transport.Unsubscribe(ctx, wire); err != nil {
			errs = append(errs, wrapTransportErr(opUnsubscribe, wire, err))
		}
	}

	h.logger.ComponentInfo(logging.ComponentHub, "Hub closed",
		zap.Int("channels", len(wires)),
		zap.Int("unsubscribe_failures", len(errs)))
	return stderrors.Join(errs...)
}

// Initialized reports whether a transport is currently bound and connected.
func (h *Hub) Initialized() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.initialized
}
