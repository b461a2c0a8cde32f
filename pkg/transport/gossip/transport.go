// Package gossip carries hub traffic over libp2p GossipSub. Every wire
// channel maps to one gossipsub topic.
package gossip

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	hubpubsub "github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

// Transport implements pubsub.Transporter on top of a gossipsub router.
type Transport struct {
	pubsub        *pubsub.PubSub
	topics        map[string]*pubsub.Topic
	subscriptions map[string]*topicSubscription
	deliver       hubpubsub.DeliverFunc
	selfID        peer.ID
	skipSelf      bool
	logger        *logging.ColoredLogger
	closed        bool
	mu            sync.RWMutex
	wg            sync.WaitGroup
}

// topicSubscription holds the reader goroutine of one joined topic.
type topicSubscription struct {
	sub    *pubsub.Subscription
	cancel context.CancelFunc
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the transport logger.
func WithLogger(logger *logging.ColoredLogger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithSkipSelf drops messages published by the local peer. selfID is the
// local host's ID.
func WithSkipSelf(selfID peer.ID) Option {
	return func(t *Transport) {
		t.selfID = selfID
		t.skipSelf = true
	}
}

var _ hubpubsub.Transporter = (*Transport)(nil)

// New wraps an existing gossipsub router.
func New(ps *pubsub.PubSub, opts ...Option) *Transport {
	t := &Transport{
		pubsub:        ps,
		topics:        make(map[string]*pubsub.Topic),
		subscriptions: make(map[string]*topicSubscription),
		logger:        logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connect implements pubsub.Transporter. The libp2p host is already
// connected to its peers, so this only records the delivery callback.
func (t *Transport) Connect(_ context.Context, deliver hubpubsub.DeliverFunc) error {
	if t.pubsub == nil {
		return fmt.Errorf("pubsub not initialized")
	}
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
	topic, err := t.getOrCreateTopic(wireChannel)
	if err != nil {
		return fmt.Errorf("failed to get topic for publishing: %w", err)
	}

	if err := topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe implements pubsub.Transporter. Subscribing to a topic that is
// already subscribed is a no-op.
func (t *Transport) Subscribe(_ context.Context, wireChannel string) error {
	topic, err := t.getOrCreateTopic(wireChannel)
	if err != nil {
		return fmt.Errorf("failed to get topic: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.subscriptions[wireChannel]; exists {
		return nil
	}

	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	t.subscriptions[wireChannel] = &topicSubscription{sub: sub, cancel: cancel}
	deliver := t.deliver

	t.wg.Add(1)
	go t.readLoop(subCtx, wireChannel, sub, deliver)

	t.logger.ComponentDebug(logging.ComponentLibP2P, "Subscribed to topic",
		zap.String("topic", wireChannel))
	return nil
}

// readLoop forwards every message of one topic to the hub until cancelled.
func (t *Transport) readLoop(ctx context.Context, wireChannel string, sub *pubsub.Subscription, deliver hubpubsub.DeliverFunc) {
	defer t.wg.Done()
	defer sub.Cancel()

	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.ComponentWarn(logging.ComponentLibP2P, "Topic read failed",
				zap.String("topic", wireChannel),
				zap.Error(err))
			return
		}

		if t.skipSelf && msg.ReceivedFrom == t.selfID {
			continue
		}
		if deliver != nil {
			deliver(wireChannel, msg.Data)
		}
	}
}

// Unsubscribe implements pubsub.Transporter. The topic stays joined so
// later publishes do not pay for a re-join.
func (t *Transport) Unsubscribe(_ context.Context, wireChannel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts, exists := t.subscriptions[wireChannel]
	if !exists {
		return nil
	}
	ts.cancel()
	delete(t.subscriptions, wireChannel)

	t.logger.ComponentDebug(logging.ComponentLibP2P, "Unsubscribed from topic",
		zap.String("topic", wireChannel))
	return nil
}

// ListTopics returns the wire channels with an active subscription.
func (t *Transport) ListTopics() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	topics := make([]string, 0, len(t.subscriptions))
	for topic := range t.subscriptions {
		topics = append(topics, topic)
	}
	return topics
}

// TopicPeers returns the peers gossipsub currently knows on wireChannel.
func (t *Transport) TopicPeers(wireChannel string) []peer.ID {
	t.mu.RLock()
	topic, ok := t.topics[wireChannel]
	t.mu.RUnlock()
	if !ok {
		return nil
	}
	return topic.ListPeers()
}

// Close cancels all subscriptions and closes all topics.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for _, sub := range t.subscriptions {
		sub.cancel()
	}
	t.subscriptions = make(map[string]*topicSubscription)
	t.mu.Unlock()

	t.wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	for name, topic := range t.topics {
		if err := topic.Close(); err != nil {
			t.logger.ComponentDebug(logging.ComponentLibP2P, "Topic close failed",
				zap.String("topic", name),
				zap.Error(err))
		}
	}
	t.topics = make(map[string]*pubsub.Topic)
	return nil
}

// getOrCreateTopic gets an existing topic or joins a new one
func (t *Transport) getOrCreateTopic(topicName string) (*pubsub.Topic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errors.ErrClosed
	}
	if t.pubsub == nil {
		return nil, fmt.Errorf("pubsub not initialized")
	}

	if topic, exists := t.topics[topicName]; exists {
		return topic, nil
	}

	topic, err := t.pubsub.Join(topicName)
	if err != nil {
		return nil, fmt.Errorf("failed to join topic: %w", err)
	}

	t.topics[topicName] = topic
	return topic, nil
}
