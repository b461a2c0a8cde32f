// Package memory is an in-process Transporter. Transports created from the
// same Broker see each other's messages, which makes it the loopback network
// for tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

// Broker routes messages between the transports attached to it.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Transport]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*Transport]struct{})}
}

// NewTransport attaches a new transport to the broker.
func (b *Broker) NewTransport() *Transport {
	return &Transport{broker: b}
}

// Subscribers returns how many transports are subscribed to wireChannel.
func (b *Broker) Subscribers(wireChannel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[wireChannel])
}

func (b *Broker) route(wireChannel string, data []byte) {
	b.mu.RLock()
	targets := make([]*Transport, 0, len(b.subs[wireChannel]))
	for t := range b.subs[wireChannel] {
		targets = append(targets, t)
	}
	b.mu.RUnlock()

	for _, t := range targets {
		t.receive(wireChannel, data)
	}
}

// Transport is one endpoint on a Broker. Delivery is synchronous: Publish
// returns after every subscribed transport's deliver callback has returned.
type Transport struct {
	broker *Broker

	mu      sync.RWMutex
	deliver pubsub.DeliverFunc
	closed  bool
}

var _ pubsub.Transporter = (*Transport)(nil)

// Connect implements pubsub.Transporter.
func (t *Transport) Connect(_ context.Context, deliver pubsub.DeliverFunc) error {
	if deliver == nil {
		return fmt.Errorf("memory transport: deliver callback is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.ErrClosed
	}
	t.deliver = deliver
	return nil
}

// Publish implements pubsub.Transporter. Every subscriber gets its own copy
// of data.
func (t *Transport) Publish(ctx context.Context, wireChannel string, data []byte) error {
	if err := t.usable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.broker.route(wireChannel, data)
	return nil
}

// Subscribe implements pubsub.Transporter.
func (t *Transport) Subscribe(_ context.Context, wireChannel string) error {
	if err := t.usable(); err != nil {
		return err
	}
	b := t.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[wireChannel]
	if !ok {
		set = make(map[*Transport]struct{})
		b.subs[wireChannel] = set
	}
	set[t] = struct{}{}
	return nil
}

// Unsubscribe implements pubsub.Transporter.
func (t *Transport) Unsubscribe(_ context.Context, wireChannel string) error {
	if err := t.usable(); err != nil {
		return err
	}
	t.broker.detach(t, wireChannel)
	return nil
}

// Close detaches the transport from every channel. Further calls fail with
// errors.ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.deliver = nil
	t.mu.Unlock()

	b := t.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	for wire, set := range b.subs {
		delete(set, t)
		if len(set) == 0 {
			delete(b.subs, wire)
		}
	}
	return nil
}

func (b *Broker) detach(t *Transport, wireChannel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[wireChannel]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(b.subs, wireChannel)
		}
	}
}

func (t *Transport) usable() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return errors.ErrClosed
	}
	if t.deliver == nil {
		return fmt.Errorf("memory transport: not connected")
	}
	return nil
}

func (t *Transport) receive(wireChannel string, data []byte) {
	t.mu.RLock()
	deliver := t.deliver
	t.mu.RUnlock()
	if deliver == nil {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	deliver(wireChannel, buf)
}
