package pubsub

import (
	"context"
	"sync/atomic"
)

// Subscription is one handler registration. Unsubscribe releases it.
type Subscription struct {
	hub      *Hub
	channel  string
	id       HandlerID
	released atomic.Bool
}

// Channel returns the logical channel the handler is registered on.
func (s *Subscription) Channel() string { return s.channel }

// ID returns the handler's registration identifier.
func (s *Subscription) ID() HandlerID { return s.id }

// Unsubscribe removes the handler. Only the first call does any work and can
// fail; later calls return nil. If this was the channel's last handler the
// transport is unsubscribed as well, and a transport failure is returned
// even though the handler has already been removed locally.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}
	return s.hub.unregister(ctx, s.channel, s.id)
}
