package pubsub

import "context"

// MessageHandler is invoked once for every message delivered on a channel it
// is subscribed to. Multiple handlers can be registered for the same channel
// and each receives the same payload. A returned error (or a panic) is logged
// and counted but never stops delivery to the other handlers.
type MessageHandler func(channel string, data []byte) error

// HandlerID uniquely identifies a handler registration.
// Each call to Subscribe generates a new HandlerID, allowing
// multiple subscribers to the same channel with independent lifecycles.
type HandlerID string

// DeliverFunc is the inbound entry point a transport calls for every message
// it receives. wireChannel is the channel name as seen on the wire, prefix included.
type DeliverFunc func(wireChannel string, data []byte)

// Transporter performs the actual network I/O on behalf of a Hub.
//
// Connect registers deliver as the inbound callback and establishes
// connectivity. It runs while the hub holds its operation lock, so it must
// not call Subscribe, Unsubscribe, Initialize or Close on that hub; calling
// deliver from inside Connect is fine. Until Connect returns nil the hub
// still rejects Publish and Subscribe as not configured.
//
// Publish, Subscribe and Unsubscribe operate on wire channels; delivery
// guarantees are whatever the implementation provides.
type Transporter interface {
	Connect(ctx context.Context, deliver DeliverFunc) error
	Publish(ctx context.Context, wireChannel string, data []byte) error
	Subscribe(ctx context.Context, wireChannel string) error
	Unsubscribe(ctx context.Context, wireChannel string) error
}

// TransporterFuncs adapts four plain functions to a Transporter. Every field
// is required; a Hub refuses to bind a TransporterFuncs with a nil field.
type TransporterFuncs struct {
	ConnectFunc     func(ctx context.Context, deliver DeliverFunc) error
	PublishFunc     func(ctx context.Context, wireChannel string, data []byte) error
	SubscribeFunc   func(ctx context.Context, wireChannel string) error
	UnsubscribeFunc func(ctx context.Context, wireChannel string) error
}

// Connect calls ConnectFunc.
func (f TransporterFuncs) Connect(ctx context.Context, deliver DeliverFunc) error {
	return f.ConnectFunc(ctx, deliver)
}

// Publish calls PublishFunc.
func (f TransporterFuncs) Publish(ctx context.Context, wireChannel string, data []byte) error {
	return f.PublishFunc(ctx, wireChannel, data)
}

// Subscribe calls SubscribeFunc.
func (f TransporterFuncs) Subscribe(ctx context.Context, wireChannel string) error {
	return f.SubscribeFunc(ctx, wireChannel)
}

// Unsubscribe calls UnsubscribeFunc.
func (f TransporterFuncs) Unsubscribe(ctx context.Context, wireChannel string) error {
	return f.UnsubscribeFunc(ctx, wireChannel)
}

// missingOperation names the first unset operation, or "" when complete.
func (f TransporterFuncs) missingOperation() string {
	switch {
	case f.ConnectFunc == nil:
		return opConnect
	case f.PublishFunc == nil:
		return opPublish
	case f.SubscribeFunc == nil:
		return opSubscribe
	case f.UnsubscribeFunc == nil:
		return opUnsubscribe
	}
	return ""
}
