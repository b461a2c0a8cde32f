package pubsub

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// OnMessage is the inbound entry point handed to Transporter.Connect.
// It maps wireChannel back to its logical channel and invokes every handler
// registered there at the moment of the call. Handlers run outside any hub
// lock, so they may subscribe or unsubscribe freely; a handler removed
// mid-dispatch still receives the message being dispatched.
func (h *Hub) OnMessage(wireChannel string, data []byte) {
	h.mu.RLock()
	channel, ok := h.prefix.fromWire(wireChannel)
	var handlers []registeredHandler
	if ok {
		handlers = h.handlersFor(channel)
	}
	h.mu.RUnlock()

	if !ok {
		h.metrics.messageDropped()
		h.logger.ComponentDebug(logging.ComponentHub, "Dropping message on unrecognized wire channel",
			zap.String("wire_channel", wireChannel))
		return
	}

	h.metrics.messageReceived()

	for _, rh := range handlers {
		if err := h.invoke(channel, rh, data); err != nil {
			h.metrics.handlerFailed()
			h.logger.ComponentWarn(logging.ComponentHub, "Handler failed",
				zap.String("channel", channel),
				zap.String("handler_id", string(rh.id)),
				zap.Error(err))
			continue
		}
		h.metrics.handlerDelivered()
	}
}

// invoke runs one handler, converting a panic into an error.
func (h *Hub) invoke(channel string, rh registeredHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return rh.handler(channel, data)
}
