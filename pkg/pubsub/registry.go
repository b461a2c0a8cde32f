package pubsub

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// channelEntry holds the live handlers of one logical channel.
// refCount always equals len(handlers) and is at least 1 while the entry
// is present in Hub.channels.
type channelEntry struct {
	handlers map[HandlerID]MessageHandler
	refCount int
}

type registeredHandler struct {
	id      HandlerID
	handler MessageHandler
}

func generateHandlerID() HandlerID {
	return HandlerID(uuid.New().String())
}

// normalizeChannel trims channel and rejects blank names.
func normalizeChannel(channel string) (string, error) {
	ch := strings.TrimSpace(channel)
	if ch == "" {
		return "", errors.NewInvalidArgumentError("channel", "has to be a non-empty string")
	}
	return ch, nil
}

// register adds handler under a fresh HandlerID. The first handler of a
// channel triggers a transport subscribe; if that fails nothing is recorded.
func (h *Hub) register(ctx context.Context, channel string, handler MessageHandler) (HandlerID, error) {
	ch, err := normalizeChannel(channel)
	if err != nil {
		return "", err
	}
	if handler == nil {
		return "", errors.NewInvalidArgumentError("handler", "has to be a function")
	}

	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.RLock()
	entry, exists := h.channels[ch]
	transport := h.transport
	wire := h.prefix.toWire(ch, directionSub)
	h.mu.RUnlock()

	id := h.newID()

	if !exists {
		if err := transport.Subscribe(ctx, wire); err != nil {
			return "", wrapTransportErr(opSubscribe, wire, err)
		}
		entry = &channelEntry{handlers: make(map[HandlerID]MessageHandler, 1)}

		h.logger.ComponentDebug(logging.ComponentHub, "Subscribed to wire channel",
			zap.String("channel", ch),
			zap.String("wire_channel", wire))
	}

	h.mu.Lock()
	entry.handlers[id] = handler
	entry.refCount++
	if !exists {
		h.channels[ch] = entry
	}
	h.mu.Unlock()

	h.metrics.handlerAdded(!exists)
	return id, nil
}

// unregister removes one handler. Unknown channels or handler IDs are a
// silent no-op. When the last handler of a channel goes away the entry is
// dropped before the transport unsubscribe runs, so a failing unsubscribe
// is reported but never resurrects local state.
func (h *Hub) unregister(ctx context.Context, channel string, id HandlerID) error {
	ch, err := normalizeChannel(channel)
	if err != nil {
		return err
	}
	hid := HandlerID(strings.TrimSpace(string(id)))
	if hid == "" {
		return errors.NewInvalidArgumentError("handlerId", "has to be a non-empty string")
	}

	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.Lock()
	entry, ok := h.channels[ch]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	if _, ok := entry.handlers[hid]; !ok {
		h.mu.Unlock()
		return nil
	}
	delete(entry.handlers, hid)
	entry.refCount--
	last := entry.refCount < 1
	if last {
		delete(h.channels, ch)
	}
	transport := h.transport
	wire := h.prefix.toWire(ch, directionSub)
	h.mu.Unlock()

	h.metrics.handlerRemoved(last)

	if !last {
		return nil
	}

	h.logger.ComponentDebug(logging.ComponentHub, "Last handler gone, unsubscribing wire channel",
		zap.String("channel", ch),
		zap.String("wire_channel", wire))

	if err := transport.Unsubscribe(ctx, wire); err != nil {
		return wrapTransportErr(opUnsubscribe, wire, err)
	}
	return nil
}

// handlersFor returns a copy of the handlers registered on channel at the
// moment of the call. Dispatch iterates this snapshot after releasing h.mu,
// so handlers added or removed during dispatch do not affect the message in
// flight. Callers must hold h.mu (read or write).
func (h *Hub) handlersFor(channel string) []registeredHandler {
	entry, ok := h.channels[channel]
	if !ok {
		return nil
	}
	out := make([]registeredHandler, 0, len(entry.handlers))
	for id, fn := range entry.handlers {
		out = append(out, registeredHandler{id: id, handler: fn})
	}
	return out
}

// Channels returns the sorted logical channels that have live handlers.
func (h *Hub) Channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channels := make([]string, 0, len(h.channels))
	for ch := range h.channels {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// HandlerCount returns the number of live handlers on channel.
func (h *Hub) HandlerCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if entry, ok := h.channels[strings.TrimSpace(channel)]; ok {
		return entry.refCount
	}
	return 0
}
