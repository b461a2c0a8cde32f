package pubsub

import (
	"sync"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

// PubSubHandlers handles all pubsub-related HTTP and WebSocket endpoints
type PubSubHandlers struct {
	hub    *pubsub.Hub
	logger *logging.ColoredLogger

	// Live WebSocket connections by connection ID
	clients map[string]*wsClient
	mu      sync.RWMutex

	onConnect    func()
	onDisconnect func()
}

// NewPubSubHandlers creates a new PubSubHandlers instance
func NewPubSubHandlers(hub *pubsub.Hub, logger *logging.ColoredLogger) *PubSubHandlers {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PubSubHandlers{
		hub:     hub,
		logger:  logger,
		clients: make(map[string]*wsClient),
	}
}

// OnConnectionChange registers callbacks run when a WebSocket client
// connects or disconnects.
func (p *PubSubHandlers) OnConnectionChange(onConnect, onDisconnect func()) {
	p.onConnect = onConnect
	p.onDisconnect = onDisconnect
}

// ConnectionCount returns the number of live WebSocket clients.
func (p *PubSubHandlers) ConnectionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// PublishRequest represents the request body for publishing a message
type PublishRequest struct {
	Channel string `json:"channel"`
	DataB64 string `json:"data_base64"`
}

func (p *PubSubHandlers) addClient(c *wsClient) {
	p.mu.Lock()
	p.clients[c.id] = c
	p.mu.Unlock()
	if p.onConnect != nil {
		p.onConnect()
	}
}

func (p *PubSubHandlers) removeClient(c *wsClient) {
	p.mu.Lock()
	delete(p.clients, c.id)
	p.mu.Unlock()
	if p.onDisconnect != nil {
		p.onDisconnect()
	}
}

// CloseAll closes every live WebSocket connection. Each handler then
// releases its hub subscriptions on the way out.
func (p *PubSubHandlers) CloseAll() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.clients {
		c.conn.Close()
	}
}
