package gateway

import "time"

// Config holds configuration for the gateway server
type Config struct {
	ListenAddr string

	// ReadTimeout bounds reading request headers and bodies. WebSocket
	// connections are not affected once upgraded.
	ReadTimeout time.Duration

	// EnableMetrics exposes GET /metrics.
	EnableMetrics bool
}
