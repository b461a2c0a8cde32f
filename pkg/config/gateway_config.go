package config

import "time"

// GatewayConfig configures the HTTP/WebSocket gateway in front of a hub
type GatewayConfig struct {
	ListenAddr    string        `yaml:"listen_addr"`    // e.g. ":6101"
	ReadTimeout   time.Duration `yaml:"read_timeout"`   // HTTP read timeout
	EnableMetrics bool          `yaml:"enable_metrics"` // expose /metrics
}
