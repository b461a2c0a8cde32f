package config

import (
	"fmt"
	"os"
	"time"
)

// Transport kinds understood by the gateway binary.
const (
	TransportMemory    = "memory"
	TransportLibP2P    = "libp2p"
	TransportRedis     = "redis"
	TransportOlric     = "olric"
	TransportWebSocket = "websocket"
)

// Config represents the main configuration for a hub process
type Config struct {
	Transport     TransportConfig     `yaml:"transport"`
	ChannelPrefix ChannelPrefixConfig `yaml:"channel_prefix"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// TransportConfig selects and configures the transport adapter
type TransportConfig struct {
	Kind      string          `yaml:"kind"` // memory, libp2p, redis, olric, websocket
	LibP2P    LibP2PConfig    `yaml:"libp2p"`
	Redis     RedisConfig     `yaml:"redis"`
	Olric     OlricConfig     `yaml:"olric"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// LibP2PConfig configures the gossipsub transport
type LibP2PConfig struct {
	ListenAddresses []string `yaml:"listen_addresses"` // LibP2P listen addresses
	BootstrapPeers  []string `yaml:"bootstrap_peers"`  // Full multiaddrs including /p2p/<id>
}

// RedisConfig configures the Redis pub/sub transport
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port
	Password string `yaml:"password"` // optional
	DB       int    `yaml:"db"`
}

// OlricConfig configures the Olric pub/sub transport
type OlricConfig struct {
	Servers []string      `yaml:"servers"` // e.g. ["localhost:3320"]
	Timeout time.Duration `yaml:"timeout"`
}

// WebSocketConfig configures the client transport that talks to a remote gateway
type WebSocketConfig struct {
	URL              string        `yaml:"url"` // ws://host:port/v1/pubsub/ws
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind: TransportMemory,
			LibP2P: LibP2PConfig{
				ListenAddresses: []string{"/ip4/0.0.0.0/tcp/4101"},
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			Olric: OlricConfig{
				Servers: []string{"localhost:3320"},
				Timeout: 10 * time.Second,
			},
			WebSocket: WebSocketConfig{
				HandshakeTimeout: 10 * time.Second,
			},
		},
		Gateway: GatewayConfig{
			ListenAddr:    ":6101",
			ReadTimeout:   30 * time.Second,
			EnableMetrics: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFile reads a YAML config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := DecodeStrict(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
