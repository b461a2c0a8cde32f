package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/DeBrosOfficial/channelhub/pkg/config"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if val := strings.TrimSpace(part); val != "" {
			out = append(out, val)
		}
	}
	return out
}

// loadConfig builds the gateway configuration.
// Priority: flags > env > file > defaults.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	configPath := fs.String("config", getEnvDefault("CHANNELHUB_CONFIG", ""), "Path to YAML config file (default ~/.channelhub/configs/gateway.yaml if present)")
	addr := fs.String("addr", "", "HTTP listen address (e.g., :6101)")
	kind := fs.String("transport", "", "Transport kind: memory, libp2p, redis, olric, websocket")
	prefix := fs.String("prefix", "", "Channel prefix applied to both directions")
	peers := fs.String("bootstrap-peers", "", "Comma-separated libp2p bootstrap peers")
	redisAddr := fs.String("redis-addr", "", "Redis address (host:port)")
	olricServers := fs.String("olric-servers", "", "Comma-separated Olric server addresses")
	upstream := fs.String("upstream", "", "Upstream gateway WebSocket URL for the websocket transport")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()

	path := *configPath
	if path == "" {
		if p, err := config.DefaultPath("gateway.yaml"); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Environment overrides the file; flags override the environment.
	cfg.Gateway.ListenAddr = pick(*addr, getEnvDefault("CHANNELHUB_ADDR", cfg.Gateway.ListenAddr))
	cfg.Gateway.EnableMetrics = getEnvBoolDefault("CHANNELHUB_ENABLE_METRICS", cfg.Gateway.EnableMetrics)
	cfg.Transport.Kind = pick(*kind, getEnvDefault("CHANNELHUB_TRANSPORT", cfg.Transport.Kind))
	cfg.Transport.Redis.Addr = pick(*redisAddr, getEnvDefault("CHANNELHUB_REDIS_ADDR", cfg.Transport.Redis.Addr))
	cfg.Transport.WebSocket.URL = pick(*upstream, getEnvDefault("CHANNELHUB_UPSTREAM", cfg.Transport.WebSocket.URL))
	cfg.Logging.Level = pick(*logLevel, getEnvDefault("CHANNELHUB_LOG_LEVEL", cfg.Logging.Level))

	if p := pick(*prefix, os.Getenv("CHANNELHUB_PREFIX")); strings.TrimSpace(p) != "" {
		cfg.ChannelPrefix = config.ChannelPrefixConfig{Pub: p, Sub: p}
	}
	if v := pick(*peers, os.Getenv("CHANNELHUB_BOOTSTRAP_PEERS")); v != "" {
		cfg.Transport.LibP2P.BootstrapPeers = splitList(v)
	}
	if v := pick(*olricServers, os.Getenv("CHANNELHUB_OLRIC_SERVERS")); v != "" {
		cfg.Transport.Olric.Servers = splitList(v)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		var b strings.Builder
		b.WriteString("invalid configuration:")
		for _, e := range errs {
			fmt.Fprintf(&b, "\n  - %v", e)
		}
		return nil, fmt.Errorf("%s", b.String())
	}
	return cfg, nil
}

func pick(flagValue, fallback string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return fallback
}
