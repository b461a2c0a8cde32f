package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "transport.libp2p.bootstrap_peers[0]"
	Message string // e.g., "invalid multiaddr"
	Hint    string // e.g., "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
// The channel_prefix section is never validated; unusable shapes were already dropped while decoding.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateTransport()...)
	errs = append(errs, c.validateGateway()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateTransport() []error {
	var errs []error
	tc := c.Transport

	switch tc.Kind {
	case TransportMemory:
	case TransportLibP2P:
		errs = append(errs, validateLibP2P(tc.LibP2P)...)
	case TransportRedis:
		if err := validateHostPort(tc.Redis.Addr); err != nil {
			errs = append(errs, ValidationError{
				Path:    "transport.redis.addr",
				Message: err.Error(),
				Hint:    "expected host:port",
			})
		}
		if tc.Redis.DB < 0 {
			errs = append(errs, ValidationError{
				Path:    "transport.redis.db",
				Message: fmt.Sprintf("must be >= 0; got %d", tc.Redis.DB),
			})
		}
	case TransportOlric:
		if len(tc.Olric.Servers) == 0 {
			errs = append(errs, ValidationError{
				Path:    "transport.olric.servers",
				Message: "must not be empty",
			})
		}
		for i, s := range tc.Olric.Servers {
			if err := validateHostPort(s); err != nil {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("transport.olric.servers[%d]", i),
					Message: err.Error(),
					Hint:    "expected host:port",
				})
			}
		}
		if tc.Olric.Timeout < 0 {
			errs = append(errs, ValidationError{
				Path:    "transport.olric.timeout",
				Message: "must be >= 0",
			})
		}
	case TransportWebSocket:
		u, err := url.Parse(tc.WebSocket.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			errs = append(errs, ValidationError{
				Path:    "transport.websocket.url",
				Message: fmt.Sprintf("invalid websocket URL %q", tc.WebSocket.URL),
				Hint:    "expected ws://host:port/v1/pubsub/ws",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Path:    "transport.kind",
			Message: fmt.Sprintf("invalid value %q", tc.Kind),
			Hint:    "allowed values: memory, libp2p, redis, olric, websocket",
		})
	}

	return errs
}

func validateLibP2P(lc LibP2PConfig) []error {
	var errs []error

	if len(lc.ListenAddresses) == 0 {
		errs = append(errs, ValidationError{
			Path:    "transport.libp2p.listen_addresses",
			Message: "must not be empty",
		})
	}

	seen := make(map[string]bool)
	for i, addr := range lc.ListenAddresses {
		path := fmt.Sprintf("transport.libp2p.listen_addresses[%d]", i)

		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}/.../tcp/<port>",
			})
			continue
		}

		if _, err := manet.ToNetAddr(ma); err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("not a dialable address: %v", err),
			})
		}

		if seen[addr] {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("duplicate listen address %s", addr),
			})
		}
		seen[addr] = true
	}

	for i, peer := range lc.BootstrapPeers {
		path := fmt.Sprintf("transport.libp2p.bootstrap_peers[%d]", i)

		ma, err := multiaddr.NewMultiaddr(peer)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>",
			})
			continue
		}
		if _, err := ma.ValueForProtocol(multiaddr.P_P2P); err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "missing /p2p/<peerID> component",
				Hint:    "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>",
			})
		}
	}

	return errs
}

func (c *Config) validateGateway() []error {
	var errs []error
	gc := c.Gateway

	if gc.ListenAddr == "" {
		errs = append(errs, ValidationError{
			Path:    "gateway.listen_addr",
			Message: "must not be empty",
		})
	} else if _, port, err := net.SplitHostPort(gc.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Path:    "gateway.listen_addr",
			Message: fmt.Sprintf("invalid address: %v", err),
			Hint:    "expected [host]:port",
		})
	} else if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, ValidationError{
			Path:    "gateway.listen_addr",
			Message: fmt.Sprintf("invalid port %q", port),
			Hint:    "port must be between 1 and 65535",
		})
	}

	if gc.ReadTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "gateway.read_timeout",
			Message: "must be >= 0",
		})
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	lc := c.Logging

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[lc.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", lc.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[lc.Format] {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("invalid value %q", lc.Format),
			Hint:    "allowed values: json, console",
		})
	}

	if lc.OutputFile != "" {
		dir := filepath.Dir(lc.OutputFile)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			errs = append(errs, ValidationError{
				Path:    "logging.output_file",
				Message: fmt.Sprintf("parent directory %s does not exist", dir),
			})
		}
	}

	return errs
}

func validateHostPort(addr string) error {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return fmt.Errorf("invalid address %q: %v", addr, err)
	}
	if host == "" {
		return fmt.Errorf("missing host in %q", addr)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}
