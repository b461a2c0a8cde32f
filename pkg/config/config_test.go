package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDecodeStrict_ChannelPrefixShapes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantPub string
		wantSub string
	}{
		{"scalar applies to both", "channel_prefix: app.\n", "app.", "app."},
		{"scalar is trimmed", "channel_prefix: '  app. '\n", "app.", "app."},
		{"blank scalar ignored", "channel_prefix: '   '\n", "", ""},
		{"mapping", "channel_prefix:\n  pub: p.\n  sub: s.\n", "p.", "s."},
		{"mapping pub only", "channel_prefix:\n  pub: p.\n", "p.", ""},
		{"mapping blank sub ignored", "channel_prefix:\n  pub: p.\n  sub: ' '\n", "p.", ""},
		{"non-string values ignored", "channel_prefix:\n  pub: 42\n  sub: [a]\n", "", ""},
		{"sequence ignored", "channel_prefix: [a, b]\n", "", ""},
		{"number ignored", "channel_prefix: 7\n", "", ""},
		{"unknown keys ignored", "channel_prefix:\n  other: x\n  sub: s.\n", "", "s."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := DecodeStrict(strings.NewReader(tt.yaml), cfg); err != nil {
				t.Fatalf("DecodeStrict: %v", err)
			}
			if cfg.ChannelPrefix.Pub != tt.wantPub {
				t.Errorf("pub = %q, want %q", cfg.ChannelPrefix.Pub, tt.wantPub)
			}
			if cfg.ChannelPrefix.Sub != tt.wantSub {
				t.Errorf("sub = %q, want %q", cfg.ChannelPrefix.Sub, tt.wantSub)
			}
		})
	}
}

func TestDecodeStrict_RejectsUnknownFields(t *testing.T) {
	cfg := DefaultConfig()
	err := DecodeStrict(strings.NewReader("transport:\n  kind: redis\n  bogus: 1\n"), cfg)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `transport:
  kind: redis
  redis:
    addr: "127.0.0.1:6380"
    db: 2
channel_prefix:
  pub: "p."
  sub: "s."
gateway:
  listen_addr: ":7000"
  read_timeout: 5s
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Transport.Kind != TransportRedis || cfg.Transport.Redis.Addr != "127.0.0.1:6380" || cfg.Transport.Redis.DB != 2 {
		t.Errorf("unexpected transport config %+v", cfg.Transport)
	}
	if cfg.Gateway.ReadTimeout != 5*time.Second {
		t.Errorf("read_timeout = %v", cfg.Gateway.ReadTimeout)
	}
	// Defaults survive for untouched keys.
	if !cfg.Gateway.EnableMetrics {
		t.Error("expected enable_metrics default to survive")
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("expected valid config, got %v", errs)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	validPeer := "/ip4/127.0.0.1/tcp/4001/p2p/12D3KooWHbcFcrGPXKUrHcxvd8MXEeUzRYyvY8fQcpEBxncSUwhj"

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{"defaults valid", func(c *Config) {}, ""},
		{"unknown kind", func(c *Config) { c.Transport.Kind = "carrier-pigeon" }, "transport.kind"},
		{"libp2p valid", func(c *Config) {
			c.Transport.Kind = TransportLibP2P
			c.Transport.LibP2P.BootstrapPeers = []string{validPeer}
		}, ""},
		{"libp2p bad listen", func(c *Config) {
			c.Transport.Kind = TransportLibP2P
			c.Transport.LibP2P.ListenAddresses = []string{"invalid"}
		}, "transport.libp2p.listen_addresses[0]"},
		{"libp2p duplicate listen", func(c *Config) {
			c.Transport.Kind = TransportLibP2P
			c.Transport.LibP2P.ListenAddresses = []string{"/ip4/0.0.0.0/tcp/4001", "/ip4/0.0.0.0/tcp/4001"}
		}, "transport.libp2p.listen_addresses[1]"},
		{"libp2p peer without id", func(c *Config) {
			c.Transport.Kind = TransportLibP2P
			c.Transport.LibP2P.BootstrapPeers = []string{"/ip4/127.0.0.1/tcp/4001"}
		}, "transport.libp2p.bootstrap_peers[0]"},
		{"redis bad addr", func(c *Config) {
			c.Transport.Kind = TransportRedis
			c.Transport.Redis.Addr = "nohost"
		}, "transport.redis.addr"},
		{"olric empty", func(c *Config) {
			c.Transport.Kind = TransportOlric
			c.Transport.Olric.Servers = nil
		}, "transport.olric.servers"},
		{"websocket bad url", func(c *Config) {
			c.Transport.Kind = TransportWebSocket
			c.Transport.WebSocket.URL = "http://example.com"
		}, "transport.websocket.url"},
		{"websocket ok", func(c *Config) {
			c.Transport.Kind = TransportWebSocket
			c.Transport.WebSocket.URL = "ws://127.0.0.1:6101/v1/pubsub/ws"
		}, ""},
		{"gateway bad port", func(c *Config) { c.Gateway.ListenAddr = ":99999" }, "gateway.listen_addr"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()

			if tt.wantPath == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			found := false
			for _, err := range errs {
				if ve, ok := err.(ValidationError); ok && ve.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error at %s, got %v", tt.wantPath, errs)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	abs := filepath.Join(dir, "elsewhere.yaml")
	if got, err := DefaultPath(abs); err != nil || got != abs {
		t.Fatalf("absolute path: got %q, %v", got, err)
	}

	want := filepath.Join(dir, "configs", "gateway.yaml")
	if got, err := DefaultPath("gateway.yaml"); err != nil || got != want {
		t.Fatalf("missing file: got %q, want %q (err %v)", got, want, err)
	}

	legacy := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(legacy, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, _ := DefaultPath("gateway.yaml"); got != legacy {
		t.Fatalf("legacy file: got %q, want %q", got, legacy)
	}

	if err := os.MkdirAll(filepath.Dir(want), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, _ := DefaultPath("gateway.yaml"); got != want {
		t.Fatalf("configs file should win: got %q, want %q", got, want)
	}
}
