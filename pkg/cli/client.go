// Package cli implements the channelhub command-line client. Every command
// talks to a gateway; publish and subscribe run a local hub whose transport
// is the gateway WebSocket.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/wsclient"
)

// DefaultGatewayURL is used when neither -gateway nor CHANNELHUB_GATEWAY is set.
const DefaultGatewayURL = "http://localhost:6101"

// Options are the global CLI settings.
type Options struct {
	GatewayURL string
	Timeout    time.Duration
	Format     string // table or json
	Prefix     string // channel prefix applied by the local hub
	Out        io.Writer
	Logger     *logging.ColoredLogger
}

// ResolveGatewayURL picks the gateway URL: flag value, then the
// CHANNELHUB_GATEWAY environment variable, then the default.
func ResolveGatewayURL(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("CHANNELHUB_GATEWAY")); v != "" {
		return v
	}
	return DefaultGatewayURL
}

// WebSocketURL derives the gateway's WebSocket endpoint from its base URL.
func WebSocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid gateway URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported gateway URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/pubsub/ws"
	return u.String(), nil
}

// httpURL derives the plain HTTP base URL for REST calls.
func httpURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid gateway URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported gateway URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}

// connectHub dials the gateway and returns an initialized hub on it. The
// returned cleanup closes both.
func connectHub(ctx context.Context, opts Options) (*pubsub.Hub, *wsclient.Transport, func(), error) {
	wsURL, err := WebSocketURL(opts.GatewayURL)
	if err != nil {
		return nil, nil, nil, err
	}

	tr := wsclient.New(wsclient.Config{URL: wsURL}, opts.Logger)
	hub := pubsub.New(pubsub.WithLogger(opts.Logger))

	var prefix any
	if opts.Prefix != "" {
		prefix = opts.Prefix
	}
	if err := hub.Initialize(ctx, &pubsub.Config{Transporter: tr, ChannelPrefix: prefix}); err != nil {
		tr.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Close(closeCtx)
		_ = tr.Close()
	}
	return hub, tr, cleanup, nil
}

func getJSON(ctx context.Context, rawURL string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func printJSON(w io.Writer, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}
