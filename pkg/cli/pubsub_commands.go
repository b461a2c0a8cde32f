package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HandlePublish publishes message on channel through the gateway.
func HandlePublish(ctx context.Context, opts Options, channel, message string) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	hub, _, cleanup, err := connectHub(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}
	defer cleanup()

	if err := hub.Publish(ctx, channel, []byte(message)); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	fmt.Fprintf(opts.Out, "✅ Published message to channel: %s\n", channel)
	return nil
}

// HandleSubscribe prints messages on channel until ctx ends, duration
// elapses (when positive) or the gateway connection drops.
func HandleSubscribe(ctx context.Context, opts Options, channel string, duration time.Duration) error {
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	hub, tr, cleanup, err := connectHub(connectCtx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}
	defer cleanup()

	messageHandler := func(ch string, data []byte) error {
		fmt.Fprintf(opts.Out, "📨 [%s] %s: %s\n", time.Now().Format("15:04:05"), ch, string(data))
		return nil
	}

	if _, err := hub.Subscribe(ctx, channel, messageHandler); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if duration > 0 {
		fmt.Fprintf(opts.Out, "🔔 Subscribed to channel '%s' for %v...\n", channel, duration)
	} else {
		fmt.Fprintf(opts.Out, "🔔 Subscribed to channel '%s'...\n", channel)
	}

	select {
	case <-ctx.Done():
		fmt.Fprintf(opts.Out, "✅ Subscription ended\n")
		return nil
	case <-tr.Done():
		return fmt.Errorf("gateway connection closed")
	}
}

// ChannelInfo is one entry of the gateway's channel listing.
type ChannelInfo struct {
	Channel  string `json:"channel"`
	Handlers int    `json:"handlers"`
}

// HandleChannels lists the channels the gateway's hub holds.
func HandleChannels(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	u, err := httpURL(opts.GatewayURL, "/v1/pubsub/channels")
	if err != nil {
		return err
	}
	var body struct {
		Channels []ChannelInfo `json:"channels"`
		Error    string        `json:"error"`
	}
	code, err := getJSON(ctx, u, &body)
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("failed to list channels: status %d: %s", code, body.Error)
	}

	if opts.Format == "json" {
		return printJSON(opts.Out, body.Channels)
	}
	for _, c := range body.Channels {
		fmt.Fprintf(opts.Out, "%-40s %d\n", c.Channel, c.Handlers)
	}
	return nil
}

// HandleHealth prints the gateway health report.
func HandleHealth(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	u, err := httpURL(opts.GatewayURL, "/health")
	if err != nil {
		return err
	}
	var body map[string]any
	code, err := getJSON(ctx, u, &body)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if opts.Format == "json" {
		if err := printJSON(opts.Out, body); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(opts.Out, "Status:      %v\n", body["status"])
		fmt.Fprintf(opts.Out, "Uptime:      %v\n", body["uptime"])
		fmt.Fprintf(opts.Out, "Channels:    %v\n", body["channels"])
		fmt.Fprintf(opts.Out, "Connections: %v\n", body["connections"])
	}
	if code != http.StatusOK {
		return fmt.Errorf("gateway unhealthy: status %d", code)
	}
	return nil
}
