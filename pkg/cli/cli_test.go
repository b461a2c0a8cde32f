package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DeBrosOfficial/channelhub/pkg/gateway"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/memory"
)

// syncBuffer is a bytes.Buffer safe for the handler goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startGateway(t *testing.T) (*pubsub.Hub, string) {
	t.Helper()
	ctx := context.Background()

	hub := pubsub.New()
	if err := hub.Initialize(ctx, &pubsub.Config{Transporter: memory.NewBroker().NewTransport()}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	gw, err := gateway.New(nil, &gateway.Config{}, hub, nil, nil)
	if err != nil {
		t.Fatalf("gateway.New failed: %v", err)
	}
	srv := httptest.NewServer(gw.Routes())
	t.Cleanup(func() {
		gw.Shutdown(ctx)
		srv.Close()
		hub.Close(ctx)
	})
	return hub, srv.URL
}

func testOptions(url string, out *syncBuffer) Options {
	return Options{GatewayURL: url, Timeout: 5 * time.Second, Format: "table", Out: out}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://localhost:6101", want: "ws://localhost:6101/v1/pubsub/ws"},
		{in: "https://gw.example.com/", want: "wss://gw.example.com/v1/pubsub/ws"},
		{in: "ws://10.0.0.1:6101/base", want: "ws://10.0.0.1:6101/base/v1/pubsub/ws"},
		{in: "ftp://nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebSocketURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveGatewayURL(t *testing.T) {
	t.Setenv("CHANNELHUB_GATEWAY", "")
	if got := ResolveGatewayURL(""); got != DefaultGatewayURL {
		t.Errorf("expected default, got %q", got)
	}

	t.Setenv("CHANNELHUB_GATEWAY", "http://env:1")
	if got := ResolveGatewayURL(""); got != "http://env:1" {
		t.Errorf("expected env value, got %q", got)
	}
	if got := ResolveGatewayURL("http://flag:2"); got != "http://flag:2" {
		t.Errorf("expected flag value, got %q", got)
	}
}

func TestHandlePublish(t *testing.T) {
	serverHub, url := startGateway(t)
	ctx := context.Background()

	got := make(chan []byte, 1)
	serverHub.Subscribe(ctx, "cli.news", func(_ string, d []byte) error {
		got <- d
		return nil
	})

	out := &syncBuffer{}
	opts := testOptions(url, out)
	opts.Prefix = "cli."
	if err := HandlePublish(ctx, opts, "news", "hello"); err != nil {
		t.Fatalf("HandlePublish failed: %v", err)
	}

	select {
	case d := <-got:
		if string(d) != "hello" {
			t.Errorf("expected hello, got %q", d)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server handler not invoked")
	}
	if !strings.Contains(out.String(), "Published message to channel: news") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestHandleSubscribe(t *testing.T) {
	serverHub, url := startGateway(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	errCh := make(chan error, 1)
	go func() { errCh <- HandleSubscribe(ctx, testOptions(url, out), "ticker", 0) }()

	deadline := time.Now().Add(3 * time.Second)
	for serverHub.HandlerCount("ticker") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("gateway never saw the subscription")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := serverHub.Publish(context.Background(), "ticker", []byte("tick")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	deadline = time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "ticker: tick") {
		if time.Now().After(deadline) {
			t.Fatalf("message not printed, output %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("HandleSubscribe returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("HandleSubscribe did not return after cancel")
	}
}

func TestHandleChannels_JSON(t *testing.T) {
	serverHub, url := startGateway(t)
	serverHub.Subscribe(context.Background(), "alpha", func(string, []byte) error { return nil })

	out := &syncBuffer{}
	opts := testOptions(url, out)
	opts.Format = "json"
	if err := HandleChannels(context.Background(), opts); err != nil {
		t.Fatalf("HandleChannels failed: %v", err)
	}

	var got []ChannelInfo
	if err := json.Unmarshal([]byte(out.String()), &got); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, out.String())
	}
	if len(got) != 1 || got[0].Channel != "alpha" || got[0].Handlers != 1 {
		t.Errorf("unexpected channels %+v", got)
	}
}

func TestHandleHealth(t *testing.T) {
	_, url := startGateway(t)
	out := &syncBuffer{}
	if err := HandleHealth(context.Background(), testOptions(url, out)); err != nil {
		t.Fatalf("HandleHealth failed: %v", err)
	}
	if !strings.Contains(out.String(), "Status:      ok") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestHandlePublish_GatewayDown(t *testing.T) {
	out := &syncBuffer{}
	opts := testOptions("http://127.0.0.1:1", out)
	opts.Timeout = time.Second
	if err := HandlePublish(context.Background(), opts, "x", "y"); err == nil {
		t.Fatal("expected error when the gateway is unreachable")
	}
}
