package wsclient

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/gateway"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/memory"
)

// startGateway serves a gateway whose hub runs on an in-memory broker and
// returns that hub and the WebSocket URL.
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
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/pubsub/ws"
}

func newClientHub(t *testing.T, url string, prefix any) (*pubsub.Hub, *Transport) {
	t.Helper()
	ctx := context.Background()

	tr := New(Config{URL: url}, nil)
	hub := pubsub.New()
	if err := hub.Initialize(ctx, &pubsub.Config{Transporter: tr, ChannelPrefix: prefix}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		hub.Close(ctx)
		tr.Close()
	})
	return hub, tr
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRoundTripThroughGateway(t *testing.T) {
	serverHub, url := startGateway(t)
	ctx := context.Background()

	clientHub, _ := newClientHub(t, url, "tenant.")

	got := make(chan string, 4)
	if _, err := clientHub.Subscribe(ctx, "alerts", func(ch string, d []byte) error {
		got <- ch + "=" + string(d)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	eventually(t, "gateway subscription", func() bool { return serverHub.HandlerCount("tenant.alerts") == 1 })

	if err := serverHub.Publish(ctx, "tenant.alerts", []byte("disk full")); err != nil {
		t.Fatalf("server Publish failed: %v", err)
	}
	select {
	case m := <-got:
		if m != "alerts=disk full" {
			t.Errorf("unexpected delivery %q", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client handler not invoked")
	}

	serverGot := make(chan []byte, 1)
	serverHub.Subscribe(ctx, "tenant.reports", func(_ string, d []byte) error {
		serverGot <- d
		return nil
	})
	if err := clientHub.Publish(ctx, "reports", []byte("weekly")); err != nil {
		t.Fatalf("client Publish failed: %v", err)
	}
	select {
	case d := <-serverGot:
		if string(d) != "weekly" {
			t.Errorf("expected weekly, got %q", d)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server handler not invoked")
	}
}

func TestUnsubscribeReleasesGatewaySubscription(t *testing.T) {
	serverHub, url := startGateway(t)
	ctx := context.Background()

	clientHub, _ := newClientHub(t, url, nil)
	sub, err := clientHub.Subscribe(ctx, "temp", func(string, []byte) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	eventually(t, "gateway subscription", func() bool { return serverHub.HandlerCount("temp") == 1 })

	if err := sub.Unsubscribe(ctx); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	eventually(t, "gateway release", func() bool { return serverHub.HandlerCount("temp") == 0 })
}

func TestConnect_Unreachable(t *testing.T) {
	tr := New(Config{URL: "ws://127.0.0.1:1/v1/pubsub/ws", HandshakeTimeout: time.Second}, nil)
	hub := pubsub.New()
	err := hub.Initialize(context.Background(), &pubsub.Config{Transporter: tr})
	if err == nil {
		t.Fatal("expected connect failure")
	}
	if hub.Initialized() {
		t.Error("hub should stay uninitialized after a connect failure")
	}
}

func TestTransport_NotConnectedAndClosed(t *testing.T) {
	tr := New(Config{URL: "ws://unused"}, nil)
	ctx := context.Background()

	if err := tr.Publish(ctx, "x", []byte("y")); err == nil {
		t.Error("expected error before Connect")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	select {
	case <-tr.Done():
	default:
		t.Error("Done should be closed after Close")
	}
	if err := tr.Subscribe(ctx, "x"); !errors.IsClosed(err) {
		t.Errorf("expected closed error, got %v", err)
	}
	if err := tr.Connect(ctx, func(string, []byte) {}); !errors.IsClosed(err) {
		t.Errorf("expected closed error, got %v", err)
	}
}
