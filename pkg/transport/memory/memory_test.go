package memory

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHub(t *testing.T, b *Broker, prefix any) (*pubsub.Hub, *Transport) {
	t.Helper()
	tr := b.NewTransport()
	h := pubsub.New()
	if err := h.Initialize(context.Background(), &pubsub.Config{Transporter: tr, ChannelPrefix: prefix}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() {
		_ = h.Close(context.Background())
		_ = tr.Close()
	})
	return h, tr
}

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (i *inbox) handler(channel string, data []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, channel+"="+string(data))
	return nil
}

func (i *inbox) all() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.msgs...)
}

func TestHubsAcrossBroker(t *testing.T) {
	b := NewBroker()
	pubHub, _ := newHub(t, b, nil)
	subHub, _ := newHub(t, b, nil)
	ctx := context.Background()

	var in inbox
	sub, err := subHub.Subscribe(ctx, "orders", in.handler)
	if err != nil {
		t.Fatal(err)
	}

	if err := pubHub.Publish(ctx, "orders", []byte("42")); err != nil {
		t.Fatal(err)
	}
	if got := in.all(); len(got) != 1 || got[0] != "orders=42" {
		t.Fatalf("unexpected inbox %v", got)
	}

	if err := sub.Unsubscribe(ctx); err != nil {
		t.Fatal(err)
	}
	if b.Subscribers("orders") != 0 {
		t.Error("broker should forget the channel after the last unsubscribe")
	}
	if err := pubHub.Publish(ctx, "orders", []byte("43")); err != nil {
		t.Fatal(err)
	}
	if len(in.all()) != 1 {
		t.Error("no delivery expected after unsubscribe")
	}
}

func TestPrefixedHubs(t *testing.T) {
	b := NewBroker()
	// The publisher writes into the namespace the subscriber reads from.
	pubHub, _ := newHub(t, b, pubsub.ChannelPrefix{Pub: "in."})
	subHub, _ := newHub(t, b, pubsub.ChannelPrefix{Sub: "in."})
	ctx := context.Background()

	var in inbox
	if _, err := subHub.Subscribe(ctx, "orders", in.handler); err != nil {
		t.Fatal(err)
	}
	if b.Subscribers("in.orders") != 1 {
		t.Fatal("expected wire subscription on in.orders")
	}
	if err := pubHub.Publish(ctx, "orders", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if got := in.all(); len(got) != 1 || got[0] != "orders=x" {
		t.Fatalf("unexpected inbox %v", got)
	}
}

func TestReferenceCountingReachesBroker(t *testing.T) {
	b := NewBroker()
	h, _ := newHub(t, b, nil)
	ctx := context.Background()

	s1, _ := h.Subscribe(ctx, "alerts", func(string, []byte) error { return nil })
	s2, _ := h.Subscribe(ctx, "alerts", func(string, []byte) error { return nil })
	if b.Subscribers("alerts") != 1 {
		t.Fatalf("expected one broker subscription, got %d", b.Subscribers("alerts"))
	}
	_ = s1.Unsubscribe(ctx)
	if b.Subscribers("alerts") != 1 {
		t.Fatal("broker subscription must survive while a handler remains")
	}
	_ = s2.Unsubscribe(ctx)
	if b.Subscribers("alerts") != 0 {
		t.Fatal("broker subscription should be gone")
	}
}

func TestTransport_NotConnected(t *testing.T) {
	tr := NewBroker().NewTransport()
	if err := tr.Publish(context.Background(), "x", []byte("y")); err == nil {
		t.Error("expected error before Connect")
	}
	if err := tr.Connect(context.Background(), nil); err == nil {
		t.Error("expected error for nil deliver")
	}
}

func TestTransport_Close(t *testing.T) {
	b := NewBroker()
	tr := b.NewTransport()
	ctx := context.Background()
	_ = tr.Connect(ctx, func(string, []byte) {})
	_ = tr.Subscribe(ctx, "a")
	_ = tr.Subscribe(ctx, "b")

	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if b.Subscribers("a")+b.Subscribers("b") != 0 {
		t.Error("Close should detach every channel")
	}
	if err := tr.Publish(ctx, "a", []byte("x")); !errors.IsClosed(err) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestTransport_CopiesPayload(t *testing.T) {
	b := NewBroker()
	tr := b.NewTransport()
	ctx := context.Background()

	var got []byte
	_ = tr.Connect(ctx, func(_ string, data []byte) { got = data })
	_ = tr.Subscribe(ctx, "a")

	payload := []byte("abc")
	_ = tr.Publish(ctx, "a", payload)
	payload[0] = 'z'
	if string(got) != "abc" {
		t.Errorf("subscriber saw publisher mutation: %q", got)
	}
}
