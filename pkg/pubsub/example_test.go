package pubsub_test

import (
	"context"
	"fmt"

	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/memory"
)

func Example() {
	ctx := context.Background()
	broker := memory.NewBroker()

	hub := pubsub.New()
	if err := hub.Initialize(ctx, &pubsub.Config{
		Transporter:   broker.NewTransport(),
		ChannelPrefix: "app.",
	}); err != nil {
		panic(err)
	}
	defer hub.Close(ctx)

	sub, _ := hub.Subscribe(ctx, "orders", func(channel string, data []byte) error {
		fmt.Printf("%s: %s\n", channel, data)
		return nil
	})

	_ = hub.Publish(ctx, "orders", []byte("order #1 created"))
	_ = sub.Unsubscribe(ctx)
	_ = hub.Publish(ctx, "orders", []byte("nobody listens"))

	// Output:
	// orders: order #1 created
}
