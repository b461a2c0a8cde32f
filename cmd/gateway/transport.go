package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/config"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/gossip"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/memory"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/olricbus"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/redisbus"
	"github.com/DeBrosOfficial/channelhub/pkg/transport/wsclient"
)

// builtTransport is the configured transport plus what it needs after the
// hub is up and at shutdown.
type builtTransport struct {
	transport pubsub.Transporter
	// afterInit runs once the hub is initialized and returns what undoes it
	// before the hub closes. May be nil.
	afterInit func(ctx context.Context, hub *pubsub.Hub) (stop func(context.Context) error, err error)
	close     func(ctx context.Context) error
}

func buildTransport(ctx context.Context, cfg config.TransportConfig, logger *logging.ColoredLogger) (*builtTransport, error) {
	switch cfg.Kind {
	case config.TransportMemory:
		t := memory.NewBroker().NewTransport()
		return &builtTransport{
			transport: t,
			close:     func(context.Context) error { return t.Close() },
		}, nil

	case config.TransportLibP2P:
		node, err := gossip.NewNode(ctx, cfg.LibP2P.ListenAddresses, logger)
		if err != nil {
			return nil, err
		}
		if err := node.ConnectPeers(ctx, cfg.LibP2P.BootstrapPeers); err != nil {
			logger.ComponentWarn(logging.ComponentLibP2P, "Some bootstrap peers are unreachable", zap.Error(err))
		}
		return &builtTransport{
			transport: node.Transport,
			afterInit: func(ctx context.Context, hub *pubsub.Hub) (func(context.Context) error, error) {
				discovery := gossip.NewDiscovery(node.Host, hub, logger)
				if err := discovery.Start(ctx); err != nil {
					return nil, err
				}
				return discovery.Stop, nil
			},
			close: func(context.Context) error { return node.Close() },
		}, nil

	case config.TransportRedis:
		t, err := redisbus.Dial(ctx, redisbus.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &builtTransport{transport: t, close: t.Close}, nil

	case config.TransportOlric:
		t, err := olricbus.Dial(ctx, olricbus.Config{
			Servers: cfg.Olric.Servers,
			Timeout: cfg.Olric.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &builtTransport{transport: t, close: t.Close}, nil

	case config.TransportWebSocket:
		t := wsclient.New(wsclient.Config{
			URL:              cfg.WebSocket.URL,
			HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		}, logger)
		return &builtTransport{
			transport: t,
			close:     func(context.Context) error { return t.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}
