package gossip

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// Node bundles a libp2p host, its gossipsub router and the transport on top.
type Node struct {
	Host      host.Host
	PubSub    *pubsub.PubSub
	Transport *Transport

	cancel context.CancelFunc
}

// NewNode starts a libp2p host listening on listenAddrs, attaches a
// gossipsub router and wraps it in a Transport.
func NewNode(ctx context.Context, listenAddrs []string, logger *logging.ColoredLogger) (*Node, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	psCtx, cancel := context.WithCancel(context.Background())
	ps, err := pubsub.NewGossipSub(psCtx, h)
	if err != nil {
		cancel()
		h.Close()
		return nil, fmt.Errorf("failed to create gossipsub: %w", err)
	}

	logger.ComponentInfo(logging.ComponentLibP2P, "LibP2P host started",
		zap.String("peer_id", h.ID().String()),
		zap.Int("listen_addrs", len(h.Addrs())))

	return &Node{
		Host:      h,
		PubSub:    ps,
		Transport: New(ps, WithLogger(logger)),
		cancel:    cancel,
	}, nil
}

// ConnectPeers dials every bootstrap multiaddr. Each must carry a /p2p/<id>
// component. Failures are collected; peers that connect stay connected.
func (n *Node) ConnectPeers(ctx context.Context, peers []string) error {
	var firstErr error
	for _, addr := range peers {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid peer address %s: %w", addr, err)
			}
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid peer address %s: %w", addr, err)
			}
			continue
		}

		dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err = n.Host.Connect(dialCtx, *info)
		cancel()
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to connect to %s: %w", info.ID, err)
		}
	}
	return firstErr
}

// FullAddrs returns the host's listen addresses with the /p2p/<id> suffix.
func (n *Node) FullAddrs() []string {
	suffix := multiaddr.StringCast("/p2p/" + n.Host.ID().String())
	addrs := n.Host.Addrs()
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Encapsulate(suffix).String())
	}
	return out
}

// Close shuts down the transport, the gossipsub router and the host.
func (n *Node) Close() error {
	_ = n.Transport.Close()
	n.cancel()
	return n.Host.Close()
}
