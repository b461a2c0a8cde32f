package gossip

import (
	"context"
	"encoding/json"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	hubpubsub "github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

// DiscoveryChannel is the hub channel peer announcements travel on.
const DiscoveryChannel = "channelhub.peer-discovery.v1"

const (
	announceInterval = 30 * time.Second
	announceMaxAge   = 5 * time.Minute
)

// PeerAnnouncement represents a peer announcing its addresses
type PeerAnnouncement struct {
	PeerID    string   `json:"peer_id"`
	Addresses []string `json:"addresses"`
	Timestamp int64    `json:"timestamp"`
}

// Discovery announces the local host on a hub channel and dials peers that
// announce themselves. It runs on any hub, whatever transport it is bound to.
type Discovery struct {
	host     host.Host
	hub      *hubpubsub.Hub
	logger   *logging.ColoredLogger
	interval time.Duration

	sub    *hubpubsub.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDiscovery creates a discovery service for h announcing through hub.
func NewDiscovery(h host.Host, hub *hubpubsub.Hub, logger *logging.ColoredLogger) *Discovery {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Discovery{
		host:     h,
		hub:      hub,
		logger:   logger,
		interval: announceInterval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start subscribes to announcements and begins announcing periodically.
func (d *Discovery) Start(ctx context.Context) error {
	sub, err := d.hub.Subscribe(ctx, DiscoveryChannel, d.handleAnnouncement)
	if err != nil {
		return err
	}
	d.sub = sub

	go d.announcePeriodically()
	return nil
}

// Stop ends the announcement loop and releases the subscription.
func (d *Discovery) Stop(ctx context.Context) error {
	d.cancel()
	if d.sub == nil {
		return nil
	}
	<-d.done
	return d.sub.Unsubscribe(ctx)
}

func (d *Discovery) announcePeriodically() {
	defer close(d.done)

	d.announce()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.announce()
		}
	}
}

// announce publishes our peer info to the discovery channel
func (d *Discovery) announce() {
	addrs := d.host.Addrs()
	addrStrs := make([]string, 0, len(addrs))
	suffix := multiaddr.StringCast("/p2p/" + d.host.ID().String())
	for _, addr := range addrs {
		addrStrs = append(addrStrs, addr.Encapsulate(suffix).String())
	}

	data, err := json.Marshal(PeerAnnouncement{
		PeerID:    d.host.ID().String(),
		Addresses: addrStrs,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		d.logger.ComponentDebug(logging.ComponentLibP2P, "Failed to marshal peer announcement", zap.Error(err))
		return
	}

	if err := d.hub.Publish(d.ctx, DiscoveryChannel, data); err != nil {
		d.logger.ComponentDebug(logging.ComponentLibP2P, "Failed to publish peer announcement", zap.Error(err))
		return
	}
	d.logger.ComponentDebug(logging.ComponentLibP2P, "Announced peer presence",
		zap.String("peer_id", shortID(d.host.ID())),
		zap.Int("addresses", len(addrStrs)))
}

// handleAnnouncement adds announced addresses to the peerstore and dials
// the peer when not yet connected. Malformed or stale announcements are
// skipped without error.
func (d *Discovery) handleAnnouncement(_ string, data []byte) error {
	var ann PeerAnnouncement
	if err := json.Unmarshal(data, &ann); err != nil {
		d.logger.ComponentDebug(logging.ComponentLibP2P, "Failed to unmarshal peer announcement", zap.Error(err))
		return nil
	}

	if time.Since(time.Unix(ann.Timestamp, 0)) > announceMaxAge {
		return nil
	}

	peerID, err := peer.Decode(ann.PeerID)
	if err != nil {
		d.logger.ComponentDebug(logging.ComponentLibP2P, "Invalid peer ID in announcement", zap.Error(err))
		return nil
	}
	if peerID == d.host.ID() {
		return nil
	}

	var validAddrs []multiaddr.Multiaddr
	for _, s := range ann.Addresses {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			continue
		}
		validAddrs = append(validAddrs, addr)
	}
	if len(validAddrs) == 0 {
		return nil
	}

	d.host.Peerstore().AddAddrs(peerID, validAddrs, 24*time.Hour)

	if d.host.Network().Connectedness(peerID) != network.Connected {
		go d.connect(peer.AddrInfo{ID: peerID, Addrs: validAddrs})
	}
	return nil
}

func (d *Discovery) connect(info peer.AddrInfo) {
	ctx, cancel := context.WithTimeout(d.ctx, 15*time.Second)
	defer cancel()

	if err := d.host.Connect(ctx, info); err != nil {
		d.logger.ComponentDebug(logging.ComponentLibP2P, "Failed to connect to discovered peer",
			zap.String("peer_id", shortID(info.ID)),
			zap.Error(err))
		return
	}
	d.logger.ComponentInfo(logging.ComponentLibP2P, "Connected to discovered peer",
		zap.String("peer_id", shortID(info.ID)))
}

func shortID(id peer.ID) string {
	s := id.String()
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
