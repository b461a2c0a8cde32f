package pubsub

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/httputil"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/protocol"
)

const releaseTimeout = 5 * time.Second

// WebsocketHandler upgrades to WS and serves the frame protocol: subscribe
// and unsubscribe frames manage one hub subscription per channel, publish
// frames go to the hub, and hub messages come back as message frames.
// Query parameter "channel" subscribes right after the upgrade.
func (p *PubSubHandlers) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	if p.hub == nil {
		p.logger.ComponentWarn(logging.ComponentGateway, "pubsub ws: hub not initialized")
		httputil.WriteError(w, http.StatusServiceUnavailable, "hub not initialized")
		return
	}
	if !httputil.CheckMethod(w, r, http.MethodGet) {
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.ComponentWarn(logging.ComponentGateway, "pubsub ws: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := newWSClient(uuid.New().String(), conn, p.logger)
	p.addClient(client)

	p.logger.ComponentInfo(logging.ComponentGateway, "pubsub ws: client connected",
		zap.String("conn_id", client.id),
		zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(context.Background())
	writerDone := make(chan struct{})
	go p.writerLoop(ctx, client, writerDone)

	defer func() {
		close(client.done)
		cancel()
		<-writerDone

		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), releaseTimeout)
		client.releaseAll(releaseCtx)
		releaseCancel()

		p.removeClient(client)
		p.logger.ComponentInfo(logging.ComponentGateway, "pubsub ws: client disconnected",
			zap.String("conn_id", client.id))
	}()

	if ch := r.URL.Query().Get("channel"); ch != "" {
		p.handleSubscribe(ctx, client, ch)
	}

	p.readerLoop(ctx, client)
}

// writerLoop handles writing frames from the client's queue to the socket
func (p *PubSubHandlers) writerLoop(ctx context.Context, client *wsClient, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-client.out:
			if err := client.writeFrame(f); err != nil {
				p.logger.ComponentWarn(logging.ComponentGateway, "pubsub ws: failed to write to websocket",
					zap.String("conn_id", client.id),
					zap.Error(err))
				// Unblock the reader.
				client.conn.Close()
				return
			}

		case <-ticker.C:
			_ = client.writeControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))

		case <-ctx.Done():
			_ = client.writeControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// readerLoop handles frames sent by the client until the connection ends
func (p *PubSubHandlers) readerLoop(ctx context.Context, client *wsClient) {
	for {
		mt, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, err := protocol.Decode(data)
		if err != nil {
			client.enqueue(protocol.ErrorFrame("", err))
			continue
		}

		switch frame.Op {
		case protocol.OpSubscribe:
			p.handleSubscribe(ctx, client, frame.Channel)
		case protocol.OpUnsubscribe:
			p.handleUnsubscribe(ctx, client, frame.Channel)
		case protocol.OpPublish:
			if err := p.hub.Publish(ctx, frame.Channel, frame.Data); err != nil {
				client.enqueue(protocol.ErrorFrame(frame.Channel, err))
			}
		default:
			client.enqueue(protocol.ErrorFrame(frame.Channel, fmt.Errorf("op %q is not accepted from clients", frame.Op)))
		}
	}
}

func (p *PubSubHandlers) handleSubscribe(ctx context.Context, client *wsClient, channel string) {
	ch := strings.TrimSpace(channel)
	if _, ok := client.subscription(ch); ok {
		return
	}

	sub, err := p.hub.Subscribe(ctx, ch, client.handlerFor(ch))
	if err != nil {
		p.logger.ComponentWarn(logging.ComponentGateway, "pubsub ws: subscribe failed",
			zap.String("conn_id", client.id),
			zap.String("channel", ch),
			zap.Error(err))
		client.enqueue(protocol.ErrorFrame(channel, err))
		return
	}
	client.addSubscription(sub)

	p.logger.ComponentDebug(logging.ComponentGateway, "pubsub ws: subscribed",
		zap.String("conn_id", client.id),
		zap.String("channel", ch))
}

func (p *PubSubHandlers) handleUnsubscribe(ctx context.Context, client *wsClient, channel string) {
	ch := strings.TrimSpace(channel)
	sub, ok := client.removeSubscription(ch)
	if !ok {
		return
	}
	if err := sub.Unsubscribe(ctx); err != nil {
		client.enqueue(protocol.ErrorFrame(channel, err))
	}
}
