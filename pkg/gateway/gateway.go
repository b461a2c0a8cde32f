// Package gateway exposes a hub over HTTP and WebSocket.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	pubsubhandlers "github.com/DeBrosOfficial/channelhub/pkg/gateway/handlers/pubsub"
	"github.com/DeBrosOfficial/channelhub/pkg/httputil"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

// Gateway serves the pubsub HTTP and WebSocket API of one hub.
type Gateway struct {
	logger    *logging.ColoredLogger
	cfg       *Config
	hub       *pubsub.Hub
	handlers  *pubsubhandlers.PubSubHandlers
	router    chi.Router
	gatherer  prometheus.Gatherer
	startedAt time.Time

	wsConnections prometheus.Gauge

	server *http.Server
}

// New creates a gateway for hub. When cfg.EnableMetrics is set, reg receives
// the gateway's own collectors and gatherer backs GET /metrics.
func New(logger *logging.ColoredLogger, cfg *Config, hub *pubsub.Hub, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gateway config is required")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	g := &Gateway{
		logger:    logger,
		cfg:       cfg,
		hub:       hub,
		handlers:  pubsubhandlers.NewPubSubHandlers(hub, logger),
		router:    chi.NewRouter(),
		gatherer:  gatherer,
		startedAt: time.Now(),
	}

	if cfg.EnableMetrics && reg != nil {
		g.wsConnections = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "channelhub",
			Subsystem: "gateway",
			Name:      "websocket_connections",
			Help:      "Number of open WebSocket connections.",
		})
		g.handlers.OnConnectionChange(g.wsConnections.Inc, g.wsConnections.Dec)
	}

	g.routes()

	logger.ComponentInfo(logging.ComponentGateway, "Gateway initialized",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Bool("metrics", cfg.EnableMetrics))

	return g, nil
}

// Routes returns the http.Handler with all routes and middleware configured
func (g *Gateway) Routes() http.Handler {
	return g.router
}

func (g *Gateway) routes() {
	g.router.Use(middleware.RequestID)
	g.router.Use(g.loggingMiddleware)
	g.router.Use(middleware.Recoverer)

	g.router.Get("/health", g.healthHandler)

	g.router.Route("/v1/pubsub", func(r chi.Router) {
		r.Post("/publish", g.handlers.PublishHandler)
		r.Get("/channels", g.handlers.ChannelsHandler)
		r.Get("/ws", g.handlers.WebsocketHandler)
	})

	if g.cfg.EnableMetrics && g.gatherer != nil {
		g.router.Handle("/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))
	}
}

func (g *Gateway) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !g.hub.Initialized() {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, map[string]any{
		"status":      status,
		"uptime":      time.Since(g.startedAt).Round(time.Second).String(),
		"channels":    len(g.hub.Channels()),
		"connections": g.handlers.ConnectionCount(),
	})
}

// loggingMiddleware logs basic request info and duration
func (g *Gateway) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		g.logger.ComponentDebug(logging.ComponentGateway, "request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", srw.status),
			zap.Int("bytes", srw.bytes),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Serve accepts connections on ln until Shutdown is called.
func (g *Gateway) Serve(ln net.Listener) error {
	g.server = &http.Server{
		Handler:           g.router,
		ReadHeaderTimeout: g.cfg.ReadTimeout,
	}
	g.logger.ComponentInfo(logging.ComponentGateway, "Gateway listening",
		zap.String("addr", ln.Addr().String()))

	if err := g.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ListenAndServe listens on cfg.ListenAddr and serves until Shutdown.
func (g *Gateway) ListenAndServe() error {
	ln, err := net.Listen("tcp", g.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.cfg.ListenAddr, err)
	}
	return g.Serve(ln)
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the WebSocket connections, which http.Server does not track.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var err error
	if g.server != nil {
		err = g.server.Shutdown(ctx)
	}
	g.handlers.CloseAll()
	return err
}
