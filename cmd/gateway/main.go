package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/config"
	"github.com/DeBrosOfficial/channelhub/pkg/gateway"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
	"github.com/DeBrosOfficial/channelhub/pkg/pubsub"
)

func setupLogger(cfg config.LoggingConfig) (*logging.ColoredLogger, error) {
	return logging.NewLogger(logging.ComponentGateway, logging.Options{
		Level:        cfg.Level,
		Format:       cfg.Format,
		OutputFile:   cfg.OutputFile,
		EnableColors: true,
	})
}

func main() {
	cfg, err := loadConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.ComponentError(logging.ComponentGateway, "Gateway failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.ColoredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.ComponentInfo(logging.ComponentGateway, "Loaded gateway configuration",
		zap.String("addr", cfg.Gateway.ListenAddr),
		zap.String("transport", cfg.Transport.Kind),
		zap.String("pub_prefix", cfg.ChannelPrefix.Pub),
		zap.String("sub_prefix", cfg.ChannelPrefix.Sub),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hubOpts := []pubsub.Option{pubsub.WithLogger(logger)}
	if cfg.Gateway.EnableMetrics {
		hubOpts = append(hubOpts, pubsub.WithMetrics(pubsub.NewMetrics(reg, "channelhub")))
	}
	hub := pubsub.New(hubOpts...)

	built, err := buildTransport(ctx, cfg.Transport, logger)
	if err != nil {
		return fmt.Errorf("failed to build %s transport: %w", cfg.Transport.Kind, err)
	}

	if err := hub.Initialize(ctx, &pubsub.Config{
		Transporter:   built.transport,
		ChannelPrefix: pubsub.ChannelPrefix{Pub: cfg.ChannelPrefix.Pub, Sub: cfg.ChannelPrefix.Sub},
	}); err != nil {
		_ = built.close(context.Background())
		return fmt.Errorf("failed to initialize hub: %w", err)
	}
	var stopExtras func(context.Context) error
	if built.afterInit != nil {
		stopExtras, err = built.afterInit(ctx, hub)
		if err != nil {
			logger.ComponentWarn(logging.ComponentGateway, "Transport post-init step failed", zap.Error(err))
		}
	}

	gw, err := gateway.New(logger, &gateway.Config{
		ListenAddr:    cfg.Gateway.ListenAddr,
		ReadTimeout:   cfg.Gateway.ReadTimeout,
		EnableMetrics: cfg.Gateway.EnableMetrics,
	}, hub, reg, reg)
	if err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		teardown(shutdownCtx, logger, hub, built, stopExtras, nil)
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- gw.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.ComponentInfo(logging.ComponentGateway, "Shutting down gateway...")
	case err := <-serveErr:
		if err != nil {
			logger.ComponentError(logging.ComponentGateway, "HTTP server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	teardown(shutdownCtx, logger, hub, built, stopExtras, gw)

	logger.ComponentInfo(logging.ComponentGateway, "Gateway shutdown complete")
	return nil
}

// teardown undoes run in reverse setup order. gw may be nil when the
// gateway was never created. Failures are logged and do not stop later steps.
func teardown(ctx context.Context, logger *logging.ColoredLogger, hub *pubsub.Hub, built *builtTransport,
	stopExtras func(context.Context) error, gw *gateway.Gateway) {
	if stopExtras != nil {
		if err := stopExtras(ctx); err != nil {
			logger.ComponentWarn(logging.ComponentGateway, "Transport post-init step stop failed", zap.Error(err))
		}
	}
	if err := hub.Close(ctx); err != nil {
		logger.ComponentWarn(logging.ComponentGateway, "Hub close reported errors", zap.Error(err))
	}
	if gw != nil {
		if err := gw.Shutdown(ctx); err != nil {
			logger.ComponentError(logging.ComponentGateway, "HTTP server shutdown error", zap.Error(err))
		}
	}
	if err := built.close(ctx); err != nil {
		logger.ComponentWarn(logging.ComponentGateway, "Transport close failed", zap.Error(err))
	}
}
