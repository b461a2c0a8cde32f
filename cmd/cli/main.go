package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeBrosOfficial/channelhub/pkg/cli"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	fs := flag.NewFlagSet("channelhub", flag.ExitOnError)
	gatewayURL := fs.String("gateway", "", "Gateway base URL (env CHANNELHUB_GATEWAY, default "+cli.DefaultGatewayURL+")")
	timeout := fs.Duration("timeout", 30*time.Second, "Operation timeout")
	format := fs.String("format", "table", "Output format: table, json")
	prefix := fs.String("prefix", "", "Channel prefix applied to both directions")
	verbose := fs.Bool("verbose", false, "Log transport activity")
	fs.Usage = showHelp
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		showHelp()
		return
	}

	logger := logging.NewNopLogger()
	if *verbose {
		if l, err := logging.NewLogger(logging.ComponentCLI, logging.Options{Level: "debug", EnableColors: true}); err == nil {
			logger = l
		}
	}

	opts := cli.Options{
		GatewayURL: cli.ResolveGatewayURL(*gatewayURL),
		Timeout:    *timeout,
		Format:     *format,
		Prefix:     *prefix,
		Out:        os.Stdout,
		Logger:     logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command := args[0]; command {
	case "version":
		fmt.Printf("channelhub %s", version)
		if commit != "" {
			fmt.Printf(" (commit %s)", commit)
		}
		if date != "" {
			fmt.Printf(" built %s", date)
		}
		fmt.Println()
		return

	case "publish":
		if len(args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: channelhub publish <channel> <message>\n")
			os.Exit(1)
		}
		err = cli.HandlePublish(ctx, opts, args[1], args[2])

	case "subscribe":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: channelhub subscribe <channel> [duration]\n")
			os.Exit(1)
		}
		var duration time.Duration
		if len(args) > 2 {
			if d, perr := time.ParseDuration(args[2]); perr == nil {
				duration = d
			}
		}
		err = cli.HandleSubscribe(ctx, opts, args[1], duration)

	case "channels":
		err = cli.HandleChannels(ctx, opts)

	case "health":
		err = cli.HandleHealth(ctx, opts)

	case "help":
		showHelp()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Printf("channelhub - publish/subscribe client for a channelhub gateway\n\n")
	fmt.Printf("Usage: channelhub [flags] <command> [args...]\n\n")

	fmt.Printf("📡 PubSub:\n")
	fmt.Printf("  publish <channel> <message>   - Publish a message\n")
	fmt.Printf("  subscribe <channel> [dur]     - Print messages until interrupted or dur elapses\n")
	fmt.Printf("  channels                      - List channels held by the gateway\n\n")

	fmt.Printf("🌐 Gateway:\n")
	fmt.Printf("  health                        - Show gateway health\n")
	fmt.Printf("  version                       - Show version\n\n")

	fmt.Printf("Flags:\n")
	fmt.Printf("  -gateway <url>                - Gateway base URL (env CHANNELHUB_GATEWAY)\n")
	fmt.Printf("  -prefix <prefix>              - Channel prefix for publish and subscribe\n")
	fmt.Printf("  -format <format>              - Output format: table, json (default: table)\n")
	fmt.Printf("  -timeout <duration>           - Operation timeout (default: 30s)\n")
	fmt.Printf("  -verbose                      - Log transport activity\n\n")

	fmt.Printf("Examples:\n")
	fmt.Printf("  channelhub subscribe orders\n")
	fmt.Printf("  channelhub -prefix app. publish orders '{\"id\":1}'\n")
}
