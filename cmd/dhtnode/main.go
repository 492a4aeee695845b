// Command dhtnode runs a standalone Kademlia-style DHT node.
//
// Usage:
//
//	dhtnode [flags]
//
// Flags:
//
//	--addr              Listen address (default: 127.0.0.1:30303)
//	--bootstrap         Address of an existing node to join (optional)
//	--bootstrap.id      Identifier of the bootstrap node, required with --bootstrap
//	--verbosity         Log level 0-5 (default: 3)
//	--metrics.interval  Metrics report interval (default: 30s)
//	--refresh.interval  Bucket refresh interval (default: 5m)
//	--metrics.http      Address to serve Prometheus metrics on (optional)
//	--version           Print version and exit
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/log"
	"github.com/eth2030/dhtnode/node"
	"github.com/eth2030/dhtnode/routing"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, bootstrap, bootstrapID, exit, code := parseFlags(args)
	if exit {
		return code
	}

	log.SetDefault(log.New(node.VerbosityToLogLevel(cfg.Verbosity)))
	logger := log.Default().Module("main")

	logger.Info("starting dhtnode",
		"version", version,
		"addr", cfg.ListenAddr,
		"verbosity", cfg.Verbosity,
	)

	n, err := node.New(cfg)
	if err != nil {
		logger.Error("failed to create node", "err", err)
		return 1
	}

	if err := n.Start(); err != nil {
		logger.Error("failed to start node", "err", err)
		return 1
	}

	if bootstrap != "" {
		addr, err := parseBootstrapAddr(bootstrap)
		if err != nil {
			logger.Error("invalid bootstrap address", "addr", bootstrap, "err", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := n.Join(ctx, bootstrapID, addr); err != nil {
				logger.Warn("join failed", "bootstrap", bootstrap, "err", err)
			}
			cancel()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	if err := n.Stop(); err != nil {
		logger.Error("error during shutdown", "err", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}

// parseFlags parses CLI arguments into a Config plus a bootstrap address and
// its known identifier. Returns whether the caller should exit immediately,
// and the exit code to use if so.
func parseFlags(args []string) (cfg node.Config, bootstrap string, bootstrapID id.U256, exit bool, code int) {
	cfg = node.DefaultConfig()
	fs := newCustomFlagSet("dhtnode")

	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address (host:port)")
	fs.StringVar(&bootstrap, "bootstrap", "", "address of an existing node to join")
	bootstrapIDHex := fs.String("bootstrap.id", "", "identifier of the bootstrap node (colon-separated hex bytes)")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "log level 0-5 (0-1=errors only, 4-5=debug)")
	metricsInterval := fs.String("metrics.interval", cfg.MetricsReportInterval.String(), "metrics report interval (0 disables)")
	refreshInterval := fs.String("refresh.interval", cfg.RefreshInterval.String(), "bucket refresh interval (0 disables)")
	fs.StringVar(&cfg.MetricsHTTPAddr, "metrics.http", "", "address to serve Prometheus metrics on (empty disables)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, "", id.U256{}, true, 2
	}

	if *showVersion {
		fmt.Printf("dhtnode %s (commit %s)\n", version, commit)
		return cfg, "", id.U256{}, true, 0
	}

	d, err := time.ParseDuration(*metricsInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --metrics.interval %q: %v\n", *metricsInterval, err)
		return cfg, "", id.U256{}, true, 2
	}
	cfg.MetricsReportInterval = d

	r, err := time.ParseDuration(*refreshInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --refresh.interval %q: %v\n", *refreshInterval, err)
		return cfg, "", id.U256{}, true, 2
	}
	cfg.RefreshInterval = r

	if bootstrap != "" {
		if *bootstrapIDHex == "" {
			fmt.Fprintf(os.Stderr, "Error: --bootstrap requires --bootstrap.id\n")
			return cfg, "", id.U256{}, true, 2
		}
		parsed, err := id.ParseString(*bootstrapIDHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --bootstrap.id: %v\n", err)
			return cfg, "", id.U256{}, true, 2
		}
		bootstrapID = parsed
	}

	return cfg, bootstrap, bootstrapID, false, 0
}

func parseBootstrapAddr(s string) (routing.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return routing.Endpoint{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return routing.Endpoint{}, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		addrs, err := net.LookupIP(host)
		if err != nil || len(addrs) == 0 {
			return routing.Endpoint{}, fmt.Errorf("cannot resolve host %q", host)
		}
		ip = addrs[0]
	}
	return routing.Endpoint{IP: ip, Port: uint16(port)}, nil
}
