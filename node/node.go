// Package node wires identity, the routing table, the TCP transport, and
// the RPC dispatcher together behind a small service supervisor, the way
// a deployable DHT process starts up and shuts down.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/identity"
	"github.com/eth2030/dhtnode/log"
	"github.com/eth2030/dhtnode/metrics"
	"github.com/eth2030/dhtnode/routing"
	"github.com/eth2030/dhtnode/rpc"
	"github.com/eth2030/dhtnode/transport"
)

// Config holds the settings needed to start a Node.
type Config struct {
	// ListenAddr is the TCP address ("host:port") the node accepts
	// PING/PONG/CONNECT/SEARCH connections on.
	ListenAddr string
	// MetricsReportInterval controls how often internal counters/gauges
	// are logged via the metrics service. Zero disables periodic reports.
	MetricsReportInterval time.Duration
	// Verbosity is a 0-5 log level matching the CLI's --verbosity flag:
	// 0-1 log errors only, 2 adds warnings, 3 adds info, 4-5 add debug.
	Verbosity int
	// RefreshInterval controls how often the routing table's buckets are
	// refreshed by issuing SEARCH requests to already-known peers. Zero
	// disables periodic refresh.
	RefreshInterval time.Duration
	// MetricsHTTPAddr, if non-empty, serves the metrics registry in
	// Prometheus text exposition format at this address's /metrics path.
	MetricsHTTPAddr string
}

// DefaultConfig returns reasonable defaults for a standalone node.
func DefaultConfig() Config {
	return Config{
		ListenAddr:            "127.0.0.1:30303",
		MetricsReportInterval: 30 * time.Second,
		Verbosity:             3,
		RefreshInterval:       5 * time.Minute,
	}
}

// VerbosityToLogLevel maps the CLI's 0-5 verbosity scale onto slog levels.
func VerbosityToLogLevel(verbosity int) slog.Level {
	switch {
	case verbosity <= 1:
		return slog.LevelError
	case verbosity == 2:
		return slog.LevelWarn
	case verbosity == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Node is a running DHT participant: an identity, a routing table seeded
// from that identity, and the transport/RPC machinery answering peers.
type Node struct {
	Identity *identity.Identity
	Table    *routing.RoutingTable
	Dispatch *rpc.Dispatcher

	selfAddr routing.Endpoint
	services *serviceSupervisor
	log      *log.Logger
}

// New derives a fresh identity, builds the routing table and RPC/transport
// stack, and registers them with the service supervisor, but does not
// start anything yet -- call Start for that.
func New(cfg Config) (*Node, error) {
	logger := log.New(VerbosityToLogLevel(cfg.Verbosity)).Module("node")

	ident, err := identity.Generate()
	if err != nil {
		return nil, fmt.Errorf("node: identity generation: %w", err)
	}

	prober := transport.NewProber(logger.Module("transport"))
	table := routing.New(ident.ID, prober, metrics.DefaultRegistry)
	disp := rpc.NewDispatcher(table, prober, logger.Module("rpc"))

	ln, err := transport.Listen(cfg.ListenAddr, disp, logger.Module("transport"))
	if err != nil {
		return nil, fmt.Errorf("node: listen on %s: %w", cfg.ListenAddr, err)
	}

	selfAddr, err := endpointFromListenAddr(ln.Addr().String())
	if err != nil {
		return nil, err
	}

	services := newServiceSupervisor()
	if err := services.Register(newListenerService(ln), 10); err != nil {
		return nil, err
	}
	if cfg.MetricsReportInterval > 0 {
		ms := newMetricsService(cfg.MetricsReportInterval, metrics.DefaultRegistry, logger.Module("metrics"))
		ms.sampleInboundRate = ln.InboundRate1
		if err := services.Register(ms, 20); err != nil {
			return nil, err
		}
	}
	if cfg.MetricsHTTPAddr != "" {
		mhs := newMetricsHTTPService(cfg.MetricsHTTPAddr, metrics.DefaultRegistry, logger.Module("metrics-http"))
		if err := services.Register(mhs, 25); err != nil {
			return nil, err
		}
	}
	if cfg.RefreshInterval > 0 {
		rs := newRefreshService(table, disp, cfg.RefreshInterval, logger.Module("refresh"))
		if err := services.Register(rs, 30); err != nil {
			return nil, err
		}
	}

	return &Node{
		Identity: ident,
		Table:    table,
		Dispatch: disp,
		selfAddr: selfAddr,
		services: services,
		log:      logger,
	}, nil
}

// SelfAddr returns the address this node's transport is listening on.
func (n *Node) SelfAddr() routing.Endpoint { return n.selfAddr }

// Start brings up every registered service (transport listener, metrics
// reporting) in priority order.
func (n *Node) Start() error {
	if errs := n.services.StartAll(); len(errs) > 0 {
		return errs[0]
	}
	n.log.Info("node started", "id", n.Identity.ID.String(), "addr", n.selfAddr.String())
	return nil
}

// Stop shuts every registered service down in reverse priority order.
func (n *Node) Stop() error {
	if errs := n.services.StopAll(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Join inserts a known bootstrap peer into this node's own routing table
// (probing it first, exactly as an inbound CONNECT would) and then
// announces this node to it, so the bootstrap's own CONNECT handling
// probes and inserts this node into its table symmetrically.
func (n *Node) Join(ctx context.Context, bootstrapID id.U256, bootstrap routing.Endpoint) error {
	n.Dispatch.HandleConnect(ctx, bootstrapID, bootstrap)
	return transport.Announce(ctx, bootstrap, n.Identity.ID, n.selfAddr)
}

func endpointFromListenAddr(addr string) (routing.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return routing.Endpoint{}, fmt.Errorf("node: malformed listen address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return routing.Endpoint{}, fmt.Errorf("node: malformed listen port %q: %w", portStr, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ip = net.IPv4(127, 0, 0, 1)
	}
	return routing.Endpoint{IP: ip, Port: uint16(port)}, nil
}
