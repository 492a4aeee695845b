package rpc

import (
	"context"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/log"
	"github.com/eth2030/dhtnode/metrics"
	"github.com/eth2030/dhtnode/routing"
)

// Dispatcher answers CONNECT and SEARCH requests decoded off the wire by
// the transport listener. PING/PONG are handled by the listener itself
// and never reach here.
type Dispatcher struct {
	table  *routing.RoutingTable
	prober routing.Prober
	log    *log.Logger
}

// NewDispatcher builds a Dispatcher over table, using prober for the
// liveness check a CONNECT must pass before becoming a NodeEntry.
func NewDispatcher(table *routing.RoutingTable, prober routing.Prober, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default().Module("rpc")
	}
	return &Dispatcher{table: table, prober: prober, log: logger}
}

// HandleConnect probes the advertising peer and, only if it answers,
// inserts it into the routing table. A NodeEntry is never constructed
// without a successful liveness probe backing its RTT.
func (d *Dispatcher) HandleConnect(ctx context.Context, peerID id.U256, addr routing.Endpoint) {
	rtt, err := d.prober.Probe(ctx, addr)
	if err != nil {
		d.log.Debug("connect probe failed", "peer", peerID.String(), "addr", addr.String())
		return
	}

	entry := routing.NewNodeEntry(peerID, addr)
	entry.RTT = rtt
	if err := d.table.Insert(ctx, entry); err != nil {
		d.log.Debug("connect insert rejected", "peer", peerID.String(), "err", err)
		return
	}
	metrics.ConnectsHandled.Inc()
}

// HandleSearch answers a SEARCH(target) with the table's current closest
// known nodes.
func (d *Dispatcher) HandleSearch(target id.U256) []routing.NodeEntry {
	closest := d.table.Closest(routing.Alpha, target)
	metrics.SearchesHandled.Inc()
	return closest
}
