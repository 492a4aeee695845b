package routing

import (
	"github.com/eth2030/dhtnode/id"
)

// SearchHandler is implemented by whatever layer turns a closest-node set
// into outgoing SEARCH responses. It lives outside the routing core; the
// core only knows how to produce the set.
type SearchHandler interface {
	HandleClosest(target id.U256, closest []NodeEntry)
}

// LookupDriver is the narrow consumer described by the local-only lookup:
// it answers SEARCH(target) events with table.Closest(alpha, target) and
// hands the result to a SearchHandler. It performs no network I/O itself.
type LookupDriver struct {
	table   *RoutingTable
	alpha   int
	handler SearchHandler
}

// NewLookupDriver builds a driver over table, fanning results out to handler.
func NewLookupDriver(table *RoutingTable, alpha int, handler SearchHandler) *LookupDriver {
	if alpha <= 0 {
		alpha = Alpha
	}
	return &LookupDriver{table: table, alpha: alpha, handler: handler}
}

// HandleSearch answers a single SEARCH(target) event.
func (d *LookupDriver) HandleSearch(target id.U256) {
	closest := d.table.Closest(d.alpha, target)
	d.handler.HandleClosest(target, closest)
}
