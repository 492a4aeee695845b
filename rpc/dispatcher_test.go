package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/routing"
)

type stubProber struct {
	alive bool
}

func (p *stubProber) Probe(ctx context.Context, addr routing.Endpoint) (time.Duration, error) {
	if p.alive {
		return 5 * time.Millisecond, nil
	}
	return 0, &routing.ProbeError{Kind: routing.ProbeTimeout}
}

func idFromByte(b byte) id.U256 {
	var raw [32]byte
	raw[31] = b
	return id.FromBytes32(raw)
}

func TestDispatcherHandleConnectInsertsOnlyWhenAlive(t *testing.T) {
	local := idFromByte(0)
	prober := &stubProber{alive: true}
	table := routing.New(local, prober, nil)
	d := NewDispatcher(table, prober, nil)

	peer := idFromByte(5)
	addr := routing.Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 4000}
	d.HandleConnect(context.Background(), peer, addr)

	if table.BucketLen(bucketOfForTest(local, peer)) != 1 {
		t.Fatalf("expected the live peer to be inserted")
	}
}

func TestDispatcherHandleConnectDropsDeadPeer(t *testing.T) {
	local := idFromByte(0)
	prober := &stubProber{alive: false}
	table := routing.New(local, prober, nil)
	d := NewDispatcher(table, prober, nil)

	peer := idFromByte(5)
	addr := routing.Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 4000}
	d.HandleConnect(context.Background(), peer, addr)

	if table.BucketLen(bucketOfForTest(local, peer)) != 0 {
		t.Fatalf("a dead peer must never be inserted")
	}
}

func TestDispatcherHandleSearchReturnsClosest(t *testing.T) {
	local := idFromByte(0)
	prober := &stubProber{alive: true}
	table := routing.New(local, prober, nil)
	d := NewDispatcher(table, prober, nil)

	for b := byte(1); b <= 10; b++ {
		addr := routing.Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 4000 + uint16(b)}
		d.HandleConnect(context.Background(), idFromByte(b), addr)
	}

	results := d.HandleSearch(local)
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}
	if len(results) > routing.Alpha {
		t.Fatalf("expected at most alpha=%d results, got %d", routing.Alpha, len(results))
	}
}

// bucketOfForTest mirrors RoutingTable's unexported bucketOf using only the
// exported XOR/leading-zero primitives, so tests can assert against a
// specific bucket without depending on table internals.
func bucketOfForTest(local, peer id.U256) int {
	distance := local.Xor(peer)
	if distance.IsZero() {
		return 0
	}
	return routing.NumBuckets - 1 - distance.LeadingZeros()
}
