package routing

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/eth2030/dhtnode/id"
)

type fakeProber struct {
	alive map[string]bool
	calls int
}

func (p *fakeProber) Probe(ctx context.Context, addr Endpoint) (time.Duration, error) {
	p.calls++
	if p.alive[addr.String()] {
		return 10 * time.Millisecond, nil
	}
	return 0, &ProbeError{Kind: ProbeTimeout}
}

func idFromByte(b byte) id.U256 {
	var raw [32]byte
	raw[31] = b
	return id.FromBytes32(raw)
}

func entryAt(local id.U256, b byte) NodeEntry {
	return NewNodeEntry(idFromByte(b), Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 30000 + uint16(b)})
}

func TestRoutingTableInsertRejectsSelf(t *testing.T) {
	local := idFromByte(1)
	rt := New(local, &fakeProber{alive: map[string]bool{}}, nil)

	err := rt.Insert(context.Background(), NewNodeEntry(local, Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 1}))
	if err != ErrSelfNode {
		t.Fatalf("want ErrSelfNode, got %v", err)
	}
}

func TestRoutingTableInsertIntoEmptyBucket(t *testing.T) {
	local := idFromByte(0)
	rt := New(local, &fakeProber{alive: map[string]bool{}}, nil)

	peer := entryAt(local, 1)
	if err := rt.Insert(context.Background(), peer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, _ := rt.bucketOf(peer.ID)
	if rt.BucketLen(idx) != 1 {
		t.Fatalf("want 1 entry in bucket %d, got %d", idx, rt.BucketLen(idx))
	}
}

func TestRoutingTableInsertProbesOldestOnFullBucket(t *testing.T) {
	local := idFromByte(0)
	rt := New(local, &fakeProber{alive: map[string]bool{}}, nil)

	// Bucket 6 covers xor-distances [64,127] against local=0: 64 distinct
	// ids against a capacity of 32, so it is the lowest bucket that can
	// actually overflow.
	for i := 0; i < 32; i++ {
		if err := rt.Insert(context.Background(), entryAt(local, byte(64+i))); err != nil {
			t.Fatalf("fill insert %d: %v", i, err)
		}
	}
	if rt.BucketLen(6) != 32 {
		t.Fatalf("want bucket 6 full at 32, got %d", rt.BucketLen(6))
	}
	oldest := entryAt(local, 64)

	prober := &fakeProber{alive: map[string]bool{}} // oldest is dead
	rt.prober = prober

	newcomer := entryAt(local, 96) // distinct id, same bucket (64+32)
	if err := rt.Insert(context.Background(), newcomer); err != nil {
		t.Fatalf("unexpected error inserting newcomer: %v", err)
	}
	if prober.calls != 1 {
		t.Fatalf("want exactly one probe call, got %d", prober.calls)
	}
	if rt.BucketLen(6) != 32 {
		t.Fatalf("bucket should still hold exactly 32 entries after eviction, got %d", rt.BucketLen(6))
	}

	found := false
	for _, e := range rt.buckets[6].Entries() {
		if e.ID.Equal(oldest.ID) {
			found = true
		}
	}
	if found {
		t.Fatalf("dead oldest entry should have been evicted")
	}
}

func TestRoutingTableClosestOrdersAcrossBuckets(t *testing.T) {
	local := idFromByte(0)
	rt := New(local, &fakeProber{alive: map[string]bool{}}, nil)

	for i := byte(1); i <= 20; i++ {
		if err := rt.Insert(context.Background(), entryAt(local, i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	closest := rt.Closest(4, local)
	if len(closest) != 4 {
		t.Fatalf("want 4 results, got %d", len(closest))
	}
	for i := 1; i < len(closest); i++ {
		if closest[i-1].score.Cmp(closest[i].score) > 0 {
			t.Fatalf("results not ascending at index %d", i)
		}
	}
}
