package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/metrics"
)

// NumBuckets is the number of k-buckets: one per possible XOR-distance
// bit length of a 256-bit identifier.
const NumBuckets = 256

// smallBucketCapacities holds the capacity of the first few, near-self
// buckets, which have exponentially less room than the rest of the table
// since very few peers can ever land in them.
var smallBucketCapacities = [...]int{1, 2, 4, 8}

// K is the steady-state bucket capacity used from bucket index 4 onward.
const K = 32

// Alpha is the default lookup concurrency/result-set width.
const Alpha = 4

func bucketCapacity(i int) int {
	if i < len(smallBucketCapacities) {
		return smallBucketCapacities[i]
	}
	return K
}

// ErrSelfNode is returned by Insert when asked to insert the table's own
// local identifier.
var ErrSelfNode = errors.New("routing: cannot insert the local node id")

// RoutingTable is the Kademlia k-bucket table: NumBuckets buckets indexed
// by the bit length of the XOR distance from the local id, guarded by a
// single mutex. It is logically single-writer: the only suspension point
// in Insert is the Prober call, held outside the lock so a slow probe
// never blocks unrelated reads.
type RoutingTable struct {
	mu      sync.Mutex
	localID id.U256
	buckets [NumBuckets]*KBucket
	prober  Prober

	occupancy [NumBuckets]*metrics.Gauge
}

// New builds an empty table for localID, using prober to resolve
// contested evictions.
func New(localID id.U256, prober Prober, registry *metrics.Registry) *RoutingTable {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	t := &RoutingTable{localID: localID, prober: prober}
	for i := range t.buckets {
		t.buckets[i] = NewKBucket(bucketCapacity(i))
		t.occupancy[i] = registry.Gauge(fmt.Sprintf("routing.bucket_occupancy_%d", i))
	}
	return t
}

// LocalID returns the table's own identifier.
func (t *RoutingTable) LocalID() id.U256 { return t.localID }

// bucketOf returns the bucket index for nodeID, and whether nodeID is the
// local identifier (in which case there is no real bucket for it).
func (t *RoutingTable) bucketOf(nodeID id.U256) (idx int, isSelf bool) {
	distance := t.localID.Xor(nodeID)
	if distance.IsZero() {
		return 0, true
	}
	return NumBuckets - 1 - distance.LeadingZeros(), false
}

// Insert places e into its bucket. If the bucket is full, the oldest
// entry is probed; a live oldest entry keeps its slot and e is dropped, a
// dead oldest entry is evicted and e takes its place. Insert is the one
// operation in the table that can suspend (on the probe call), and that
// suspension is never held under the table's lock.
func (t *RoutingTable) Insert(ctx context.Context, e NodeEntry) error {
	idx, isSelf := t.bucketOf(e.ID)
	if isSelf {
		metrics.InsertsRejectedSelf.Inc()
		return ErrSelfNode
	}

	t.mu.Lock()
	bucket := t.buckets[idx]
	result := bucket.TryInsert(e)
	if result.Decision != PingOldest {
		t.observe(idx)
		t.mu.Unlock()
		metrics.InsertsAccepted.Inc()
		return nil
	}
	t.mu.Unlock()

	_, err := t.prober.Probe(ctx, result.Oldest.Addr)
	if ctx.Err() != nil {
		// Cancelled mid-probe: drop the decision, leave the bucket as
		// try_insert found it.
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		// Oldest entry answered: it keeps its slot, e is dropped.
		return nil
	}
	_ = bucket.Remove(result.Oldest.ID)
	if bucket.Len() < bucket.Capacity() {
		bucket.ForceInsert(e)
		metrics.EvictionsFromProbe.Inc()
		metrics.InsertsAccepted.Inc()
	}
	t.observe(idx)
	return nil
}

func (t *RoutingTable) observe(idx int) {
	t.occupancy[idx].Set(int64(t.buckets[idx].Len()))

	total := int64(0)
	for _, b := range t.buckets {
		total += int64(b.Len())
	}
	metrics.RoutingTableSize.Set(total)
}

// Closest returns up to alpha entries ordered by ascending score against
// target, drawn from target's home bucket and expanding outward
// symmetrically (one bucket closer, one bucket farther, alternating)
// until alpha entries are collected or the table is exhausted.
func (t *RoutingTable) Closest(alpha int, target id.U256) []NodeEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, isSelf := t.bucketOf(target)
	if isSelf {
		idx = 0
	}

	merged := t.buckets[idx].Closest(alpha, target)
	for d := 1; d < NumBuckets && len(merged) < alpha; d++ {
		if idx-d >= 0 {
			merged = mergeTopAlpha(merged, t.buckets[idx-d].Closest(alpha, target), alpha)
		}
		if len(merged) >= alpha {
			break
		}
		if idx+d < NumBuckets {
			merged = mergeTopAlpha(merged, t.buckets[idx+d].Closest(alpha, target), alpha)
		}
	}
	return merged
}

// BucketLen reports the occupancy of bucket i, for diagnostics and tests.
func (t *RoutingTable) BucketLen(i int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets[i].Len()
}

// mergeTopAlpha merges two ascending-score slices, keeping at most alpha
// entries. On a tie, running (the accumulator built so far) wins, which
// keeps the merge stable across repeated calls.
func mergeTopAlpha(running, incoming []NodeEntry, alpha int) []NodeEntry {
	merged := make([]NodeEntry, 0, alpha)
	i, j := 0, 0
	for len(merged) < alpha && (i < len(running) || j < len(incoming)) {
		switch {
		case i >= len(running):
			merged = append(merged, incoming[j])
			j++
		case j >= len(incoming):
			merged = append(merged, running[i])
			i++
		case running[i].score.Cmp(incoming[j].score) <= 0:
			merged = append(merged, running[i])
			i++
		default:
			merged = append(merged, incoming[j])
			j++
		}
	}
	return merged
}
