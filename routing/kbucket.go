package routing

import (
	"errors"
	"sort"

	"github.com/eth2030/dhtnode/id"
)

// ErrNotFound is returned by Remove when no entry with the given id exists.
var ErrNotFound = errors.New("routing: entry not found in bucket")

// Decision is the outcome of a KBucket.TryInsert call.
type Decision int

const (
	// Inserted means e was appended; the bucket had room.
	Inserted Decision = iota
	// Refreshed means e.ID was already present; the existing entry was
	// moved to the back of the bucket unchanged.
	Refreshed
	// PingOldest means the bucket is full of entries other than e.ID;
	// the bucket was NOT mutated. The caller must probe Oldest and then
	// call Remove/ForceInsert itself.
	PingOldest
)

// TryInsertResult reports what TryInsert decided, and the oldest entry to
// probe when Decision is PingOldest.
type TryInsertResult struct {
	Decision Decision
	Oldest   NodeEntry
}

// KBucket is a fixed-capacity ordered set of NodeEntry, ordered from
// oldest (front) to most recently seen (back).
type KBucket struct {
	entries  []NodeEntry
	capacity int
}

// NewKBucket builds an empty bucket with the given capacity.
func NewKBucket(capacity int) *KBucket {
	return &KBucket{capacity: capacity}
}

// Len reports the number of entries currently held.
func (b *KBucket) Len() int { return len(b.entries) }

// Capacity reports the bucket's maximum entry count.
func (b *KBucket) Capacity() int { return b.capacity }

// Entries returns a copy of the bucket's entries, oldest first.
func (b *KBucket) Entries() []NodeEntry {
	out := make([]NodeEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// TryInsert attempts to place e into the bucket. See Decision for the
// three possible outcomes; only Inserted and Refreshed mutate the bucket.
func (b *KBucket) TryInsert(e NodeEntry) TryInsertResult {
	for i, existing := range b.entries {
		if existing.Equal(e) {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			b.entries = append(b.entries, existing)
			return TryInsertResult{Decision: Refreshed}
		}
	}
	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, e)
		return TryInsertResult{Decision: Inserted}
	}
	return TryInsertResult{Decision: PingOldest, Oldest: b.entries[0]}
}

// Remove drops the entry with the given id, if present.
func (b *KBucket) Remove(nodeID id.U256) error {
	for i, e := range b.entries {
		if e.ID.Equal(nodeID) {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ForceInsert appends e unconditionally, bypassing the capacity check.
// Callers are responsible for having made room first (see RoutingTable.Insert).
func (b *KBucket) ForceInsert(e NodeEntry) {
	b.entries = append(b.entries, e)
}

// Closest scores every entry against target and returns up to n of them
// in ascending score order. Ties keep the earlier-encountered entry first.
func (b *KBucket) Closest(n int, target id.U256) []NodeEntry {
	if n <= 0 {
		return nil
	}
	out := make([]NodeEntry, 0, n)
	for _, e := range b.entries {
		scored := e
		scored.ComputeScore(target)

		pos := sort.Search(len(out), func(i int) bool {
			return scored.score.Less(out[i].score)
		})
		if pos >= n {
			continue
		}
		if len(out) == n {
			out = out[:n-1]
		}
		out = append(out, NodeEntry{})
		copy(out[pos+1:], out[pos:len(out)-1])
		out[pos] = scored
	}
	return out
}
