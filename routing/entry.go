package routing

import (
	"time"

	"github.com/eth2030/dhtnode/id"
)

// NodeEntry is a peer record held by a KBucket. Its distance and score
// fields are scratch space: they hold whatever they were last computed
// against and are only meaningful immediately after ComputeScore.
type NodeEntry struct {
	ID   id.U256
	Addr Endpoint
	// RTT is the most recently measured round-trip time to this peer.
	// Zero means unmeasured.
	RTT time.Duration

	distance id.U256
	score    id.U256
}

// NewNodeEntry builds an entry with no RTT measurement yet.
func NewNodeEntry(nodeID id.U256, addr Endpoint) NodeEntry {
	return NodeEntry{ID: nodeID, Addr: addr}
}

// ComputeScore recomputes the entry's distance and score against target.
// Every comparison between entries must happen after this has been called
// against the same target; raw distance is never compared directly.
func (e *NodeEntry) ComputeScore(target id.U256) {
	e.distance = e.ID.Xor(target)
	e.score = Score(e.distance, e.RTT)
}

// Distance returns the distance computed by the most recent ComputeScore.
func (e NodeEntry) Distance() id.U256 { return e.distance }

// ScoreValue returns the score computed by the most recent ComputeScore.
func (e NodeEntry) ScoreValue() id.U256 { return e.score }

// Equal reports whether two entries name the same peer identity.
func (e NodeEntry) Equal(o NodeEntry) bool { return e.ID.Equal(o.ID) }
