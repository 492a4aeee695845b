package routing

import (
	"time"

	"github.com/eth2030/dhtnode/id"
)

// S and T_MAX_MS for the distance/RTT blend this package scores peers by.
const (
	// DistanceWeightShift is S: how far the distance term is shifted
	// right before being scaled by the normalized RTT.
	DistanceWeightShift = 10
	// ProbeMaxMillis is T_MAX_MS, the RTT at which the distance-weighted
	// penalty saturates.
	ProbeMaxMillis = 800
)

// Score combines an XOR distance with a measured round-trip time into the
// single ordering key the routing table sorts by:
//
//	score = distance + (distance >> S) * min(rtt_ms, T_MAX_MS) / T_MAX_MS
//
// An unmeasured RTT (rtt <= 0) contributes no penalty.
func Score(distance id.U256, rtt time.Duration) id.U256 {
	rttMs := rtt.Milliseconds()
	if rttMs < 0 {
		rttMs = 0
	}
	if rttMs > ProbeMaxMillis {
		rttMs = ProbeMaxMillis
	}
	penalty := distance.RshUint(DistanceWeightShift).MulSmall(uint64(rttMs)).DivSmall(ProbeMaxMillis)
	return distance.Add(penalty).Value
}
