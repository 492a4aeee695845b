package routing

import (
	"crypto/rand"
	"fmt"

	"github.com/eth2030/dhtnode/id"
)

// RandomIDInBucket returns an identifier whose XOR distance from localID
// has its highest set bit at position idx -- i.e. one that would land in
// bucket idx if inserted. Used to pick lookup targets that exercise a
// specific bucket during periodic refresh.
func RandomIDInBucket(localID id.U256, idx int) (id.U256, error) {
	if idx < 0 || idx >= NumBuckets {
		return id.U256{}, fmt.Errorf("routing: bucket index %d out of range", idx)
	}

	var distance [32]byte
	nbytes := idx/8 + 1
	if _, err := rand.Read(distance[32-nbytes:]); err != nil {
		return id.U256{}, fmt.Errorf("routing: generating random bucket target: %w", err)
	}

	targetByte := 31 - idx/8
	bit := uint(idx % 8)
	distance[targetByte] &= (1 << (bit + 1)) - 1
	distance[targetByte] |= 1 << bit

	return localID.Xor(id.FromBytes32(distance)), nil
}
