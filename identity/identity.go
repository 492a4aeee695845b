// Package identity derives a node's 256-bit DHT identifier from a freshly
// generated ed25519 keypair: the public key is stretched through
// argon2id and folded down to 32 bytes with sha256.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/eth2030/dhtnode/id"
)

// Version is the only supported id-derivation scheme.
const Version = 1

const (
	argonMemoryKiB = 262_144
	argonTime      = 3
	argonLanes     = 4
	argonTagLen    = 32
)

var argonDomain = []byte("version_1")

// ErrUnsupportedVersion is returned by DeriveID for any version other than
// the one this package implements.
var ErrUnsupportedVersion = errors.New("identity: unsupported id derivation version")

// Identity is a node's keypair plus the DHT identifier derived from it.
type Identity struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
	ID      id.U256
}

// Generate creates a fresh ed25519 keypair and derives its DHT identifier
// using the current Version.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: key generation failed: %w", err)
	}
	nodeID, err := DeriveID(pub, Version)
	if err != nil {
		return nil, err
	}
	return &Identity{Public: pub, Private: priv, ID: nodeID}, nil
}

// DeriveID folds a 32-byte ed25519 public key into a 256-bit identifier:
// argon2id(publicKey, "version_1", params) followed by sha256 of the tag.
func DeriveID(publicKey ed25519.PublicKey, version int) (id.U256, error) {
	if version != Version {
		return id.U256{}, ErrUnsupportedVersion
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return id.U256{}, fmt.Errorf("identity: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}

	tag := argon2.IDKey(publicKey, argonDomain, argonTime, argonMemoryKiB, argonLanes, argonTagLen)
	digest := sha256.Sum256(tag)
	return id.FromBytes32(digest), nil
}
