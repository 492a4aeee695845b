// Package rpc defines the wire messages exchanged between DHT nodes
// (PING, PONG, CONNECT, SEARCH) and their RLP encoding.
package rpc

import (
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// Kind identifies the message type in the one-byte frame prefix.
type Kind byte

const (
	KindPing Kind = iota
	KindPong
	KindConnect
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "PING"
	case KindPong:
		return "PONG"
	case KindConnect:
		return "CONNECT"
	case KindSearch:
		return "SEARCH"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// ErrUnknownKind is returned when a frame's leading byte does not match
// any known Kind.
var ErrUnknownKind = errors.New("rpc: unknown message kind")

// ConnectPayload advertises a peer's identity and reachable address.
type ConnectPayload struct {
	NodeID [32]byte
	IP     []byte
	Port   uint16
}

// SearchPayload carries the identifier a SEARCH is looking for.
type SearchPayload struct {
	Target [32]byte
}

// WriteFrame writes a message to w: a one-byte kind prefix, followed by
// the RLP encoding of payload for CONNECT/SEARCH (PING/PONG carry no
// payload). payload must be nil for KindPing/KindPong.
func WriteFrame(w io.Writer, kind Kind, payload interface{}) error {
	if _, err := w.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	switch kind {
	case KindPing, KindPong:
		return nil
	case KindConnect, KindSearch:
		return rlp.Encode(w, payload)
	default:
		return ErrUnknownKind
	}
}

// ReadFrame reads the one-byte kind prefix from r and, for CONNECT/SEARCH,
// RLP-decodes the trailing payload into the matching struct. The second
// return value is nil for PING/PONG.
func ReadFrame(r io.Reader) (Kind, interface{}, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, nil, err
	}
	kind := Kind(prefix[0])
	switch kind {
	case KindPing, KindPong:
		return kind, nil, nil
	case KindConnect:
		var p ConnectPayload
		if err := rlp.Decode(r, &p); err != nil {
			return kind, nil, err
		}
		return kind, p, nil
	case KindSearch:
		var p SearchPayload
		if err := rlp.Decode(r, &p); err != nil {
			return kind, nil, err
		}
		return kind, p, nil
	default:
		return kind, nil, ErrUnknownKind
	}
}
