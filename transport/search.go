package transport

import (
	"context"
	"net"
	"time"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/metrics"
	"github.com/eth2030/dhtnode/routing"
	"github.com/eth2030/dhtnode/rpc"
)

// PeerAddr is an identifier/address pair as returned by a SEARCH, before
// any liveness probe has given it an RTT to build a routing.NodeEntry from.
type PeerAddr struct {
	ID   id.U256
	Addr routing.Endpoint
}

// searchTimeout bounds a single SEARCH round trip.
const searchTimeout = 2 * time.Second

// Search dials peer, asks it for the nodes closest to target, and decodes
// the CONNECT-frames-then-PONG response written by Listener.writeSearchResponse.
func Search(ctx context.Context, peer routing.Endpoint, target id.U256) ([]PeerAddr, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", peer.String())
	if err != nil {
		return nil, &routing.ProbeError{Kind: routing.ProbeConnection}
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(searchTimeout))

	payload := rpc.SearchPayload{Target: target.ToBytes32()}
	if err := rpc.WriteFrame(conn, rpc.KindSearch, payload); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	var results []PeerAddr
	for {
		kind, body, err := rpc.ReadFrame(conn)
		if err != nil {
			return nil, err
		}
		metrics.MessagesReceived.Inc()
		switch kind {
		case rpc.KindPong:
			return results, nil
		case rpc.KindConnect:
			p := body.(rpc.ConnectPayload)
			results = append(results, PeerAddr{
				ID:   id.FromBytes32(p.NodeID),
				Addr: routing.Endpoint{IP: net.IP(p.IP), Port: p.Port},
			})
		default:
			return results, rpc.ErrUnknownKind
		}
	}
}
