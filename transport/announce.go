package transport

import (
	"context"
	"net"

	"github.com/eth2030/dhtnode/id"
	"github.com/eth2030/dhtnode/metrics"
	"github.com/eth2030/dhtnode/routing"
	"github.com/eth2030/dhtnode/rpc"
)

// Announce dials target and sends a CONNECT frame advertising selfID as
// reachable at selfAddr. It does not wait for a reply: the original
// protocol forwards an inbound CONNECT to the recipient's routing table
// without acknowledgement, so a bootstrap join is fire-and-forget from
// the dialer's perspective.
func Announce(ctx context.Context, target routing.Endpoint, selfID id.U256, selfAddr routing.Endpoint) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", target.String())
	if err != nil {
		return &routing.ProbeError{Kind: routing.ProbeConnection}
	}
	defer conn.Close()

	payload := rpc.ConnectPayload{
		NodeID: selfID.ToBytes32(),
		IP:     []byte(selfAddr.IP),
		Port:   selfAddr.Port,
	}
	if err := rpc.WriteFrame(conn, rpc.KindConnect, payload); err != nil {
		return err
	}
	metrics.MessagesSent.Inc()
	return nil
}
