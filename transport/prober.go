// Package transport provides the TCP wire transport: a listener that
// decodes PING/PONG/CONNECT/SEARCH frames and dispatches them, and a
// Prober that implements the routing package's liveness-check contract
// by actually dialing peers.
package transport

import (
	"context"
	"net"
	"time"

	"github.com/eth2030/dhtnode/log"
	"github.com/eth2030/dhtnode/metrics"
	"github.com/eth2030/dhtnode/routing"
	"github.com/eth2030/dhtnode/rpc"
)

// Prober implements routing.Prober over real TCP connections, applying
// the retry policy routing.Prober documents: up to ProbeAttempts dials,
// each bounded by ProbeDeadline, with ProbeRetryBackoff between attempts.
type Prober struct {
	dialer net.Dialer
	log    *log.Logger
}

// NewProber builds a Prober using logger for per-attempt diagnostics.
func NewProber(logger *log.Logger) *Prober {
	if logger == nil {
		logger = log.Default().Module("transport")
	}
	return &Prober{log: logger}
}

// Probe dials addr and exchanges a single PING/PONG, retrying up to
// routing.ProbeAttempts times with routing.ProbeRetryBackoff between
// attempts, each bounded by routing.ProbeDeadline. It returns the
// round-trip time of the first successful attempt.
func (p *Prober) Probe(ctx context.Context, addr routing.Endpoint) (time.Duration, error) {
	var lastErr error
	for attempt := 0; attempt < routing.ProbeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(routing.ProbeRetryBackoff):
			}
		}

		rtt, err := p.attempt(ctx, addr)
		if err == nil {
			return rtt, nil
		}
		lastErr = err
		p.log.Debug("probe attempt failed", "addr", addr.String(), "attempt", attempt, "err", err)
	}
	metrics.ProbeFailures.Inc()
	return 0, lastErr
}

func (p *Prober) attempt(ctx context.Context, addr routing.Endpoint) (time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, routing.ProbeDeadline)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(attemptCtx, "tcp", addr.String())
	if err != nil {
		return 0, &routing.ProbeError{Kind: routing.ProbeConnection}
	}
	defer conn.Close()

	if deadline, ok := attemptCtx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := rpc.WriteFrame(conn, rpc.KindPing, nil); err != nil {
		return 0, &routing.ProbeError{Kind: routing.ProbeConnection}
	}
	metrics.MessagesSent.Inc()

	kind, _, err := rpc.ReadFrame(conn)
	if err != nil {
		return 0, &routing.ProbeError{Kind: routing.ProbeTimeout}
	}
	metrics.MessagesReceived.Inc()
	if kind != rpc.KindPong {
		return 0, &routing.ProbeError{Kind: routing.ProbeBadResponse}
	}

	rtt := time.Since(start)
	metrics.ProbeLatency.Observe(float64(rtt.Milliseconds()))
	return rtt, nil
}
