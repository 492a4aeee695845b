package node

import (
	"context"
	"time"

	"github.com/eth2030/dhtnode/log"
	"github.com/eth2030/dhtnode/routing"
	"github.com/eth2030/dhtnode/rpc"
	"github.com/eth2030/dhtnode/transport"
)

// refreshService periodically walks the routing table's buckets, picks a
// random target that would land in each non-empty one, and asks a
// currently-known peer in that bucket for closer nodes -- the mechanism by
// which a table with only local knowledge discovers peers over the wire.
type refreshService struct {
	table  *routing.RoutingTable
	disp   *rpc.Dispatcher
	log    *log.Logger
	period time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func newRefreshService(table *routing.RoutingTable, disp *rpc.Dispatcher, period time.Duration, logger *log.Logger) *refreshService {
	return &refreshService{table: table, disp: disp, period: period, log: logger}
}

func (s *refreshService) Name() string { return "refresh" }

func (s *refreshService) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx)
	return nil
}

func (s *refreshService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
	return nil
}

func (s *refreshService) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshOnce(ctx)
		}
	}
}

func (s *refreshService) refreshOnce(ctx context.Context) {
	for i := 0; i < routing.NumBuckets; i++ {
		if s.table.BucketLen(i) == 0 {
			continue
		}
		target, err := routing.RandomIDInBucket(s.table.LocalID(), i)
		if err != nil {
			continue
		}
		known := s.table.Closest(1, target)
		if len(known) == 0 {
			continue
		}
		peer := known[0]
		results, err := transport.Search(ctx, peer.Addr, target)
		if err != nil {
			s.log.Debug("bucket refresh search failed", "bucket", i, "peer", peer.ID.String(), "err", err)
			continue
		}
		for _, pa := range results {
			s.disp.HandleConnect(ctx, pa.ID, pa.Addr)
		}
	}
}
