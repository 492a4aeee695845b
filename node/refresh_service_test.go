package node

import (
	"context"
	"testing"
	"time"
)

func TestRefreshServiceDiscoversPeersOverSearch(t *testing.T) {
	cfgA := DefaultConfig()
	cfgA.ListenAddr = "127.0.0.1:0"
	cfgA.MetricsReportInterval = 0
	cfgA.RefreshInterval = 0
	a, err := New(cfgA)
	if err != nil {
		t.Fatalf("New a: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start a: %v", err)
	}
	defer a.Stop()

	cfgB := DefaultConfig()
	cfgB.ListenAddr = "127.0.0.1:0"
	cfgB.MetricsReportInterval = 0
	cfgB.RefreshInterval = 0
	b, err := New(cfgB)
	if err != nil {
		t.Fatalf("New b: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start b: %v", err)
	}
	defer b.Stop()

	cfgC := DefaultConfig()
	cfgC.ListenAddr = "127.0.0.1:0"
	cfgC.MetricsReportInterval = 0
	cfgC.RefreshInterval = 0
	c, err := New(cfgC)
	if err != nil {
		t.Fatalf("New c: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start c: %v", err)
	}
	defer c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := b.Join(ctx, a.Identity.ID, a.SelfAddr()); err != nil {
		t.Fatalf("b.Join(a): %v", err)
	}
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	if err := c.Join(ctx2, a.Identity.ID, a.SelfAddr()); err != nil {
		t.Fatalf("c.Join(a): %v", err)
	}
	cancel2()

	// a must know both b and c before b searches it.
	waitFor(t, 2*time.Second, func() bool {
		return len(a.Table.Closest(2, a.Identity.ID)) >= 2
	})
	waitForTableEntry(t, b, 2*time.Second)

	rs := newRefreshService(b.Table, b.Dispatch, time.Hour, b.log)
	rs.refreshOnce(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		return len(b.Table.Closest(2, b.Identity.ID)) >= 2
	})
}

func waitForTableEntry(t *testing.T, n *Node, timeout time.Duration) {
	t.Helper()
	waitFor(t, timeout, func() bool {
		return len(n.Table.Closest(1, n.Identity.ID)) > 0
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition never became true within %s", timeout)
}
