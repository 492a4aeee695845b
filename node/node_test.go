package node

import (
	"context"
	"testing"
	"time"
)

func TestNewBuildsAListeningNode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsReportInterval = 0

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.SelfAddr().Port == 0 {
		t.Fatalf("expected a concrete bound port, got 0")
	}
	if n.Identity == nil || n.Identity.ID.IsZero() {
		t.Fatalf("expected a non-zero derived identity")
	}
}

func TestNodeStartStopRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsReportInterval = 0

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNodeJoinAnnouncesToBootstrap(t *testing.T) {
	cfgA := DefaultConfig()
	cfgA.ListenAddr = "127.0.0.1:0"
	cfgA.MetricsReportInterval = 0
	bootstrap, err := New(cfgA)
	if err != nil {
		t.Fatalf("New bootstrap: %v", err)
	}
	if err := bootstrap.Start(); err != nil {
		t.Fatalf("Start bootstrap: %v", err)
	}
	defer bootstrap.Stop()

	cfgB := DefaultConfig()
	cfgB.ListenAddr = "127.0.0.1:0"
	cfgB.MetricsReportInterval = 0
	joiner, err := New(cfgB)
	if err != nil {
		t.Fatalf("New joiner: %v", err)
	}
	if err := joiner.Start(); err != nil {
		t.Fatalf("Start joiner: %v", err)
	}
	defer joiner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := joiner.Join(ctx, bootstrap.Identity.ID, bootstrap.SelfAddr()); err != nil {
		t.Fatalf("Join: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(bootstrap.Table.Closest(1, bootstrap.Identity.ID)) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("bootstrap never recorded the joining peer")
}
