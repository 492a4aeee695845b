package main

import (
	"testing"

	"github.com/eth2030/dhtnode/id"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, bootstrap, _, exit, _ := parseFlags(nil)
	if exit {
		t.Fatalf("expected no exit for empty args")
	}
	if bootstrap != "" {
		t.Fatalf("expected no bootstrap address by default, got %q", bootstrap)
	}
	if cfg.ListenAddr == "" {
		t.Fatalf("expected a default listen address")
	}
}

func TestParseFlagsOverridesAddrAndBootstrap(t *testing.T) {
	want := id.Random()
	cfg, bootstrap, bootstrapID, exit, _ := parseFlags([]string{
		"-addr", "127.0.0.1:9000",
		"-bootstrap", "10.0.0.1:30303",
		"-bootstrap.id", want.String(),
	})
	if exit {
		t.Fatalf("expected no exit")
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("ListenAddr = %q, want 127.0.0.1:9000", cfg.ListenAddr)
	}
	if bootstrap != "10.0.0.1:30303" {
		t.Fatalf("bootstrap = %q, want 10.0.0.1:30303", bootstrap)
	}
	if !bootstrapID.Equal(want) {
		t.Fatalf("bootstrapID = %s, want %s", bootstrapID, want)
	}
}

func TestParseFlagsRequiresBootstrapID(t *testing.T) {
	_, _, _, exit, code := parseFlags([]string{"-bootstrap", "10.0.0.1:30303"})
	if !exit || code != 2 {
		t.Fatalf("expected exit=true code=2 when --bootstrap.id is missing, got exit=%v code=%d", exit, code)
	}
}

func TestParseFlagsVersionExits(t *testing.T) {
	_, _, _, exit, code := parseFlags([]string{"-version"})
	if !exit || code != 0 {
		t.Fatalf("expected exit=true code=0, got exit=%v code=%d", exit, code)
	}
}

func TestParseFlagsRejectsBadMetricsInterval(t *testing.T) {
	_, _, _, exit, code := parseFlags([]string{"-metrics.interval", "not-a-duration"})
	if !exit || code != 2 {
		t.Fatalf("expected exit=true code=2, got exit=%v code=%d", exit, code)
	}
}

func TestParseBootstrapAddrParsesIPv4(t *testing.T) {
	ep, err := parseBootstrapAddr("127.0.0.1:30303")
	if err != nil {
		t.Fatalf("parseBootstrapAddr: %v", err)
	}
	if ep.Port != 30303 {
		t.Fatalf("Port = %d, want 30303", ep.Port)
	}
}

func TestParseBootstrapAddrRejectsMalformed(t *testing.T) {
	if _, err := parseBootstrapAddr("not-an-address"); err == nil {
		t.Fatalf("expected an error for a malformed address")
	}
}
