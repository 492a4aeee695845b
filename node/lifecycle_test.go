package node

import (
	"errors"
	"sync"
	"testing"
)

type mockService struct {
	name     string
	startErr error
	stopErr  error

	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockService) Start() error {
	if m.startErr != nil {
		return m.startErr
	}
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	return nil
}

func (m *mockService) Stop() error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	return nil
}

func (m *mockService) Name() string { return m.name }

// seqCounter tracks global start/stop order across a test's services.
var (
	seqMu      sync.Mutex
	seqCounter int
)

func nextSeq() int {
	seqMu.Lock()
	defer seqMu.Unlock()
	seqCounter++
	return seqCounter
}

func resetSeq() {
	seqMu.Lock()
	seqCounter = 0
	seqMu.Unlock()
}

type orderedMockService struct {
	name     string
	startSeq int
	stopSeq  int
}

func (m *orderedMockService) Start() error {
	m.startSeq = nextSeq()
	return nil
}

func (m *orderedMockService) Stop() error {
	m.stopSeq = nextSeq()
	return nil
}

func (m *orderedMockService) Name() string { return m.name }

func TestRegisterRejectsDuplicateName(t *testing.T) {
	s := newServiceSupervisor()

	if err := s.Register(&mockService{name: "test-svc"}, 1); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := s.Register(&mockService{name: "test-svc"}, 2); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestStartAllStartsEveryService(t *testing.T) {
	s := newServiceSupervisor()

	svc1 := &mockService{name: "svc1"}
	svc2 := &mockService{name: "svc2"}
	s.Register(svc1, 1)
	s.Register(svc2, 2)

	if errs := s.StartAll(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !svc1.started || !svc2.started {
		t.Fatal("both services should be started")
	}
}

func TestStopAllStopsInReversePriorityOrder(t *testing.T) {
	resetSeq()
	s := newServiceSupervisor()

	svc1 := &orderedMockService{name: "svc1"}
	svc2 := &orderedMockService{name: "svc2"}
	svc3 := &orderedMockService{name: "svc3"}

	s.Register(svc1, 1)
	s.Register(svc2, 2)
	s.Register(svc3, 3)

	s.StartAll()
	if errs := s.StopAll(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if svc3.stopSeq > svc2.stopSeq || svc2.stopSeq > svc1.stopSeq {
		t.Fatalf("stop order wrong: svc3=%d, svc2=%d, svc1=%d",
			svc3.stopSeq, svc2.stopSeq, svc1.stopSeq)
	}
}

func TestStartAllContinuesPastFailureAndReportsIt(t *testing.T) {
	s := newServiceSupervisor()

	good := &mockService{name: "good"}
	bad := &mockService{name: "bad", startErr: errors.New("startup failure")}
	s.Register(good, 1)
	s.Register(bad, 2)

	errs := s.StartAll()
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d", len(errs))
	}
	if !good.started {
		t.Fatal("good service should still have started")
	}
}

func TestStartAllUsesAscendingPriorityOrder(t *testing.T) {
	resetSeq()
	s := newServiceSupervisor()

	low := &orderedMockService{name: "low"}   // priority 10
	mid := &orderedMockService{name: "mid"}   // priority 5
	high := &orderedMockService{name: "high"} // priority 1

	// Register out of order; start order must still follow priority.
	s.Register(low, 10)
	s.Register(high, 1)
	s.Register(mid, 5)

	s.StartAll()

	if high.startSeq > mid.startSeq || mid.startSeq > low.startSeq {
		t.Fatalf("start order wrong: high=%d, mid=%d, low=%d",
			high.startSeq, mid.startSeq, low.startSeq)
	}
}

func TestStopAllReportsStopFailure(t *testing.T) {
	s := newServiceSupervisor()

	svc := &mockService{name: "broken", stopErr: errors.New("stop failure")}
	s.Register(svc, 1)
	s.StartAll()

	errs := s.StopAll()
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %d", len(errs))
	}
}
