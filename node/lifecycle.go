package node

import (
	"fmt"
	"sort"
	"sync"
)

// Service is a subsystem a Node starts and stops as a unit: the TCP
// listener, the metrics bridge, the bucket-refresh ticker, the optional
// Prometheus HTTP endpoint.
type Service interface {
	Start() error
	Stop() error
	Name() string
}

type serviceEntry struct {
	svc      Service
	priority int // lower starts first, stops last
}

// serviceSupervisor starts a small, fixed set of services in priority
// order and stops them in reverse. A Node never registers more than a
// handful of these, so there's no need for the generic health-check or
// state-tracking machinery a larger service mesh would want.
type serviceSupervisor struct {
	mu      sync.Mutex
	entries []*serviceEntry
	byName  map[string]struct{}
}

func newServiceSupervisor() *serviceSupervisor {
	return &serviceSupervisor{byName: make(map[string]struct{})}
}

// Register adds a service to the supervisor. Priority determines start
// order: lower values start first and stop last. Returns an error if the
// service's name is already registered.
func (s *serviceSupervisor) Register(svc Service, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[svc.Name()]; exists {
		return fmt.Errorf("service %q already registered", svc.Name())
	}
	s.entries = append(s.entries, &serviceEntry{svc: svc, priority: priority})
	s.byName[svc.Name()] = struct{}{}
	return nil
}

// StartAll starts every registered service in priority order (ascending),
// continuing past failures and returning one error per failed service.
func (s *serviceSupervisor) StartAll() []error {
	s.mu.Lock()
	ordered := s.sortedEntries()
	s.mu.Unlock()

	var errs []error
	for _, e := range ordered {
		if err := e.svc.Start(); err != nil {
			errs = append(errs, fmt.Errorf("start %s: %w", e.svc.Name(), err))
		}
	}
	return errs
}

// StopAll stops every registered service in reverse priority order
// (descending), continuing past failures and returning one error per
// failed service.
func (s *serviceSupervisor) StopAll() []error {
	s.mu.Lock()
	ordered := s.sortedEntries()
	s.mu.Unlock()

	var errs []error
	for i := len(ordered) - 1; i >= 0; i-- {
		e := ordered[i]
		if err := e.svc.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", e.svc.Name(), err))
		}
	}
	return errs
}

// sortedEntries returns a copy of entries sorted by priority (ascending).
// Caller must hold s.mu.
func (s *serviceSupervisor) sortedEntries() []*serviceEntry {
	sorted := make([]*serviceEntry, len(s.entries))
	copy(sorted, s.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	return sorted
}
