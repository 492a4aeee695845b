package node

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/eth2030/dhtnode/log"
	"github.com/eth2030/dhtnode/metrics"
	"github.com/eth2030/dhtnode/transport"
)

// listenerService adapts a *transport.Listener to the Service interface
// so the service supervisor can start/stop it alongside the node's other
// subsystems.
type listenerService struct {
	ln     *transport.Listener
	cancel context.CancelFunc
	done   chan struct{}
}

func newListenerService(ln *transport.Listener) *listenerService {
	return &listenerService{ln: ln}
}

func (s *listenerService) Name() string { return "transport" }

func (s *listenerService) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.ln.Serve(ctx)
	}()
	return nil
}

func (s *listenerService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.ln.Close()
	if s.done != nil {
		<-s.done
	}
	return nil
}

// logReportBackend adapts the structured logger to metrics.ReportBackend,
// emitting a single log line per report tick.
type logReportBackend struct {
	log *log.Logger
}

func (b *logReportBackend) Report(snapshot map[string]float64) error {
	args := make([]any, 0, len(snapshot)*2)
	for k, v := range snapshot {
		args = append(args, k, v)
	}
	b.log.Info("metrics snapshot", args...)
	return nil
}

// metricsService periodically copies counter/gauge values out of the
// package-wide metrics registry into a metrics.MetricsReporter, which in
// turn pushes them to a log-backed report backend.
type metricsService struct {
	reporter *metrics.MetricsReporter
	registry *metrics.Registry
	bridge   *bridgeTicker

	// sampleInboundRate, if set, is polled once per tick and recorded as
	// a gauge -- the listener's inbound-frame EWMA is the one rate-style
	// metric that doesn't already live in the registry.
	sampleInboundRate func() float64
}

func newMetricsService(interval time.Duration, registry *metrics.Registry, logger *log.Logger) *metricsService {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	reporter := metrics.NewMetricsReporter(interval)
	reporter.RegisterBackend("log", &logReportBackend{log: logger})
	return &metricsService{
		reporter: reporter,
		registry: registry,
		bridge:   newBridgeTicker(interval, registry, reporter),
	}
}

func (s *metricsService) Name() string { return "metrics" }

func (s *metricsService) Start() error {
	s.bridge.sampleInboundRate = s.sampleInboundRate
	s.reporter.Start()
	s.bridge.start()
	return nil
}

func (s *metricsService) Stop() error {
	s.bridge.stop()
	s.reporter.Stop()
	return nil
}

// bridgeTicker periodically copies counter/gauge values from a Registry
// snapshot into a MetricsReporter's recorded values; histogram entries
// are skipped since the reporter only tracks flat float64 values.
type bridgeTicker struct {
	interval          time.Duration
	registry          *metrics.Registry
	reporter          *metrics.MetricsReporter
	sampleInboundRate func() float64
	stopCh            chan struct{}
	doneCh            chan struct{}
}

func newBridgeTicker(interval time.Duration, registry *metrics.Registry, reporter *metrics.MetricsReporter) *bridgeTicker {
	return &bridgeTicker{interval: interval, registry: registry, reporter: reporter}
}

func (b *bridgeTicker) start() {
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	go b.loop()
}

func (b *bridgeTicker) stop() {
	if b.stopCh == nil {
		return
	}
	close(b.stopCh)
	<-b.doneCh
}

func (b *bridgeTicker) loop() {
	defer close(b.doneCh)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.copyOnce()
		}
	}
}

// metricsHTTPService serves the registry's contents in Prometheus text
// exposition format over HTTP, so an external scraper can poll the node
// instead of relying on the log-backed report backend alone.
type metricsHTTPService struct {
	srv *http.Server
	log *log.Logger
}

func newMetricsHTTPService(addr string, registry *metrics.Registry, logger *log.Logger) *metricsHTTPService {
	exporter := metrics.NewPrometheusExporter(registry, metrics.DefaultPrometheusConfig())
	return &metricsHTTPService{
		srv: &http.Server{Addr: addr, Handler: exporter.Handler()},
		log: logger,
	}
}

func (s *metricsHTTPService) Name() string { return "metrics-http" }

func (s *metricsHTTPService) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.srv.Addr = ln.Addr().String()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics http server stopped unexpectedly", "err", err)
		}
	}()
	return nil
}

// Addr returns the address the metrics HTTP server bound to, valid after Start.
func (s *metricsHTTPService) Addr() string { return s.srv.Addr }

func (s *metricsHTTPService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (b *bridgeTicker) copyOnce() {
	for name, v := range b.registry.Snapshot() {
		switch value := v.(type) {
		case int64:
			b.reporter.RecordMetric(name, float64(value))
		case float64:
			b.reporter.RecordMetric(name, value)
		}
	}
	if b.sampleInboundRate != nil {
		b.reporter.RecordMetric("transport.inbound_rate_1m", b.sampleInboundRate())
	}
}
