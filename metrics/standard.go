package metrics

// Pre-defined metrics for the DHT node, all living in DefaultRegistry so
// they're globally accessible without passing a registry around.
// Per-bucket occupancy gauges are created individually by routing.New
// instead of listed here, since their name is parameterized on index.

var (
	// ---- Routing metrics ----

	// RoutingTableSize tracks the total number of entries across all buckets.
	RoutingTableSize = DefaultRegistry.Gauge("routing.table_size")
	// InsertsAccepted counts successful RoutingTable.Insert calls.
	InsertsAccepted = DefaultRegistry.Counter("routing.inserts_accepted")
	// InsertsRejectedSelf counts inserts rejected as the local node id.
	InsertsRejectedSelf = DefaultRegistry.Counter("routing.inserts_rejected_self")
	// EvictionsFromProbe counts stale entries evicted after a failed probe.
	EvictionsFromProbe = DefaultRegistry.Counter("routing.evictions_from_probe")

	// ---- Transport metrics ----

	// ProbeLatency records successful liveness-probe round-trip time, in
	// milliseconds.
	ProbeLatency = DefaultRegistry.Histogram("transport.probe_latency_ms")
	// ProbeFailures counts liveness probes that exhausted their retries.
	ProbeFailures = DefaultRegistry.Counter("transport.probe_failures")
	// ConnectionsAccepted counts inbound TCP connections accepted.
	ConnectionsAccepted = DefaultRegistry.Counter("transport.connections_accepted")
	// MessagesReceived counts wire messages decoded off any connection.
	MessagesReceived = DefaultRegistry.Counter("transport.messages_received")
	// MessagesSent counts wire messages written to any connection.
	MessagesSent = DefaultRegistry.Counter("transport.messages_sent")

	// ---- RPC dispatch metrics ----

	// SearchesHandled counts SEARCH requests answered.
	SearchesHandled = DefaultRegistry.Counter("rpc.searches_handled")
	// ConnectsHandled counts CONNECT requests answered.
	ConnectsHandled = DefaultRegistry.Counter("rpc.connects_handled")
)
