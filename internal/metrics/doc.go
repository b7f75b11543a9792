// Package metrics provides real-time metrics collection and aggregation
// for throughput testing.
//
// The central [Collector] type aggregates per-operation measurements from
// all stream workers:
//
//	collector := metrics.NewCollector()
//
//	// Record one completed socket operation.
//	collector.RecordTransfer(metrics.DirSend, bytes, latency, err)
//
//	// Get aggregated statistics.
//	stats := collector.Stats(elapsed)
//
// The [Stats] type covers operation counts, bytes moved in each direction,
// throughput in bits per second, per-operation latency percentiles, and an
// error breakdown by type.
//
// A single mutex guards the collector; it is safe to call RecordTransfer
// from multiple goroutines.
package metrics
