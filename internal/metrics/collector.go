package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Direction labels which way a transfer moved bytes.
type Direction int

const (
	DirSend Direction = iota
	DirRecv
)

// Collector records per-operation metrics in a thread-safe manner.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	bytesSent    int64
	bytesRecv    int64
	sends        int64
	recvs        int64
	partials     int64
	failures     int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	errorsByType map[string]int64
	start        time.Time
}

// Stats represents aggregated metrics.
type Stats struct {
	Ops         int64         `json:"ops"`
	Sends       int64         `json:"sends"`
	Recvs       int64         `json:"recvs"`
	Partials    int64         `json:"partials"`
	Failures    int64         `json:"failures"`
	BytesSent   int64         `json:"bytes_sent"`
	BytesRecv   int64         `json:"bytes_received"`
	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`
	P50Latency  time.Duration `json:"-"`
	P90Latency  time.Duration `json:"-"`
	P99Latency  time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`
	OpsPerSec   float64       `json:"ops_per_sec"`

	// Throughput over the elapsed window, bits on the wire per second.
	SendBitsPerSec float64 `json:"send_bits_per_sec"`
	RecvBitsPerSec float64 `json:"recv_bits_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64        `json:"min_latency_ms"`
	MaxLatencyMs  float64        `json:"max_latency_ms"`
	MeanLatencyMs float64        `json:"mean_latency_ms"`
	P50LatencyMs  float64        `json:"p50_latency_ms"`
	P90LatencyMs  float64        `json:"p90_latency_ms"`
	P99LatencyMs  float64        `json:"p99_latency_ms"`
	DurationMs    float64        `json:"duration_ms"`
	Errors        map[string]int `json:"errors,omitempty"`
}

func NewCollector() *Collector {
	// Track per-operation latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// RecordTransfer records a single socket operation: bytes actually moved,
// the time the operation took, and its error state. Bytes count toward
// throughput even when err is non-nil, matching what reached the wire.
func (c *Collector) RecordTransfer(dir Direction, bytes int, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch dir {
	case DirSend:
		c.sends++
		c.bytesSent += int64(bytes)
	case DirRecv:
		c.recvs++
		c.bytesRecv += int64(bytes)
	}

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if err != nil {
		c.failures++
		errorType := fmt.Sprintf("%T", err)
		if len(errorType) > 30 {
			errorType = errorType[len(errorType)-30:]
		}
		c.errorsByType[errorType]++
	}
}

// RecordPartial notes an operation that ended at an orderly peer close with
// fewer bytes than requested. Partial completions are not failures.
func (c *Collector) RecordPartial() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partials++
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.sends + c.recvs
	stats := Stats{
		Ops:        total,
		Sends:      c.sends,
		Recvs:      c.recvs,
		Partials:   c.partials,
		Failures:   c.failures,
		BytesSent:  c.bytesSent,
		BytesRecv:  c.bytesRecv,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = float64(stats.MinLatency) / float64(time.Millisecond)
	stats.MaxLatencyMs = float64(stats.MaxLatency) / float64(time.Millisecond)
	stats.MeanLatencyMs = float64(stats.MeanLatency) / float64(time.Millisecond)
	stats.P50LatencyMs = float64(stats.P50Latency) / float64(time.Millisecond)
	stats.P90LatencyMs = float64(stats.P90Latency) / float64(time.Millisecond)
	stats.P99LatencyMs = float64(stats.P99Latency) / float64(time.Millisecond)

	stats.Duration = elapsed
	stats.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 {
		secs := elapsed.Seconds()
		if total > 0 {
			stats.OpsPerSec = float64(total) / secs
		}
		stats.SendBitsPerSec = float64(c.bytesSent) * 8 / secs
		stats.RecvBitsPerSec = float64(c.bytesRecv) * 8 / secs
	}

	if len(c.errorsByType) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			stats.Errors[k] = int(v)
		}
	}

	return stats
}

// GetErrorBreakdown returns a map of error types to their counts.
func (c *Collector) GetErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int)
	for k, v := range c.errorsByType {
		result[k] = int(v)
	}
	return result
}
