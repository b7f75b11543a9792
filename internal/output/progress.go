package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
)

// ProgressReporter displays real-time interval throughput updates.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time

	// Previous snapshot, for per-interval deltas.
	lastSent int64
	lastRecv int64
	lastTick time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. A non-positive interval disables periodic updates entirely.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	now := time.Now()
	p := &ProgressReporter{
		collector: collector,
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     now,
		lastTick:  now,
	}
	if interval > 0 {
		p.ticker = time.NewTicker(interval)
	}
	return p
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if p.ticker == nil {
		return // reporting disabled
	}
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			now := time.Now()
			elapsed := now.Sub(p.start)
			stats := p.collector.Stats(elapsed)

			window := now.Sub(p.lastTick).Seconds()
			if window <= 0 {
				window = 1
			}
			sentDelta := stats.BytesSent - p.lastSent
			recvDelta := stats.BytesRecv - p.lastRecv
			p.lastSent = stats.BytesSent
			p.lastRecv = stats.BytesRecv
			p.lastTick = now

			line := fmt.Sprintf("\r[%6.1fs] ", elapsed.Seconds())
			if sentDelta > 0 || stats.BytesSent > 0 {
				line += fmt.Sprintf("TX %s %s", FormatBytes(sentDelta), FormatBitRate(float64(sentDelta)*8/window))
			}
			if recvDelta > 0 || stats.BytesRecv > 0 {
				if stats.BytesSent > 0 {
					line += " | "
				}
				line += fmt.Sprintf("RX %s %s", FormatBytes(recvDelta), FormatBitRate(float64(recvDelta)*8/window))
			}
			if stats.Failures > 0 {
				line += fmt.Sprintf(" | Failures: %d", stats.Failures)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
