package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
)

func TestProgressReporterBasic(t *testing.T) {
	collector := metrics.NewCollector()

	for i := 0; i < 5; i++ {
		collector.RecordTransfer(metrics.DirSend, 1024, 30*time.Millisecond, nil)
	}

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 100*time.Millisecond, &buf)

	if reporter == nil {
		t.Fatal("Expected non-nil reporter")
	}

	reporter.Stop()
}

func TestProgressReporterFormatting(t *testing.T) {
	collector := metrics.NewCollector()

	collector.RecordTransfer(metrics.DirSend, 1<<20, 5*time.Millisecond, nil)

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 50*time.Millisecond, &buf)
	reporter.Start()

	time.Sleep(120 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "TX") {
		t.Errorf("Expected 'TX' in progress output, got %q", output)
	}
	if !strings.Contains(output, "bits/sec") {
		t.Errorf("Expected a bit rate in progress output, got %q", output)
	}
}

func TestProgressReporterZeroIntervalDisabled(t *testing.T) {
	collector := metrics.NewCollector()
	collector.RecordTransfer(metrics.DirSend, 1024, time.Millisecond, nil)

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 0, &buf)

	// Start and Stop must be no-ops, not panics.
	reporter.Start()
	time.Sleep(20 * time.Millisecond)
	reporter.Stop()

	if got := buf.String(); got != "" {
		t.Errorf("expected no output with zero interval, got %q", got)
	}
}

func TestProgressReporterStartIdempotent(t *testing.T) {
	collector := metrics.NewCollector()
	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 10*time.Millisecond, &buf)

	reporter.Start()
	reporter.Start() // second start must not spawn another loop
	time.Sleep(30 * time.Millisecond)
	reporter.Stop()
}
