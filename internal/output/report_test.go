package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
)

func sampleStats(t *testing.T) metrics.Stats {
	t.Helper()
	c := metrics.NewCollector()
	c.RecordTransfer(metrics.DirSend, 10<<20, 10*time.Millisecond, nil)
	c.RecordTransfer(metrics.DirRecv, 5<<20, 12*time.Millisecond, nil)
	c.RecordTransfer(metrics.DirSend, 0, time.Millisecond, errors.New("boom"))
	return c.Stats(2 * time.Second)
}

func TestPrintReportContents(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleStats(t))
	out := buf.String()

	for _, want := range []string{
		"Transfer Results",
		"Sent:",
		"Received:",
		"Mbits/sec",
		"Per-operation latency",
		"Error Breakdown",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleStats(t)); err != nil {
		t.Fatalf("PrintJSONReport error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if _, ok := decoded["bytes_sent"]; !ok {
		t.Errorf("expected bytes_sent in JSON report")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 Bytes"},
		{2048, "2.00 KBytes"},
		{3 << 20, "3.00 MBytes"},
		{1 << 30, "1.00 GBytes"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatBitRate(t *testing.T) {
	tests := []struct {
		bps  float64
		want string
	}{
		{500, "500 bits/sec"},
		{2_000, "2.00 Kbits/sec"},
		{8_000_000, "8.00 Mbits/sec"},
		{1.5e9, "1.50 Gbits/sec"},
	}
	for _, tt := range tests {
		if got := FormatBitRate(tt.bps); got != tt.want {
			t.Errorf("FormatBitRate(%g) = %q, want %q", tt.bps, got, tt.want)
		}
	}
}
