package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Transfer Results ---")
	fmt.Fprintf(w, "Operations:        %d (%d sends, %d receives)\n", stats.Ops, stats.Sends, stats.Recvs)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	if stats.Partials > 0 {
		fmt.Fprintf(w, "Partial (EOF):     %d\n", stats.Partials)
	}
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	if stats.BytesSent > 0 {
		fmt.Fprintf(w, "Sent:              %s  (%s)\n", FormatBytes(stats.BytesSent), FormatBitRate(stats.SendBitsPerSec))
	}
	if stats.BytesRecv > 0 {
		fmt.Fprintf(w, "Received:          %s  (%s)\n", FormatBytes(stats.BytesRecv), FormatBitRate(stats.RecvBitsPerSec))
	}
	fmt.Fprintf(w, "Ops/sec:           %.2f\n", stats.OpsPerSec)
	fmt.Fprintln(w, "\nPer-operation latency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nError Breakdown:")
		types := make([]string, 0, len(stats.Errors))
		for errType := range stats.Errors {
			types = append(types, errType)
		}
		sort.Slice(types, func(i, j int) bool {
			return stats.Errors[types[i]] > stats.Errors[types[j]]
		})
		for _, errType := range types {
			fmt.Fprintf(w, "  - %s: %d\n", metrics.FriendlyErrorName(errType), stats.Errors[errType])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// FormatBytes renders a byte count with a binary unit, iperf style.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GBytes", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MBytes", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KBytes", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d Bytes", n)
	}
}

// FormatBitRate renders a bits-per-second figure with a decimal unit.
func FormatBitRate(bps float64) string {
	switch {
	case bps >= 1e9:
		return fmt.Sprintf("%.2f Gbits/sec", bps/1e9)
	case bps >= 1e6:
		return fmt.Sprintf("%.2f Mbits/sec", bps/1e6)
	case bps >= 1e3:
		return fmt.Sprintf("%.2f Kbits/sec", bps/1e3)
	default:
		return fmt.Sprintf("%.0f bits/sec", bps)
	}
}
