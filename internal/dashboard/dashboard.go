// Package dashboard renders a live terminal UI for transfer metrics.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
)

// TestConfig holds transfer configuration parameters for display.
type TestConfig struct {
	Target     string        // host:port being driven or listened on
	Mode       string        // client or server
	Protocol   string        // tcp or udp
	Parallel   int           // number of parallel streams
	Duration   time.Duration // run duration (0 = unlimited)
	TotalBytes int64         // byte budget (0 = unlimited)
	Rate       int           // operations per second (0 = unpaced)
	Markov     string        // traffic model specification, if any
	ConfigFile string        // path to config file if used
}

// Dashboard renders a live terminal UI for transfer metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid             *ui.Grid
	throughputSpark  *widgets.SparklineGroup
	latencyPara      *widgets.Paragraph
	throughputGauge  *widgets.Gauge
	errorList        *widgets.List
	summaryPara      *widgets.Paragraph
	metricsPara      *widgets.Paragraph
	throughputHist   []float64
	peakBitsPerSec   float64
	lastBytesMoved   int64
	lastUpdateTime   time.Time
	startTime        time.Time
	testDuration     time.Duration
	testConfig       TestConfig
}

// New creates a new Dashboard.
func New(collector *metrics.Collector, cfg TestConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		throughputHist: make([]float64, 0, 100),
		startTime:      time.Now(),
		lastUpdateTime: time.Now(),
		testConfig:     cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	// Throughput Sparkline
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mbits/sec"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.throughputSpark = widgets.NewSparklineGroup(sparkline)
	d.throughputSpark.Title = "Real-time Throughput"
	d.throughputSpark.BorderStyle.Fg = ui.ColorCyan

	// Latency Metrics Paragraph
	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Per-op Latency"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	// Throughput Gauge
	d.throughputGauge = widgets.NewGauge()
	d.throughputGauge.Title = "Throughput vs Peak"
	d.throughputGauge.Percent = 0
	d.throughputGauge.BarColor = ui.ColorBlue
	d.throughputGauge.BorderStyle.Fg = ui.ColorCyan
	d.throughputGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	// Error List
	d.errorList = widgets.NewList()
	d.errorList.Title = "Errors"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	// Summary Paragraph
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Transfer Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	// Metrics Paragraph (plain text summary)
	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.20,
			ui.NewCol(0.5, d.throughputGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.65, d.throughputSpark),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.testDuration = time.Since(d.startTime)
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// GetFinalStats returns the final statistics after the dashboard has stopped.
func (d *Dashboard) GetFinalStats() metrics.Stats {
	return d.collector.Stats(d.testDuration)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			// Check if context is done to avoid blocking
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(d.startTime)
	stats := d.collector.Stats(elapsed)

	// Throughput over the last tick window, in bits/sec.
	window := now.Sub(d.lastUpdateTime).Seconds()
	if window <= 0 {
		window = 1
	}
	moved := stats.BytesSent + stats.BytesRecv
	instantBps := float64(moved-d.lastBytesMoved) * 8 / window
	d.lastBytesMoved = moved
	d.lastUpdateTime = now

	if instantBps > d.peakBitsPerSec {
		d.peakBitsPerSec = instantBps
	}

	d.throughputHist = append(d.throughputHist, instantBps/1e6)
	if len(d.throughputHist) > 100 {
		d.throughputHist = d.throughputHist[1:]
	}
	d.throughputSpark.Sparklines[0].Data = d.throughputHist
	d.throughputSpark.Title = fmt.Sprintf(
		"Real-time Throughput | Current: %.1f Mbits/sec | Peak: %.1f Mbits/sec",
		instantBps/1e6,
		d.peakBitsPerSec/1e6,
	)

	gaugePercent := 0
	if d.peakBitsPerSec > 0 {
		gaugePercent = int((instantBps / d.peakBitsPerSec) * 100)
	}
	if gaugePercent > 100 {
		gaugePercent = 100
	}
	d.throughputGauge.Percent = gaugePercent
	d.throughputGauge.Label = fmt.Sprintf("%.1f Mbits/sec", instantBps/1e6)

	params := d.formatTestParams()

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s (%s %s)\n%s\nElapsed: %s | Ops: %d | Failures: %d",
		d.testConfig.Target,
		d.testConfig.Mode,
		d.testConfig.Protocol,
		params,
		elapsed.Round(time.Second),
		stats.Ops,
		stats.Failures,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Operations:        %d\nSends / Receives:  %d / %d\nBytes Sent:        %d\nBytes Received:    %d\nPartial (EOF):     %d\nFailures:          %d\nOps/sec:           %.2f",
		stats.Ops,
		stats.Sends,
		stats.Recvs,
		stats.BytesSent,
		stats.BytesRecv,
		stats.Partials,
		stats.Failures,
		stats.OpsPerSec,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P99LatencyMs,
	)

	d.errorList.Rows = formatErrorRows(stats.Errors)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func formatErrorRows(errs map[string]int) []string {
	if len(errs) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	types := make([]string, 0, len(errs))
	for errType := range errs {
		types = append(types, errType)
	}
	sort.Slice(types, func(i, j int) bool {
		if errs[types[i]] == errs[types[j]] {
			return types[i] < types[j]
		}
		return errs[types[i]] > errs[types[j]]
	})
	maxRows := len(types)
	if maxRows > 10 {
		maxRows = 10
	}
	formatted := make([]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:red) %d", metrics.FriendlyErrorName(types[i]), errs[types[i]]))
	}
	return formatted
}

// formatTestParams formats the transfer configuration parameters for display.
func (d *Dashboard) formatTestParams() string {
	var parts []string

	if d.testConfig.Parallel > 0 {
		parts = append(parts, fmt.Sprintf("Streams: %d", d.testConfig.Parallel))
	}

	if d.testConfig.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d ops/s", d.testConfig.Rate))
	} else {
		parts = append(parts, "Rate: unpaced")
	}

	if d.testConfig.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", d.testConfig.Duration))
	}

	if d.testConfig.TotalBytes > 0 {
		parts = append(parts, fmt.Sprintf("Budget: %d bytes", d.testConfig.TotalBytes))
	}

	if d.testConfig.Markov != "" {
		parts = append(parts, fmt.Sprintf("Model: %s", d.testConfig.Markov))
	}

	if d.testConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.testConfig.ConfigFile))
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, " | ")
}
