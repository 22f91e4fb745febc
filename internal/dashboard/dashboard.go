package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/chartload/internal/metrics"
	"github.com/torosent/chartload/internal/runner"
)

const maxBatchRows = 12

// RunConfig holds run parameters for display.
type RunConfig struct {
	BaseURL      string
	Sizes        []int
	Fixtures     int
	PollInterval time.Duration
	PollBudget   time.Duration
	LaunchRate   int
	Legacy       bool
	ConfigFile   string
}

// ProgressSource supplies live batch counters. *runner.Tracker satisfies it.
type ProgressSource interface {
	Snapshot() runner.Snapshot
}

// Dashboard renders a live terminal UI while batches run.
type Dashboard struct {
	source       ProgressSource
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid         *ui.Grid
	summaryPara  *widgets.Paragraph
	batchGauge   *widgets.Gauge
	latencyGroup *widgets.SparklineGroup
	latencyPara  *widgets.Paragraph
	batchList    *widgets.List
	errorList    *widgets.List

	meanHistory  []float64
	reports      []metrics.Report
	currentUsers int
	batchStart   time.Time
	startTime    time.Time
	config       RunConfig
}

// New initializes the terminal and creates a Dashboard. shutdownFunc runs
// when the user presses q or Ctrl-C.
func New(source ProgressSource, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}
	d := newDashboard(source, cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(source ProgressSource, cfg RunConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		source:       source,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		meanHistory:  make([]float64, 0, len(cfg.Sizes)),
		startTime:    time.Now(),
		batchStart:   time.Now(),
		config:       cfg,
	}
	d.initWidgets()
	return d
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.batchGauge = widgets.NewGauge()
	d.batchGauge.Title = "Current Batch"
	d.batchGauge.BarColor = ui.ColorBlue
	d.batchGauge.BorderStyle.Fg = ui.ColorCyan
	d.batchGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mean total (s) per batch"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}
	d.latencyGroup = widgets.NewSparklineGroup(sparkline)
	d.latencyGroup.Title = "Latency by Batch"
	d.latencyGroup.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Last Batch Latency"
	d.latencyPara.Text = "Waiting for data..."
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.batchList = widgets.NewList()
	d.batchList.Title = "Completed Batches"
	d.batchList.Rows = []string{"Awaiting data"}
	d.batchList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.batchList.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Other Errors (last batch)"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.batchGauge),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.65, d.latencyGroup),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.40,
			ui.NewCol(0.6, d.batchList),
			ui.NewCol(0.4, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// StartBatch marks the start of a batch of users sessions.
func (d *Dashboard) StartBatch(users int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentUsers = users
	d.batchStart = time.Now()
}

// AddReport records a finished batch.
func (d *Dashboard) AddReport(r metrics.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = append(d.reports, r)
	mean := 0.0
	if r.HasLatency {
		mean = r.MeanTotal.Seconds()
	}
	d.meanHistory = append(d.meanHistory, mean)
	d.latencyGroup.Sparklines[0].Data = d.meanHistory
	d.latencyPara.Text = formatLatency(r)
	d.batchList.Rows = formatBatchRows(d.reports)
	d.errorList.Rows = formatErrorRows(r.OtherErrors)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes the live widgets from the progress source.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.source.Snapshot()
	percent := 0
	if snap.Users > 0 {
		percent = snap.Completed * 100 / snap.Users
	}
	d.batchGauge.Percent = percent
	d.batchGauge.Label = fmt.Sprintf("%d users | %d/%d completed | %d successes | %s",
		d.currentUsers, snap.Completed, snap.Users, snap.Succeeded, time.Since(d.batchStart).Round(time.Second))

	d.summaryPara.Text = fmt.Sprintf("Target: %s\n%s\nElapsed: %s | Batches done: %d/%d",
		d.config.BaseURL,
		d.formatRunParams(),
		time.Since(d.startTime).Round(time.Second),
		len(d.reports),
		len(d.config.Sizes),
	)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	ui.Render(d.grid)
}

func formatLatency(r metrics.Report) string {
	if !r.HasLatency {
		return "No successful sessions"
	}
	return fmt.Sprintf("Mean initial: %.2fs\nMean total:   %.2fs\nP50:  %.2fs\nP90:  %.2fs\nP99:  %.2fs",
		r.MeanInitial.Seconds(),
		r.MeanTotal.Seconds(),
		r.P50Total.Seconds(),
		r.P90Total.Seconds(),
		r.P99Total.Seconds(),
	)
}

func formatBatchRows(reports []metrics.Report) []string {
	if len(reports) == 0 {
		return []string{"Awaiting data"}
	}
	start := 0
	if len(reports) > maxBatchRows {
		start = len(reports) - maxBatchRows
	}
	rows := make([]string, 0, len(reports)-start)
	for _, r := range reports[start:] {
		mean := "n/a"
		if r.HasLatency {
			mean = fmt.Sprintf("%.2fs", r.MeanTotal.Seconds())
		}
		rows = append(rows, fmt.Sprintf("[%3d users](fg:cyan) | ok %d (match %d) | 408 %d | 503 %d | 504 %d | other %d | mean %s",
			r.Users,
			len(r.Successes),
			r.Matches,
			len(r.Timeouts),
			len(r.ServerBusy),
			len(r.GatewayTimeouts),
			len(r.OtherErrors),
			mean,
		))
	}
	return rows
}

func formatErrorRows(entries []metrics.ErrorEntry) []string {
	rows := metrics.FlattenStatusBuckets(entries)
	if len(rows) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	maxRows := len(rows)
	if maxRows > 10 {
		maxRows = 10
	}
	formatted := make([]string, 0, maxRows)
	for _, row := range rows[:maxRows] {
		formatted = append(formatted, fmt.Sprintf("[%s %s](fg:red) %d", row.Label(), row.Kind, row.Count))
	}
	return formatted
}

// formatRunParams formats the run configuration for display.
func (d *Dashboard) formatRunParams() string {
	var parts []string

	if len(d.config.Sizes) > 0 {
		sizes := make([]string, len(d.config.Sizes))
		for i, n := range d.config.Sizes {
			sizes[i] = fmt.Sprintf("%d", n)
		}
		parts = append(parts, "Users: "+strings.Join(sizes, ","))
	}
	parts = append(parts, fmt.Sprintf("Fixtures: %d", d.config.Fixtures))
	if d.config.PollInterval > 0 {
		parts = append(parts, fmt.Sprintf("Poll: %s", d.config.PollInterval))
	}
	if d.config.PollBudget > 0 {
		parts = append(parts, fmt.Sprintf("Budget: %s", d.config.PollBudget))
	}
	if d.config.LaunchRate > 0 {
		parts = append(parts, fmt.Sprintf("Launch: %d/s", d.config.LaunchRate))
	} else {
		parts = append(parts, "Launch: all at once")
	}
	if d.config.Legacy {
		parts = append(parts, "Legacy status")
	}
	if d.config.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.config.ConfigFile))
	}
	return strings.Join(parts, " | ")
}
