package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/chartload/internal/metrics"
	"github.com/torosent/chartload/internal/runner"
	"github.com/torosent/chartload/internal/session"
)

type fixedSource runner.Snapshot

func (f fixedSource) Snapshot() runner.Snapshot { return runner.Snapshot(f) }

func batchReport(users int) metrics.Report {
	return metrics.Summarize(users, []session.Outcome{
		session.Success{Key: "ages", Initial: time.Second, Total: 4 * time.Second, StatusCode: 200},
		session.Failure{Key: "maps", Kind: session.FailureRejected, StatusCode: 500},
		session.Failure{Key: "zones", Kind: session.FailureRejected, StatusCode: 503},
	})
}

func TestUpdateShowsBatchProgress(t *testing.T) {
	d := newDashboard(fixedSource{Users: 10, Launched: 10, Completed: 4, Succeeded: 3}, RunConfig{
		BaseURL: "https://charts.example",
		Sizes:   []int{5, 10},
	}, nil)
	d.StartBatch(10)
	d.update()

	if d.batchGauge.Percent != 40 {
		t.Errorf("gauge percent = %d, want 40", d.batchGauge.Percent)
	}
	if !strings.Contains(d.batchGauge.Label, "4/10 completed") {
		t.Errorf("unexpected gauge label %q", d.batchGauge.Label)
	}
	if !strings.Contains(d.summaryPara.Text, "Target: https://charts.example") {
		t.Errorf("unexpected summary %q", d.summaryPara.Text)
	}
	if !strings.Contains(d.summaryPara.Text, "Batches done: 0/2") {
		t.Errorf("unexpected summary %q", d.summaryPara.Text)
	}
}

func TestUpdateWithoutUsers(t *testing.T) {
	d := newDashboard(fixedSource{}, RunConfig{}, nil)
	d.update()
	if d.batchGauge.Percent != 0 {
		t.Fatalf("gauge percent = %d, want 0", d.batchGauge.Percent)
	}
}

func TestAddReport(t *testing.T) {
	d := newDashboard(fixedSource{}, RunConfig{Sizes: []int{3}}, nil)
	d.AddReport(batchReport(3))

	if len(d.batchList.Rows) != 1 || !strings.Contains(d.batchList.Rows[0], "ok 1 (match 1)") {
		t.Errorf("unexpected batch rows %v", d.batchList.Rows)
	}
	if !strings.Contains(d.batchList.Rows[0], "503 1") || !strings.Contains(d.batchList.Rows[0], "other 1") {
		t.Errorf("unexpected batch row %q", d.batchList.Rows[0])
	}
	if got := d.latencyGroup.Sparklines[0].Data; len(got) != 1 || got[0] != 4 {
		t.Errorf("sparkline data = %v", got)
	}
	if !strings.Contains(d.latencyPara.Text, "Mean total:   4.00s") {
		t.Errorf("unexpected latency text %q", d.latencyPara.Text)
	}
	if len(d.errorList.Rows) != 1 || !strings.Contains(d.errorList.Rows[0], "500 rejected") {
		t.Errorf("unexpected error rows %v", d.errorList.Rows)
	}
}

func TestFormatLatencyWithoutData(t *testing.T) {
	if got := formatLatency(metrics.Summarize(1, nil)); got != "No successful sessions" {
		t.Fatalf("formatLatency() = %q", got)
	}
}

func TestFormatBatchRowsKeepsLatest(t *testing.T) {
	var reports []metrics.Report
	for i := 1; i <= maxBatchRows+3; i++ {
		reports = append(reports, metrics.Summarize(i, nil))
	}
	rows := formatBatchRows(reports)
	if len(rows) != maxBatchRows {
		t.Fatalf("expected %d rows, got %d", maxBatchRows, len(rows))
	}
	if !strings.Contains(rows[len(rows)-1], "15 users") {
		t.Fatalf("expected the latest batch last, got %q", rows[len(rows)-1])
	}
	if !strings.Contains(rows[0], "mean n/a") {
		t.Fatalf("expected n/a mean, got %q", rows[0])
	}
}

func TestFormatErrorRows(t *testing.T) {
	if rows := formatErrorRows(nil); len(rows) != 1 || !strings.Contains(rows[0], "No failures") {
		t.Fatalf("unexpected rows %v", rows)
	}
	rows := formatErrorRows([]metrics.ErrorEntry{{Key: "a", Kind: "poll_exhausted"}})
	if len(rows) != 1 || !strings.Contains(rows[0], "none poll_exhausted") {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestFormatRunParams(t *testing.T) {
	tests := []struct {
		name     string
		config   RunConfig
		contains []string
	}{
		{
			name:     "defaults",
			config:   RunConfig{Sizes: []int{5, 10, 20}, Fixtures: 3},
			contains: []string{"Users: 5,10,20", "Fixtures: 3", "Launch: all at once"},
		},
		{
			name: "paced legacy",
			config: RunConfig{
				LaunchRate:   4,
				PollInterval: 5 * time.Second,
				PollBudget:   500 * time.Second,
				Legacy:       true,
				ConfigFile:   "run.yaml",
			},
			contains: []string{"Launch: 4/s", "Poll: 5s", "Budget: 8m20s", "Legacy status", "Config: run.yaml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDashboard(fixedSource{}, tt.config, nil)
			got := d.formatRunParams()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatRunParams() = %q, missing %q", got, want)
				}
			}
		})
	}
}
