package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/chartload/internal/metrics"
)

// ReportMetadata describes the run an HTML report covers.
type ReportMetadata struct {
	BaseURL  string
	Fixtures int
	Legacy   bool
}

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt string
	Batches     []htmlBatch
	SeriesJSON  template.JS
	Metadata    ReportMetadata
}

type htmlBatch struct {
	metrics.Report
	StatusBuckets []metrics.StatusBucket
}

// latencySeries is the uPlot data layout: x values then one array per series.
type latencySeries struct {
	Users []int      `json:"users"`
	Mean  []*float64 `json:"mean"`
	P90   []*float64 `json:"p90"`
	P99   []*float64 `json:"p99"`
}

// GenerateHTMLReport writes a standalone HTML page comparing every batch of a run.
func GenerateHTMLReport(w io.Writer, reports []metrics.Report, metadata ReportMetadata) error {
	series := latencySeries{}
	batches := make([]htmlBatch, len(reports))
	for i, r := range reports {
		batches[i] = htmlBatch{Report: r, StatusBuckets: metrics.FlattenStatusBuckets(r.OtherErrors)}
		series.Users = append(series.Users, r.Users)
		if r.HasLatency {
			series.Mean = append(series.Mean, r.MeanTotalSeconds)
			series.P90 = append(series.P90, ptr(r.P90TotalSeconds))
			series.P99 = append(series.P99, ptr(r.P99TotalSeconds))
		} else {
			series.Mean = append(series.Mean, nil)
			series.P90 = append(series.P90, nil)
			series.P99 = append(series.P99, nil)
		}
	}

	seriesJSON, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal latency series: %w", err)
	}

	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Batches:     batches,
		SeriesJSON:  template.JS(seriesJSON),
		Metadata:    metadata,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
		"formatSeconds": formatSeconds,
		"formatPercent": func(part, total int) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func ptr(v float64) *float64 { return &v }

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Chart Service Load Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container { max-width: 1200px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; }
        header { background: #334155; color: white; padding: 24px 32px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 32px; }
        .section { margin-bottom: 36px; }
        .section h2 { font-size: 1.3rem; margin-bottom: 16px; padding-bottom: 8px; border-bottom: 2px solid #e5e7eb; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; margin-bottom: 20px; }
        .card { background: #f8f9fa; border-radius: 8px; padding: 16px; border-left: 4px solid #64748b; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .card h3 { font-size: 0.8rem; color: #6c757d; text-transform: uppercase; }
        .card .value { font-size: 1.6rem; font-weight: bold; }
        .chart { width: 100%; height: 300px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e5e7eb; font-size: 0.9rem; }
        th { background: #f8f9fa; color: #4b5563; }
        .no-data { text-align: center; padding: 24px; color: #6c757d; font-style: italic; }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>Chart Service Load Report</h1>
            {{if .Metadata.BaseURL}}<div class="meta">Target: {{.Metadata.BaseURL}}</div>{{end}}
            <div class="meta">Generated: {{.GeneratedAt}} | Fixtures: {{.Metadata.Fixtures}}{{if .Metadata.Legacy}} | legacy status mode{{end}}</div>
        </header>
        <div class="content">
            {{if .Batches}}
            <div class="section">
                <h2>Total Latency by Batch Size</h2>
                <div id="latency-chart" class="chart"></div>
            </div>
            {{range .Batches}}
            <div class="section">
                <h2>{{.Users}} users{{if .RunID}} <small>({{.RunID}})</small>{{end}}</h2>
                <div class="grid">
                    <div class="card success"><h3>Successes</h3><div class="value">{{len .Successes}}</div><div>{{formatPercent (len .Successes) .Outcomes}}%</div></div>
                    <div class="card"><h3>Matches / Mismatches</h3><div class="value">{{.Matches}} / {{.Mismatches}}</div></div>
                    <div class="card error"><h3>Timeouts (408)</h3><div class="value">{{len .Timeouts}}</div></div>
                    <div class="card error"><h3>Server Busy (503)</h3><div class="value">{{len .ServerBusy}}</div></div>
                    <div class="card error"><h3>Gateway Timeouts (504)</h3><div class="value">{{len .GatewayTimeouts}}</div></div>
                    <div class="card error"><h3>Other Errors</h3><div class="value">{{len .OtherErrors}}</div></div>
                    <div class="card"><h3>Mean Initial</h3><div class="value">{{formatSeconds .MeanInitialSecs}}s</div></div>
                    <div class="card"><h3>Mean Total</h3><div class="value">{{formatSeconds .MeanTotalSecs}}s</div></div>
                    <div class="card"><h3>Duration</h3><div class="value">{{formatDuration .Duration}}</div></div>
                </div>
                {{if .StatusBuckets}}
                <table>
                    <thead><tr><th>Status</th><th>Kind</th><th>Count</th></tr></thead>
                    <tbody>
                    {{range .StatusBuckets}}<tr><td>{{.Label}}</td><td>{{.Kind}}</td><td>{{.Count}}</td></tr>{{end}}
                    </tbody>
                </table>
                {{end}}
                {{if .Successes}}
                <table>
                    <thead><tr><th>Fixture</th><th>Initial (s)</th><th>Total (s)</th><th>Match</th></tr></thead>
                    <tbody>
                    {{range .Successes}}<tr><td>{{.Key}}</td><td>{{formatSeconds .InitialSeconds}}</td><td>{{formatSeconds .TotalSeconds}}</td><td>{{.Match}}</td></tr>{{end}}
                    </tbody>
                </table>
                {{else}}
                <div class="no-data">No successful sessions</div>
                {{end}}
            </div>
            {{end}}
            {{else}}
            <div class="no-data">No batches were run</div>
            {{end}}
        </div>
    </div>
    <script>
        const series = {{.SeriesJSON}};
        const el = document.getElementById('latency-chart');
        if (el && typeof uPlot !== 'undefined') {
            new uPlot({
                width: el.clientWidth,
                height: 300,
                series: [
                    { label: 'Users' },
                    { label: 'Mean (s)', stroke: '#334155' },
                    { label: 'P90 (s)', stroke: '#f59e0b' },
                    { label: 'P99 (s)', stroke: '#ef4444' },
                ],
            }, [series.users, series.mean, series.p90, series.p99], el);
        }
    </script>
</body>
</html>
`
