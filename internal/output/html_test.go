package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/torosent/chartload/internal/metrics"
	"github.com/torosent/chartload/internal/session"
)

func TestGenerateHTMLReport(t *testing.T) {
	empty := metrics.Summarize(5, []session.Outcome{
		session.Failure{Key: "maps", Kind: session.FailureRejected, StatusCode: 500},
	})
	reports := []metrics.Report{empty, sampleReport()}

	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, reports, ReportMetadata{BaseURL: "https://charts.example", Fixtures: 4}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Target: https://charts.example",
		"5 users",
		"4 users",
		"01TESTRUN",
		"<td>ages</td>",
		"No successful sessions",
		"latency-chart",
		`"users":[5,4]`,
		`"mean":[null,3.5]`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in HTML report", want)
		}
	}
}

func TestGenerateHTMLReportNoBatches(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, nil, ReportMetadata{}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No batches were run") {
		t.Fatal("expected empty-state message")
	}
}
