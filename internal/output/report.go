package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/torosent/chartload/internal/metrics"
)

const rule = "**************************************************"

// PrintBatchHeader announces a batch before its sessions launch.
func PrintBatchHeader(w io.Writer, users int) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Simulating %d users pinging the endpoint\n", users)
}

// PrintReport outputs a human-readable batch summary.
func PrintReport(w io.Writer, r metrics.Report) {
	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Number of successful responses (200): %d\n", len(r.Successes))
	fmt.Fprintf(w, "Number of timeouts (408): %d - %s\n", len(r.Timeouts), formatKeys(r.Timeouts))
	fmt.Fprintf(w, "Number of server busy (503): %d - %s\n", len(r.ServerBusy), formatKeys(r.ServerBusy))
	fmt.Fprintf(w, "Number of gateway timeouts (504): %d - %s\n", len(r.GatewayTimeouts), formatKeys(r.GatewayTimeouts))
	fmt.Fprintf(w, "Other errors: %d\n", len(r.OtherErrors))
	writeOtherErrors(w, r.OtherErrors, "  ")
	fmt.Fprintf(w, "Number of matching responses: %d\n", r.Matches)
	fmt.Fprintf(w, "Number of mismatching responses: %d\n", r.Mismatches)
	fmt.Fprintf(w, "Average response time of chart request: %s seconds\n", formatSeconds(r.MeanInitialSecs()))
	fmt.Fprintf(w, "All chart request times: %s\n", formatDurations(r.InitialLatencies()))
	fmt.Fprintf(w, "Average total response time: %s seconds\n", formatSeconds(r.MeanTotalSecs()))
	fmt.Fprintf(w, "All total response times: %s\n", formatDurations(r.TotalLatencies()))
	if r.HasLatency {
		fmt.Fprintf(w, "Total response percentiles: p50=%s p90=%s p99=%s\n",
			formatSeconds(r.P50Total.Seconds()), formatSeconds(r.P90Total.Seconds()), formatSeconds(r.P99Total.Seconds()))
	}
	if r.Duration > 0 {
		fmt.Fprintf(w, "Batch duration: %s\n", r.Duration.Round(time.Millisecond))
	}

	fmt.Fprintln(w, "\nDetails for each request:")
	for _, s := range r.Successes {
		fmt.Fprintf(w, "File: %s, Initial Response Time: %s seconds, Total Response Time: %s seconds\n",
			s.Key, formatSeconds(s.Initial.Seconds()), formatSeconds(s.Total.Seconds()))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs the report as one YAML document.
func PrintYAMLReport(w io.Writer, r metrics.Report) error {
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}

func writeOtherErrors(w io.Writer, entries []metrics.ErrorEntry, indent string) {
	for _, e := range entries {
		line := fmt.Sprintf("%s- %s: status %s (%s)", indent, e.Key, statusLabel(e.StatusCode), e.Kind)
		if e.Body != "" {
			line += " " + truncate(e.Body, 200)
		}
		if e.Error != "" {
			line += " error: " + e.Error
		}
		fmt.Fprintln(w, line)
	}
	buckets := metrics.FlattenStatusBuckets(entries)
	if len(buckets) > 1 {
		fmt.Fprintf(w, "%sBy status:", indent)
		for _, b := range buckets {
			fmt.Fprintf(w, " %s/%s=%d", b.Label(), b.Kind, b.Count)
		}
		fmt.Fprintln(w)
	}
}

func statusLabel(code int) string {
	if code == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", code)
}

// formatSeconds renders seconds with two decimals; the no-data sentinel prints as "inf".
func formatSeconds(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatDurations(ds []time.Duration) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = formatSeconds(d.Seconds())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatKeys(keys []string) string {
	return "[" + strings.Join(keys, ", ") + "]"
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
