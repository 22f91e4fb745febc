package metrics

import (
	"math"
	"time"
)

// SuccessEntry is one successful session's latencies.
type SuccessEntry struct {
	Key            string        `json:"key" yaml:"key"`
	Initial        time.Duration `json:"-" yaml:"-"`
	Total          time.Duration `json:"-" yaml:"-"`
	Match          bool          `json:"match" yaml:"match"`
	InitialSeconds float64       `json:"initial_seconds" yaml:"initial_seconds"`
	TotalSeconds   float64       `json:"total_seconds" yaml:"total_seconds"`
}

// KindNoOutcome marks a launched session whose runner returned no outcome.
const KindNoOutcome = "no_outcome"

// ErrorEntry is one outcome in the "other errors" class.
type ErrorEntry struct {
	Key        string `json:"key" yaml:"key"`
	StatusCode int    `json:"status_code" yaml:"status_code"` // 0 when no status was received
	Body       string `json:"body,omitempty" yaml:"body,omitempty"`
	Kind       string `json:"kind" yaml:"kind"` // failure kind, or "fetched" for a non-200 fetch
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes one batch.
type Report struct {
	RunID    string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Users    int           `json:"users" yaml:"users"`
	Outcomes int           `json:"outcomes" yaml:"outcomes"`
	Duration time.Duration `json:"-" yaml:"-"`

	Successes       []SuccessEntry `json:"successes" yaml:"successes"`
	Timeouts        []string       `json:"timeouts" yaml:"timeouts"`
	ServerBusy      []string       `json:"server_busy" yaml:"server_busy"`
	GatewayTimeouts []string       `json:"gateway_timeouts" yaml:"gateway_timeouts"`
	OtherErrors     []ErrorEntry   `json:"other_errors" yaml:"other_errors"`

	Matches    int `json:"matches" yaml:"matches"`
	Mismatches int `json:"mismatches" yaml:"mismatches"`

	// HasLatency is false when there were no successes; the latency fields are then zero.
	HasLatency  bool          `json:"has_latency" yaml:"has_latency"`
	MeanInitial time.Duration `json:"-" yaml:"-"`
	MeanTotal   time.Duration `json:"-" yaml:"-"`
	P50Total    time.Duration `json:"-" yaml:"-"`
	P90Total    time.Duration `json:"-" yaml:"-"`
	P99Total    time.Duration `json:"-" yaml:"-"`

	// Serialization-friendly fields; the means are null without latency data.
	DurationSeconds    float64  `json:"duration_seconds" yaml:"duration_seconds"`
	MeanInitialSeconds *float64 `json:"mean_initial_seconds" yaml:"mean_initial_seconds"`
	MeanTotalSeconds   *float64 `json:"mean_total_seconds" yaml:"mean_total_seconds"`
	P50TotalSeconds    float64  `json:"p50_total_seconds" yaml:"p50_total_seconds"`
	P90TotalSeconds    float64  `json:"p90_total_seconds" yaml:"p90_total_seconds"`
	P99TotalSeconds    float64  `json:"p99_total_seconds" yaml:"p99_total_seconds"`
}

// MeanInitialSecs returns the mean submit latency in seconds, or +Inf without data.
func (r Report) MeanInitialSecs() float64 {
	if !r.HasLatency {
		return math.Inf(1)
	}
	return r.MeanInitial.Seconds()
}

// MeanTotalSecs returns the mean end-to-end latency in seconds, or +Inf without data.
func (r Report) MeanTotalSecs() float64 {
	if !r.HasLatency {
		return math.Inf(1)
	}
	return r.MeanTotal.Seconds()
}

// InitialLatencies returns every success's submit latency in report order.
func (r Report) InitialLatencies() []time.Duration {
	out := make([]time.Duration, len(r.Successes))
	for i, s := range r.Successes {
		out[i] = s.Initial
	}
	return out
}

// TotalLatencies returns every success's end-to-end latency in report order.
func (r Report) TotalLatencies() []time.Duration {
	out := make([]time.Duration, len(r.Successes))
	for i, s := range r.Successes {
		out[i] = s.Total
	}
	return out
}

// Classified returns the number of outcomes across all classes.
func (r Report) Classified() int {
	return len(r.Successes) + len(r.Timeouts) + len(r.ServerBusy) + len(r.GatewayTimeouts) + len(r.OtherErrors)
}

// SetDuration records the batch wall-clock time.
func (r *Report) SetDuration(d time.Duration) {
	r.Duration = d
	r.DurationSeconds = d.Seconds()
}
