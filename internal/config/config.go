package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Defaults target the chart service's public dev deployment with batches of
// 5, 10 and 20 users, polling every 5s for up to 500s.
const (
	DefaultBaseURL      = "https://dev.timescalecreator.org"
	DefaultSubmitPath   = "/chart"
	DefaultStatusPath   = "/svgstatus/"
	DefaultDataDir      = "./ping_files/data"
	DefaultChartDir     = "./ping_files/charts"
	DefaultPollInterval = 5 * time.Second
	DefaultPollBudget   = 500 * time.Second
)

// DefaultUsers returns the batch sizes run when none are configured.
func DefaultUsers() []int {
	return []int{5, 10, 20}
}

type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	SubmitPath   string        `mapstructure:"submit_path"`
	StatusPath   string        `mapstructure:"status_path"`
	DataDir      string        `mapstructure:"data_dir"`
	ChartDir     string        `mapstructure:"chart_dir"`
	Users        []int         `mapstructure:"users"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollBudget   time.Duration `mapstructure:"poll_budget"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LaunchRate   int           `mapstructure:"launch_rate"`
	LegacyStatus bool          `mapstructure:"legacy_status"`
	Verbose      bool          `mapstructure:"verbose"`
	Progress     bool          `mapstructure:"progress"`
	Dashboard    bool          `mapstructure:"dashboard"`
	JSONOutput   bool          `mapstructure:"json_output"`
	YAMLOutput   bool          `mapstructure:"yaml_output"`
	HistoryFile  string        `mapstructure:"history_file"`
	HTMLOutput   string        `mapstructure:"html_output"`
	ConfigFile   string        `mapstructure:"-"`
	Tracing      TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures OpenTelemetry export of session spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector host:port
	Protocol    string  `mapstructure:"protocol"`     // "grpc" (default) or "http"
	Insecure    bool    `mapstructure:"insecure"`     // plaintext connection to the collector
	ServiceName string  `mapstructure:"service_name"` // defaults to OTEL_SERVICE_NAME or "chartload"
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0..1.0
	Propagate   *bool   `mapstructure:"propagate"`    // inject traceparent; defaults to Enabled()
}

// Enabled reports whether an OTLP endpoint is configured directly or via the environment.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether trace headers go out with service requests.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		issues = append(issues, "base-url is required")
	} else if u, err := url.Parse(base); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("base-url %q must be an absolute http(s) URL", base))
	}
	if !strings.HasPrefix(c.SubmitPath, "/") {
		issues = append(issues, "submit-path must start with /")
	}
	if !strings.HasPrefix(c.StatusPath, "/") {
		issues = append(issues, "status-path must start with /")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		issues = append(issues, "data-dir is required")
	}
	if strings.TrimSpace(c.ChartDir) == "" {
		issues = append(issues, "chart-dir is required")
	}

	if len(c.Users) == 0 {
		issues = append(issues, "at least one user count is required")
	}
	for _, n := range c.Users {
		if n < 1 {
			issues = append(issues, fmt.Sprintf("user count %d must be >= 1", n))
		}
		if n > 1000 {
			fmt.Fprintf(os.Stderr, "WARNING: %d concurrent users configured. Ensure you have authorization to load the target service.\n", n)
		}
	}

	if c.PollInterval <= 0 {
		issues = append(issues, "poll-interval must be > 0")
	}
	if c.PollBudget <= 0 {
		issues = append(issues, "poll-budget must be > 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.LaunchRate < 0 {
		issues = append(issues, "launch-rate must be >= 0")
	}
	if c.JSONOutput && c.YAMLOutput {
		issues = append(issues, "json-output and yaml-output are mutually exclusive")
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q must be grpc or http", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing sample-rate must be between 0 and 1")
	}
	return issues
}
