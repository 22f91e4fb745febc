package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chartload",
		Short:         "Load test a chart rendering service with concurrent simulated users",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Service
	flags.String("base-url", DefaultBaseURL, "Chart service base URL")
	flags.String("submit-path", DefaultSubmitPath, "Path that accepts chart submissions")
	flags.String("status-path", DefaultStatusPath, "Path prefix for chart status checks (hash is appended)")
	flags.Duration("timeout", 0, "Per-request transport timeout (0 means none)")

	// Fixtures
	flags.String("data-dir", DefaultDataDir, "Directory of input payloads")
	flags.String("chart-dir", DefaultChartDir, "Directory of expected charts")

	// Load
	flags.IntSliceP("users", "u", DefaultUsers(), "Simulated user counts, one batch each, run in order")
	flags.Duration("poll-interval", DefaultPollInterval, "Delay between status checks")
	flags.Duration("poll-budget", DefaultPollBudget, "How long a session polls before giving up, measured from submit")
	flags.Int("launch-rate", 0, "Sessions started per second (0 starts all at once)")
	flags.Bool("legacy-status", false, "Report poll exhaustion with the submit status and keep polling when chartpath is missing")

	// Output
	flags.BoolP("verbose", "v", false, "Log every session step to stderr")
	flags.Bool("progress", false, "Show a progress line while each batch runs")
	flags.Bool("dashboard", false, "Show a live terminal dashboard; reports print when it closes")
	flags.Bool("json-output", false, "Emit JSON formatted reports")
	flags.Bool("yaml-output", false, "Emit YAML formatted reports")
	flags.String("history-file", "", "Append each batch summary to this JSON lines file")
	flags.String("html-output", "", "Write an HTML report of all batches to this file")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (host:port)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS to the OTLP collector")
	flags.String("tracing-service-name", "", "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of sessions traced (0.0-1.0)")
	flags.Bool("tracing-propagate", false, "Send W3C traceparent headers to the chart service")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	stringFlags := map[string]*string{
		"base-url":             &cfg.BaseURL,
		"submit-path":          &cfg.SubmitPath,
		"status-path":          &cfg.StatusPath,
		"data-dir":             &cfg.DataDir,
		"chart-dir":            &cfg.ChartDir,
		"history-file":         &cfg.HistoryFile,
		"html-output":          &cfg.HTMLOutput,
		"tracing-endpoint":     &cfg.Tracing.Endpoint,
		"tracing-protocol":     &cfg.Tracing.Protocol,
		"tracing-service-name": &cfg.Tracing.ServiceName,
	}
	for name, dst := range stringFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
	}

	boolFlags := map[string]*bool{
		"legacy-status":    &cfg.LegacyStatus,
		"verbose":          &cfg.Verbose,
		"progress":         &cfg.Progress,
		"dashboard":        &cfg.Dashboard,
		"json-output":      &cfg.JSONOutput,
		"yaml-output":      &cfg.YAMLOutput,
		"tracing-insecure": &cfg.Tracing.Insecure,
	}
	for name, dst := range boolFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	durationFlags := map[string]*time.Duration{
		"timeout":       &cfg.Timeout,
		"poll-interval": &cfg.PollInterval,
		"poll-budget":   &cfg.PollBudget,
	}
	for name, dst := range durationFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	if fs.Changed("users") {
		val, err := fs.GetIntSlice("users")
		if err != nil {
			return err
		}
		cfg.Users = val
	}
	if fs.Changed("launch-rate") {
		val, err := fs.GetInt("launch-rate")
		if err != nil {
			return err
		}
		cfg.LaunchRate = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		cfg.Tracing.Propagate = &val
	}

	return nil
}
