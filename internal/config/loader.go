package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and an optional configuration file.
// With no arguments the built-in defaults are used.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := defaultConfig()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.ChartDir = strings.TrimSpace(cfg.ChartDir)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		SubmitPath:   DefaultSubmitPath,
		StatusPath:   DefaultStatusPath,
		DataDir:      DefaultDataDir,
		ChartDir:     DefaultChartDir,
		Users:        DefaultUsers(),
		PollInterval: DefaultPollInterval,
		PollBudget:   DefaultPollBudget,
		Tracing:      TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	stringSettings := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.BaseURL, []string{"baseurl", "base_url", "base-url"}},
		{&cfg.SubmitPath, []string{"submitpath", "submit_path", "submit-path"}},
		{&cfg.StatusPath, []string{"statuspath", "status_path", "status-path"}},
		{&cfg.DataDir, []string{"datadir", "data_dir", "data-dir"}},
		{&cfg.ChartDir, []string{"chartdir", "chart_dir", "chart-dir"}},
		{&cfg.HistoryFile, []string{"historyfile", "history_file", "history-file"}},
		{&cfg.HTMLOutput, []string{"htmloutput", "html_output", "html-output"}},
	}
	for _, s := range stringSettings {
		raw, ok := lookupSetting(settings, s.keys...)
		if !ok {
			continue
		}
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.keys[1], err)
		}
		if val = strings.TrimSpace(val); val != "" {
			*s.dst = val
		}
	}

	boolSettings := []struct {
		dst  *bool
		keys []string
	}{
		{&cfg.LegacyStatus, []string{"legacystatus", "legacy_status", "legacy-status"}},
		{&cfg.Verbose, []string{"verbose"}},
		{&cfg.Progress, []string{"progress"}},
		{&cfg.Dashboard, []string{"dashboard"}},
		{&cfg.JSONOutput, []string{"jsonoutput", "json_output", "json-output"}},
		{&cfg.YAMLOutput, []string{"yamloutput", "yaml_output", "yaml-output"}},
	}
	for _, s := range boolSettings {
		raw, ok := lookupSetting(settings, s.keys...)
		if !ok {
			continue
		}
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.keys[0], err)
		}
		*s.dst = val
	}

	if raw, ok := lookupSetting(settings, "users"); ok {
		val, err := asIntSlice(raw)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		cfg.Users = val
	}

	if raw, ok := lookupSetting(settings, "pollinterval", "poll_interval", "poll-interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = dur
	}

	if raw, ok := lookupSetting(settings, "pollbudget", "poll_budget", "poll-budget"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("poll_budget: %w", err)
		}
		cfg.PollBudget = dur
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "launchrate", "launch_rate", "launch-rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("launch_rate: %w", err)
		}
		cfg.LaunchRate = val
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	cfg := base

	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		if cfg.Endpoint, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		if cfg.Protocol, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if cfg.Insecure, err = asBool(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		if cfg.ServiceName, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		if cfg.SampleRate, err = asFloat64(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		cfg.Propagate = &val
	}

	return cfg, nil
}
