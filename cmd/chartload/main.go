package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/torosent/chartload/internal/chartclient"
	"github.com/torosent/chartload/internal/config"
	"github.com/torosent/chartload/internal/dashboard"
	"github.com/torosent/chartload/internal/fixture"
	"github.com/torosent/chartload/internal/history"
	"github.com/torosent/chartload/internal/metrics"
	"github.com/torosent/chartload/internal/output"
	"github.com/torosent/chartload/internal/runner"
	"github.com/torosent/chartload/internal/session"
	"github.com/torosent/chartload/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// run executes every configured batch. Failed sessions are reported, not
// returned: only configuration and fixture problems produce an error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The dashboard owns the terminal: logs and reports are held until it closes.
	logOut, reportOut := stderr, stdout
	var heldLogs, heldReports bytes.Buffer
	if cfg.Dashboard {
		logOut, reportOut = &heldLogs, &heldReports
		defer func() {
			_, _ = heldLogs.WriteTo(stderr)
			_, _ = heldReports.WriteTo(stdout)
		}()
	}
	logger := newLogger(cfg, logOut)

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	catalog, err := fixture.Load(cfg.DataDir, cfg.ChartDir)
	if err != nil {
		return err
	}
	if catalog.Len() == 0 {
		logger.Warnf("no fixtures have both %s and %s entries", cfg.DataDir, cfg.ChartDir)
	}
	logger.WithField("fixtures", catalog.Len()).Debug("fixture catalog loaded")

	client, err := chartclient.New(chartclient.Options{
		BaseURL:    cfg.BaseURL,
		SubmitPath: cfg.SubmitPath,
		StatusPath: cfg.StatusPath,
		HTTP:       chartclient.NewHTTPClient(cfg.Timeout),
		Propagate:  provider.ShouldPropagate(),
	})
	if err != nil {
		return err
	}

	sess := session.New(catalog, client, session.Options{
		PollInterval: cfg.PollInterval,
		PollBudget:   cfg.PollBudget,
		LegacyStatus: cfg.LegacyStatus,
		Logger:       logger,
		Tracer:       provider.Tracer(),
	})

	tracker := runner.NewTracker()
	r := runner.New(runner.Options{
		Sessions:   sess,
		Keys:       catalog.Keys(),
		LaunchRate: cfg.LaunchRate,
		Tracker:    tracker,
		Logger:     logger,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(tracker, dashboard.RunConfig{
			BaseURL:      cfg.BaseURL,
			Sizes:        cfg.Users,
			Fixtures:     catalog.Len(),
			PollInterval: cfg.PollInterval,
			PollBudget:   cfg.PollBudget,
			LaunchRate:   cfg.LaunchRate,
			Legacy:       cfg.LegacyStatus,
			ConfigFile:   cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	textOutput := !cfg.JSONOutput && !cfg.YAMLOutput
	var progress *output.ProgressReporter
	driver := runner.Driver{
		Runner: r,
		Sizes:  cfg.Users,
		OnStart: func(users int) {
			if textOutput {
				output.PrintBatchHeader(reportOut, users)
			}
			if dash != nil {
				dash.StartBatch(users)
			} else if cfg.Progress {
				progress = output.NewProgressReporter(tracker, progressInterval, stderr)
				progress.Start()
			}
		},
		OnReport: func(report metrics.Report) {
			if progress != nil {
				progress.Stop()
				progress = nil
			}
			if dash != nil {
				dash.AddReport(report)
			}
			if err := printReport(reportOut, cfg, report); err != nil {
				logger.WithError(err).Error("failed to print report")
			}
			if cfg.HistoryFile != "" {
				entry := history.NewEntry(report, cfg.BaseURL, time.Now())
				if err := history.Append(ctx, cfg.HistoryFile, entry); err != nil {
					logger.WithError(err).Warn("failed to append run history")
				}
			}
		},
	}

	reports := driver.Run(ctx)
	if dash != nil {
		dash.Stop()
	}
	if ctx.Err() != nil {
		logger.Warnf("interrupted after %d of %d batches", len(reports), len(cfg.Users))
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg, catalog.Len(), reports); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger.SetLevel(log.WarnLevel)
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func printReport(w io.Writer, cfg *config.Config, report metrics.Report) error {
	switch {
	case cfg.JSONOutput:
		return output.PrintJSONReport(w, report)
	case cfg.YAMLOutput:
		return output.PrintYAMLReport(w, report)
	default:
		output.PrintReport(w, report)
		return nil
	}
}

func writeHTMLReport(cfg *config.Config, fixtures int, reports []metrics.Report) error {
	f, err := os.Create(cfg.HTMLOutput)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	meta := output.ReportMetadata{BaseURL: cfg.BaseURL, Fixtures: fixtures, Legacy: cfg.LegacyStatus}
	if err := output.GenerateHTMLReport(f, reports, meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
