// Package session drives one simulated user through the chart service:
// submit a payload, poll until the chart is ready, fetch it, and compare it
// with the expected baseline.
//
// A [Session] is built once per batch and shared by every simulated user; it
// holds only read-only state. Each call to [Session.Run] owns its outcome.
//
//	s := session.New(catalog, client, session.Options{})
//	switch out := s.Run(ctx, 0, "fixture-a").(type) {
//	case session.Success:
//		fmt.Println(out.Total, out.Matches())
//	case session.Failure:
//		fmt.Println(out.Kind, out.StatusCode)
//	}
//
// Polling is bounded by [Options.PollBudget], measured from the submit. The
// budget only stops the loop; a call already in flight is not aborted.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/chartload/internal/chartclient"
	"github.com/torosent/chartload/internal/fixture"
	"github.com/torosent/chartload/internal/tracing"
)

// Session runs submit/poll/fetch/verify cycles against one service.
type Session struct {
	catalog *fixture.Catalog
	service Service
	opt     Options
}

// New returns a Session resolving fixtures from catalog and calling service.
func New(catalog *fixture.Catalog, service Service, opt Options) *Session {
	opt.normalize()
	return &Session{catalog: catalog, service: service, opt: opt}
}

// Run executes one full cycle for key. id only labels logs and spans.
func (s *Session) Run(ctx context.Context, id int, key string) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracing.StartSessionSpan(ctx, s.opt.Tracer, id, key)
	logger := s.opt.Logger.WithFields(log.Fields{"session": id, "fixture": key})

	out := s.run(ctx, logger, id, key)

	var spanErr error
	attrs := []attribute.KeyValue{attribute.Int("http.response.status_code", out.Status())}
	switch o := out.(type) {
	case Success:
		attrs = append(attrs,
			attribute.Bool("chartload.match", o.Matches()),
			attribute.Int64("chartload.total_ms", o.Total.Milliseconds()),
		)
	case Failure:
		attrs = append(attrs, attribute.String("chartload.failure", string(o.Kind)))
		spanErr = o.Err
		if spanErr == nil {
			spanErr = errors.New(string(o.Kind))
		}
	}
	tracing.EndSpan(span, spanErr, attrs...)
	return out
}

func (s *Session) run(ctx context.Context, logger log.FieldLogger, id int, key string) Outcome {
	fx, ok := s.catalog.Lookup(key)
	if !ok {
		logger.Error("fixture not found in catalog")
		return Failure{Key: key, SessionID: id, Kind: FailureUnknownFixture}
	}

	start := s.opt.Clock.Now()
	submit, err := s.call(ctx, "submit", func(ctx context.Context) (chartclient.Response, error) {
		return s.service.Submit(ctx, fx.Input)
	})
	initial := s.since(start)
	if err != nil {
		return s.transportFailure(logger, id, key, err)
	}
	if !submit.OK() {
		logger.Warnf("initial request failed, status code %d: %s", submit.StatusCode, submit.Body)
		return Failure{Key: key, SessionID: id, Kind: FailureRejected, StatusCode: submit.StatusCode, Body: submit.Body}
	}
	logger.Debug("initial request successful")

	ticket, ok := chartclient.ParseTicket(submit.Body)
	if !ok {
		logger.Warnf("hash not found in submit response: %s", submit.Body)
		return Failure{Key: key, SessionID: id, Kind: FailureMalformed, StatusCode: submit.StatusCode, Body: submit.Body}
	}
	logger.WithField("hash", ticket.Hash).Debug("chart hash obtained")

	for s.since(start) < s.opt.PollBudget {
		status, err := s.call(ctx, "status", func(ctx context.Context) (chartclient.Response, error) {
			return s.service.Status(ctx, ticket.Hash)
		})
		if err != nil {
			return s.transportFailure(logger, id, key, err)
		}

		switch {
		case !status.OK():
			logger.Debugf("status response error, status code %d: %s", status.StatusCode, status.Body)
		case !chartclient.Ready(status.Body):
			logger.Debugf("status not ready yet: %s", status.Body)
		case ticket.ChartPath == "":
			logger.Warn("chart ready but chartpath not found in submit response")
			if !s.opt.LegacyStatus {
				return Failure{Key: key, SessionID: id, Kind: FailureMalformed, StatusCode: submit.StatusCode, Body: submit.Body}
			}
		default:
			logger.WithField("chartpath", ticket.ChartPath).Debug("status is ready")
			return s.fetch(ctx, logger, id, fx, ticket.ChartPath, start, initial)
		}

		if err := s.opt.Sleep(ctx, s.opt.PollInterval); err != nil {
			logger.WithError(err).Warn("polling interrupted")
			return Failure{Key: key, SessionID: id, Kind: FailureCanceled, Err: err}
		}
	}

	logger.Warnf("chart not ready after %s", s.opt.PollBudget)
	if s.opt.LegacyStatus {
		return Failure{Key: key, SessionID: id, Kind: FailurePollExhausted, StatusCode: submit.StatusCode, Body: submit.Body}
	}
	return Failure{Key: key, SessionID: id, Kind: FailurePollExhausted}
}

func (s *Session) fetch(ctx context.Context, logger log.FieldLogger, id int, fx fixture.Fixture, chartPath string, start time.Time, initial time.Duration) Outcome {
	chart, err := s.call(ctx, "fetch", func(ctx context.Context) (chartclient.Response, error) {
		return s.service.Fetch(ctx, chartPath)
	})
	total := s.since(start)
	if err != nil {
		return s.transportFailure(logger, id, fx.Key, err)
	}
	logger.Debugf("final chart received, status code %d", chart.StatusCode)
	return Success{
		Key:        fx.Key,
		SessionID:  id,
		Initial:    initial,
		Total:      total,
		StatusCode: chart.StatusCode,
		Body:       chart.Body,
		Expected:   fx.Expected,
	}
}

func (s *Session) call(ctx context.Context, step string, fn func(context.Context) (chartclient.Response, error)) (chartclient.Response, error) {
	ctx, span := tracing.StartStepSpan(ctx, s.opt.Tracer, step)
	resp, err := fn(ctx)
	tracing.EndSpan(span, err, attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, err
}

func (s *Session) transportFailure(logger log.FieldLogger, id int, key string, err error) Failure {
	switch {
	case errors.Is(err, context.Canceled):
		logger.WithError(err).Warn("request canceled")
		return Failure{Key: key, SessionID: id, Kind: FailureCanceled, Err: err}
	case chartclient.IsTimeout(err):
		logger.WithError(err).Warn("request timeout occurred")
		return Failure{Key: key, SessionID: id, Kind: FailureTimeout, StatusCode: http.StatusRequestTimeout, Err: err}
	default:
		logger.WithError(err).Warn("request exception")
		return Failure{Key: key, SessionID: id, Kind: FailureTransport, StatusCode: chartclient.StatusOf(err), Err: err}
	}
}

func (s *Session) since(start time.Time) time.Duration {
	return s.opt.Clock.Now().Sub(start)
}
