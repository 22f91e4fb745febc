package session

import (
	"context"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/chartload/internal/chartclient"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollBudget   = 500 * time.Second
)

// Service is the chart service as seen by a session. *chartclient.Client satisfies it.
type Service interface {
	Submit(ctx context.Context, payload string) (chartclient.Response, error)
	Status(ctx context.Context, hash string) (chartclient.Response, error)
	Fetch(ctx context.Context, chartPath string) (chartclient.Response, error)
}

// Options configure every session started from a Session.
type Options struct {
	PollInterval time.Duration // delay between status checks
	PollBudget   time.Duration // polling stops once this much time has passed since submit
	// LegacyStatus keeps the older reporting behavior: poll exhaustion carries
	// the submit status and body, and a ready chart without chartpath keeps polling.
	LegacyStatus bool
	Clock        Clock
	Sleep        Sleeper
	Logger       log.FieldLogger
	Tracer       trace.Tracer
}

func (o *Options) normalize() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollBudget <= 0 {
		o.PollBudget = DefaultPollBudget
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Sleep == nil {
		o.Sleep = Sleep
	}
	if o.Logger == nil {
		discard := log.New()
		discard.SetOutput(io.Discard)
		o.Logger = discard
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("chartload")
	}
}
