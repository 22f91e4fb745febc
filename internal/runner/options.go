package runner

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/torosent/chartload/internal/session"
)

// SessionRunner runs one simulated user. *session.Session satisfies it.
type SessionRunner interface {
	Run(ctx context.Context, id int, key string) session.Outcome
}

// Options configure the Runner.
type Options struct {
	Sessions       SessionRunner               // session executor (required)
	Keys           []string                    // fixture keys to cycle through
	LaunchRate     int                         // session launches per second (0 launches all at once)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Tracker        *Tracker                    // optional live progress counters
	Logger         log.FieldLogger
}

func (o *Options) normalize() {
	if o.LaunchRate < 0 {
		o.LaunchRate = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	if o.Logger == nil {
		discard := log.New()
		discard.SetOutput(io.Discard)
		o.Logger = discard
	}
}
