package runner

import (
	"context"

	"golang.org/x/time/rate"
)

// launchPacer spaces session launches. A nil pacer launches immediately.
type launchPacer struct {
	limiter *rate.Limiter
}

func newLaunchPacer(opt Options) *launchPacer {
	if opt.LaunchRate <= 0 {
		return nil
	}
	return &launchPacer{limiter: opt.LimiterFactory(opt.LaunchRate)}
}

// Wait blocks until the next launch is allowed. Once it fails (the context is
// done) the pacer stops waiting so the remaining sessions start and observe
// the cancellation themselves.
func (p *launchPacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		p.limiter = nil
		return err
	}
	return nil
}
