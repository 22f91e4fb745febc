package runner

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/torosent/chartload/internal/metrics"
	"github.com/torosent/chartload/internal/session"
)

// SelectKeys returns n keys taken cyclically from keys: entry i is
// keys[i%len(keys)]. It returns an empty selection when keys is empty.
func SelectKeys(keys []string, n int) []string {
	if len(keys) == 0 || n <= 0 {
		return []string{}
	}
	selected := make([]string, n)
	for i := range selected {
		selected[i] = keys[i%len(keys)]
	}
	return selected
}

// Runner launches batches of concurrent sessions and aggregates their outcomes.
type Runner struct {
	opt Options
}

// New returns a Runner using opt, filling in defaults for unset fields.
func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run launches users concurrent sessions, waits for all of them and returns
// the batch report. Outcomes are folded on the calling goroutine only, in
// completion order.
func (r *Runner) Run(ctx context.Context, users int) metrics.Report {
	if ctx == nil {
		ctx = context.Background()
	}
	if users < 0 {
		users = 0
	}
	start := time.Now()
	runID := ulid.Make().String()
	logger := r.opt.Logger.WithFields(log.Fields{"run": runID, "users": users})

	keys := SelectKeys(r.opt.Keys, users)
	if len(keys) == 0 && users > 0 {
		logger.Warn("no fixtures available; batch produces an empty report")
	}
	r.opt.Tracker.reset(len(keys))

	results := make(chan sessionResult, len(keys))
	pacer := newLaunchPacer(r.opt)
	for id, key := range keys {
		if err := pacer.Wait(ctx); err != nil {
			logger.WithError(err).Debug("launch pacing interrupted")
		}
		r.opt.Tracker.launch()
		go func(id int, key string) {
			results <- sessionResult{id: id, out: r.opt.Sessions.Run(ctx, id, key)}
		}(id, key)
	}

	agg := metrics.NewAggregator(users)
	for range keys {
		res := <-results
		if res.out == nil {
			agg.AddMissing(keys[res.id])
			r.opt.Tracker.complete(false)
			logger.WithField("session", res.id).Warn("session returned no outcome")
			continue
		}
		agg.Add(res.out)
		r.opt.Tracker.complete(metrics.Classify(res.out) == metrics.ClassSuccess)
		logger.WithFields(log.Fields{
			"session": res.id,
			"fixture": res.out.FixtureKey(),
			"status":  res.out.Status(),
		}).Debug("session finished")
	}

	report := agg.Report()
	report.RunID = runID
	report.SetDuration(time.Since(start))
	logger.WithField("duration", report.Duration).Debug("batch finished")
	return report
}

type sessionResult struct {
	id  int
	out session.Outcome
}
