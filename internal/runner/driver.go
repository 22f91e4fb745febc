package runner

import (
	"context"

	"github.com/torosent/chartload/internal/metrics"
)

// Batcher runs one batch of the given size. *Runner satisfies it.
type Batcher interface {
	Run(ctx context.Context, users int) metrics.Report
}

// Driver runs a sequence of batch sizes one after another.
type Driver struct {
	Runner   Batcher
	Sizes    []int
	OnStart  func(users int)      // called before a batch launches
	OnReport func(metrics.Report) // called before the next batch starts
}

// Run executes every batch in order and returns their reports. It stops
// before starting a new batch once ctx is done.
func (d Driver) Run(ctx context.Context) []metrics.Report {
	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]metrics.Report, 0, len(d.Sizes))
	for _, users := range d.Sizes {
		if ctx.Err() != nil {
			break
		}
		if d.OnStart != nil {
			d.OnStart(users)
		}
		report := d.Runner.Run(ctx, users)
		reports = append(reports, report)
		if d.OnReport != nil {
			d.OnReport(report)
		}
	}
	return reports
}
