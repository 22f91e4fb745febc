// Package runner launches batches of simulated users against the chart
// service and folds their outcomes into reports.
//
// A [Runner] starts one goroutine per user, assigning fixtures cyclically
// with [SelectKeys], and waits for every session before returning:
//
//	r := runner.New(runner.Options{
//		Sessions: sess,
//		Keys:     catalog.Keys(),
//	})
//	report := r.Run(ctx, 10)
//
// Outcomes arrive on a channel in completion order and are aggregated on the
// calling goroutine, so sessions share no mutable state.
//
// # Launch Pacing
//
// By default every session starts at once. [Options.LaunchRate] spaces the
// launches with a token bucket from golang.org/x/time/rate.
//
// # Driving Several Batches
//
// A [Driver] runs a list of batch sizes sequentially and hands each report to
// a callback before the next batch begins:
//
//	d := runner.Driver{Runner: r, Sizes: []int{5, 10, 20}, OnReport: print}
//	d.Run(ctx)
//
// # Progress
//
// A [Tracker] passed in [Options.Tracker] exposes launched and completed
// counters that a progress display may read concurrently.
package runner
