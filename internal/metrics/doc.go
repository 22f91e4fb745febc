// Package metrics classifies session outcomes and aggregates them into a
// per-batch [Report].
//
// # Classification
//
// Every outcome lands in exactly one class, so the class lists partition the
// batch:
//   - success: a fetched chart with status 200, further split into content
//     matches and mismatches
//   - timeout: status 408
//   - server busy: status 503
//   - gateway timeout: status 504
//   - other: anything else, including failures with no status at all
//
// A fetch that returns 503 after a successful poll is a server-busy outcome,
// just like a submit rejected with 503.
//
// # Aggregation
//
// An [Aggregator] folds outcomes one at a time:
//
//	agg := metrics.NewAggregator(users)
//	for out := range outcomes {
//		agg.Add(out)
//	}
//	report := agg.Report()
//
// Reports are independent of fold order: lists are sorted and statistics are
// order-free. The Aggregator is not safe for concurrent use; fold on a single
// goroutine.
//
// # Latency
//
// Mean initial and total latency cover successes only. With no successes the
// report has no latency data: [Report.HasLatency] is false and the *Seconds
// accessors return +Inf. Percentiles of total latency come from an
// HdrHistogram.
package metrics
