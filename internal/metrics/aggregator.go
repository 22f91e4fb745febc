package metrics

import (
	"sort"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/chartload/internal/session"
)

// Track end-to-end latencies from 1µs up to one hour with 3 significant figures.
const maxTrackedLatency = time.Hour

// Aggregator folds session outcomes into a Report.
type Aggregator struct {
	users      int
	outcomes   int
	hist       *hdrhistogram.Histogram
	sumInitial time.Duration
	sumTotal   time.Duration

	successes       []SuccessEntry
	timeouts        []string
	serverBusy      []string
	gatewayTimeouts []string
	otherErrors     []ErrorEntry
	matches         int
	mismatches      int
}

// NewAggregator returns an empty aggregator for a batch of users sessions.
func NewAggregator(users int) *Aggregator {
	return &Aggregator{
		users: users,
		hist:  hdrhistogram.New(1, maxTrackedLatency.Microseconds(), 3),
	}
}

// Summarize folds outcomes in the given order and returns the report.
func Summarize(users int, outcomes []session.Outcome) Report {
	agg := NewAggregator(users)
	for _, out := range outcomes {
		agg.Add(out)
	}
	return agg.Report()
}

// Add classifies one outcome. A nil outcome is ignored.
func (a *Aggregator) Add(out session.Outcome) {
	if out == nil {
		return
	}
	a.outcomes++

	switch Classify(out) {
	case ClassSuccess:
		s := out.(session.Success)
		match := s.Matches()
		if match {
			a.matches++
		} else {
			a.mismatches++
		}
		a.sumInitial += s.Initial
		a.sumTotal += s.Total
		a.recordLatency(s.Total)
		a.successes = append(a.successes, SuccessEntry{
			Key:            s.Key,
			Initial:        s.Initial,
			Total:          s.Total,
			Match:          match,
			InitialSeconds: s.Initial.Seconds(),
			TotalSeconds:   s.Total.Seconds(),
		})
	case ClassTimeout:
		a.timeouts = append(a.timeouts, out.FixtureKey())
	case ClassServerBusy:
		a.serverBusy = append(a.serverBusy, out.FixtureKey())
	case ClassGatewayTimeout:
		a.gatewayTimeouts = append(a.gatewayTimeouts, out.FixtureKey())
	default:
		a.otherErrors = append(a.otherErrors, errorEntry(out))
	}
}

// AddMissing records a launched session that produced no outcome as an other error.
func (a *Aggregator) AddMissing(key string) {
	a.outcomes++
	a.otherErrors = append(a.otherErrors, ErrorEntry{Key: key, Kind: KindNoOutcome})
}

func (a *Aggregator) recordLatency(d time.Duration) {
	us := d.Microseconds()
	if us < a.hist.LowestTrackableValue() {
		us = a.hist.LowestTrackableValue()
	}
	if us > a.hist.HighestTrackableValue() {
		us = a.hist.HighestTrackableValue()
	}
	_ = a.hist.RecordValue(us)
}

// Report returns the aggregated report. Lists are sorted so the result does
// not depend on the order outcomes were added.
func (a *Aggregator) Report() Report {
	r := Report{
		Users:           a.users,
		Outcomes:        a.outcomes,
		Successes:       append([]SuccessEntry{}, a.successes...),
		Timeouts:        sortedCopy(a.timeouts),
		ServerBusy:      sortedCopy(a.serverBusy),
		GatewayTimeouts: sortedCopy(a.gatewayTimeouts),
		OtherErrors:     append([]ErrorEntry{}, a.otherErrors...),
		Matches:         a.matches,
		Mismatches:      a.mismatches,
	}

	sort.Slice(r.Successes, func(i, j int) bool {
		x, y := r.Successes[i], r.Successes[j]
		if x.Key != y.Key {
			return x.Key < y.Key
		}
		if x.Total != y.Total {
			return x.Total < y.Total
		}
		if x.Initial != y.Initial {
			return x.Initial < y.Initial
		}
		return !x.Match && y.Match
	})
	sort.Slice(r.OtherErrors, func(i, j int) bool {
		x, y := r.OtherErrors[i], r.OtherErrors[j]
		if x.Key != y.Key {
			return x.Key < y.Key
		}
		if x.StatusCode != y.StatusCode {
			return x.StatusCode < y.StatusCode
		}
		if x.Kind != y.Kind {
			return x.Kind < y.Kind
		}
		if x.Body != y.Body {
			return x.Body < y.Body
		}
		return x.Error < y.Error
	})

	if n := len(a.successes); n > 0 {
		r.HasLatency = true
		r.MeanInitial = a.sumInitial / time.Duration(n)
		r.MeanTotal = a.sumTotal / time.Duration(n)
		r.P50Total = time.Duration(a.hist.ValueAtQuantile(50)) * time.Microsecond
		r.P90Total = time.Duration(a.hist.ValueAtQuantile(90)) * time.Microsecond
		r.P99Total = time.Duration(a.hist.ValueAtQuantile(99)) * time.Microsecond

		meanInitial := r.MeanInitial.Seconds()
		meanTotal := r.MeanTotal.Seconds()
		r.MeanInitialSeconds = &meanInitial
		r.MeanTotalSeconds = &meanTotal
		r.P50TotalSeconds = r.P50Total.Seconds()
		r.P90TotalSeconds = r.P90Total.Seconds()
		r.P99TotalSeconds = r.P99Total.Seconds()
	}

	return r
}

func errorEntry(out session.Outcome) ErrorEntry {
	switch o := out.(type) {
	case session.Failure:
		entry := ErrorEntry{Key: o.Key, StatusCode: o.StatusCode, Body: o.Body, Kind: string(o.Kind)}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		return entry
	case session.Success:
		return ErrorEntry{Key: o.Key, StatusCode: o.StatusCode, Body: o.Body, Kind: "fetched"}
	default:
		return ErrorEntry{Key: out.FixtureKey(), StatusCode: out.Status()}
	}
}

func sortedCopy(keys []string) []string {
	out := append([]string{}, keys...)
	sort.Strings(out)
	return out
}
