package runner

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/chartload/internal/metrics"
	"github.com/torosent/chartload/internal/session"
)

type stubSessions struct {
	mu    sync.Mutex
	ids   []int
	keys  map[string]int
	calls atomic.Int64
	run   func(ctx context.Context, id int, key string) session.Outcome
}

func (s *stubSessions) Run(ctx context.Context, id int, key string) session.Outcome {
	s.calls.Add(1)
	s.mu.Lock()
	s.ids = append(s.ids, id)
	if s.keys == nil {
		s.keys = make(map[string]int)
	}
	s.keys[key]++
	s.mu.Unlock()
	if s.run != nil {
		return s.run(ctx, id, key)
	}
	return session.Success{Key: key, SessionID: id, Initial: time.Second, Total: 2 * time.Second, StatusCode: 200}
}

func TestSelectKeysCycles(t *testing.T) {
	got := SelectKeys([]string{"a", "b", "c"}, 7)
	want := []string{"a", "b", "c", "a", "b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SelectKeys() = %v, want %v", got, want)
	}

	counts := map[string]int{}
	for _, k := range got {
		counts[k]++
	}
	if counts["a"] != 3 || counts["b"] != 2 || counts["c"] != 2 {
		t.Fatalf("unexpected distribution %v", counts)
	}
}

func TestSelectKeysEdgeCases(t *testing.T) {
	if got := SelectKeys(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty selection for no keys, got %v", got)
	}
	if got := SelectKeys([]string{"a"}, 0); len(got) != 0 {
		t.Fatalf("expected empty selection for zero users, got %v", got)
	}
	if got := SelectKeys([]string{"a", "b"}, 1); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("SelectKeys() = %v", got)
	}
}

func TestRunnerLaunchesEverySession(t *testing.T) {
	stub := &stubSessions{}
	tracker := NewTracker()
	r := New(Options{Sessions: stub, Keys: []string{"a", "b", "c"}, Tracker: tracker})

	report := r.Run(context.Background(), 7)

	if got := stub.calls.Load(); got != 7 {
		t.Fatalf("expected 7 sessions, got %d", got)
	}
	if stub.keys["a"] != 3 || stub.keys["b"] != 2 || stub.keys["c"] != 2 {
		t.Fatalf("unexpected key distribution %v", stub.keys)
	}
	seen := map[int]bool{}
	for _, id := range stub.ids {
		seen[id] = true
	}
	for id := 0; id < 7; id++ {
		if !seen[id] {
			t.Fatalf("session id %d never ran (ids %v)", id, stub.ids)
		}
	}
	if report.Users != 7 || report.Outcomes != 7 || len(report.Successes) != 7 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.RunID == "" {
		t.Fatal("expected a run id")
	}
	if report.MeanTotal != 2*time.Second {
		t.Fatalf("mean total = %v", report.MeanTotal)
	}
	snap := tracker.Snapshot()
	if snap.Users != 7 || snap.Launched != 7 || snap.Completed != 7 || snap.Succeeded != 7 {
		t.Fatalf("unexpected tracker snapshot %+v", snap)
	}
}

func TestRunnerRunsSessionsConcurrently(t *testing.T) {
	const users = 5
	var wg sync.WaitGroup
	wg.Add(users)
	allStarted := make(chan struct{})
	go func() {
		wg.Wait()
		close(allStarted)
	}()

	stub := &stubSessions{run: func(ctx context.Context, id int, key string) session.Outcome {
		wg.Done()
		select {
		case <-allStarted:
			return session.Success{Key: key, SessionID: id, StatusCode: 200}
		case <-time.After(5 * time.Second):
			return session.Failure{Key: key, SessionID: id, Kind: session.FailureTimeout, StatusCode: 408}
		}
	}}
	report := New(Options{Sessions: stub, Keys: []string{"k"}}).Run(context.Background(), users)

	if len(report.Successes) != users {
		t.Fatalf("sessions did not overlap: %+v", report)
	}
}

func TestRunnerEmptyCatalog(t *testing.T) {
	stub := &stubSessions{}
	report := New(Options{Sessions: stub}).Run(context.Background(), 5)
	if stub.calls.Load() != 0 {
		t.Fatal("expected no sessions without keys")
	}
	if report.Users != 5 || report.Outcomes != 0 || report.Classified() != 0 || report.HasLatency {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRunnerCountsMissingOutcomes(t *testing.T) {
	stub := &stubSessions{run: func(_ context.Context, id int, key string) session.Outcome {
		if id%2 == 0 {
			return nil
		}
		return session.Success{Key: key, SessionID: id, StatusCode: 200, Total: time.Second}
	}}
	tracker := NewTracker()
	report := New(Options{Sessions: stub, Keys: []string{"a", "b"}, Tracker: tracker}).Run(context.Background(), 4)

	if report.Outcomes != 4 || report.Classified() != 4 {
		t.Fatalf("outcomes = %d, classified = %d, want 4 and 4", report.Outcomes, report.Classified())
	}
	if len(report.OtherErrors) != 2 {
		t.Fatalf("other errors = %+v, want 2 entries", report.OtherErrors)
	}
	for _, e := range report.OtherErrors {
		if e.Kind != metrics.KindNoOutcome || e.Key != "a" {
			t.Errorf("unexpected entry %+v", e)
		}
	}
	if snap := tracker.Snapshot(); snap.Completed != 4 || snap.Succeeded != 2 {
		t.Errorf("snapshot = %+v, want 4 completed and 2 succeeded", snap)
	}
}

func TestRunnerCompletionOrderDoesNotChangeReport(t *testing.T) {
	outcomes := map[string]session.Outcome{
		"a": session.Success{Key: "a", StatusCode: 200, Body: "x", Expected: "x", Total: time.Second},
		"b": session.Failure{Key: "b", Kind: session.FailureRejected, StatusCode: 503},
		"c": session.Failure{Key: "c", Kind: session.FailureRejected, StatusCode: 500, Body: "boom"},
	}
	run := func(delays map[string]time.Duration) func(context.Context, int, string) session.Outcome {
		return func(_ context.Context, _ int, key string) session.Outcome {
			time.Sleep(delays[key])
			return outcomes[key]
		}
	}
	keys := []string{"a", "b", "c"}

	first := New(Options{Sessions: &stubSessions{run: run(map[string]time.Duration{"a": 30 * time.Millisecond})}, Keys: keys}).Run(context.Background(), 3)
	second := New(Options{Sessions: &stubSessions{run: run(map[string]time.Duration{"c": 30 * time.Millisecond})}, Keys: keys}).Run(context.Background(), 3)

	first.RunID, second.RunID = "", ""
	first.SetDuration(0)
	second.SetDuration(0)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestRunnerLaunchRateUsesLimiter(t *testing.T) {
	var factoryRate int
	stub := &stubSessions{}
	r := New(Options{
		Sessions:   stub,
		Keys:       []string{"a"},
		LaunchRate: 3,
		LimiterFactory: func(rps int) *rate.Limiter {
			factoryRate = rps
			return rate.NewLimiter(rate.Inf, 1)
		},
	})
	r.Run(context.Background(), 4)
	if factoryRate != 3 {
		t.Fatalf("limiter built with rate %d, want 3", factoryRate)
	}
	if stub.calls.Load() != 4 {
		t.Fatalf("expected 4 sessions, got %d", stub.calls.Load())
	}
}

func TestRunnerCanceledPacingStillCollectsEverySession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubSessions{run: func(ctx context.Context, id int, key string) session.Outcome {
		if ctx.Err() != nil {
			return session.Failure{Key: key, SessionID: id, Kind: session.FailureCanceled, Err: ctx.Err()}
		}
		return session.Success{Key: key, SessionID: id, StatusCode: 200}
	}}
	r := New(Options{Sessions: stub, Keys: []string{"a"}, LaunchRate: 1})
	report := r.Run(ctx, 3)

	if report.Outcomes != 3 || len(report.OtherErrors) != 3 {
		t.Fatalf("expected three canceled outcomes, got %+v", report)
	}
	if report.OtherErrors[0].Kind != string(session.FailureCanceled) {
		t.Fatalf("unexpected kind %q", report.OtherErrors[0].Kind)
	}
}
