package runner

import "sync/atomic"

// Tracker exposes live batch counters to a progress display. It is written by
// the orchestrator goroutine and may be read from any goroutine.
type Tracker struct {
	users     atomic.Int64
	launched  atomic.Int64
	completed atomic.Int64
	succeeded atomic.Int64
}

// Snapshot is a point-in-time copy of a Tracker.
type Snapshot struct {
	Users     int
	Launched  int
	Completed int
	Succeeded int
}

// NewTracker returns a zeroed Tracker.
func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) reset(users int) {
	if t == nil {
		return
	}
	t.users.Store(int64(users))
	t.launched.Store(0)
	t.completed.Store(0)
	t.succeeded.Store(0)
}

func (t *Tracker) launch() {
	if t != nil {
		t.launched.Add(1)
	}
}

func (t *Tracker) complete(success bool) {
	if t == nil {
		return
	}
	t.completed.Add(1)
	if success {
		t.succeeded.Add(1)
	}
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	return Snapshot{
		Users:     int(t.users.Load()),
		Launched:  int(t.launched.Load()),
		Completed: int(t.completed.Load()),
		Succeeded: int(t.succeeded.Load()),
	}
}
