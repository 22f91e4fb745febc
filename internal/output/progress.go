package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/chartload/internal/runner"
)

// ProgressSource supplies live batch counters. *runner.Tracker satisfies it.
type ProgressSource interface {
	Snapshot() runner.Snapshot
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   ProgressSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source ProgressSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and ends the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer, progressLine(p.source.Snapshot(), time.Since(p.start)))
		return
	}
	p.ticker.Stop()
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.source.Snapshot(), time.Since(p.start)))
		case <-p.done:
			return
		}
	}
}

func progressLine(s runner.Snapshot, elapsed time.Duration) string {
	return fmt.Sprintf("\rSessions: %d/%d launched | %d completed | %d successes | %s",
		s.Launched, s.Users, s.Completed, s.Succeeded, elapsed.Round(time.Second))
}
