// Package history keeps a JSON-lines log of batch summaries so runs can be
// compared over time. Appends are serialized across processes with a lock
// file next to the history file.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/chartload/internal/metrics"
)

const lockRetryDelay = 50 * time.Millisecond

// Entry is one batch summary line.
type Entry struct {
	Time               time.Time `json:"time"`
	RunID              string    `json:"run_id"`
	BaseURL            string    `json:"base_url,omitempty"`
	Users              int       `json:"users"`
	Successes          int       `json:"successes"`
	Timeouts           int       `json:"timeouts"`
	ServerBusy         int       `json:"server_busy"`
	GatewayTimeouts    int       `json:"gateway_timeouts"`
	OtherErrors        int       `json:"other_errors"`
	Matches            int       `json:"matches"`
	Mismatches         int       `json:"mismatches"`
	MeanInitialSeconds *float64  `json:"mean_initial_seconds"`
	MeanTotalSeconds   *float64  `json:"mean_total_seconds"`
	P90TotalSeconds    float64   `json:"p90_total_seconds"`
	DurationSeconds    float64   `json:"duration_seconds"`
}

// NewEntry summarizes a report.
func NewEntry(r metrics.Report, baseURL string, at time.Time) Entry {
	return Entry{
		Time:               at.UTC(),
		RunID:              r.RunID,
		BaseURL:            baseURL,
		Users:              r.Users,
		Successes:          len(r.Successes),
		Timeouts:           len(r.Timeouts),
		ServerBusy:         len(r.ServerBusy),
		GatewayTimeouts:    len(r.GatewayTimeouts),
		OtherErrors:        len(r.OtherErrors),
		Matches:            r.Matches,
		Mismatches:         r.Mismatches,
		MeanInitialSeconds: r.MeanInitialSeconds,
		MeanTotalSeconds:   r.MeanTotalSeconds,
		P90TotalSeconds:    r.P90TotalSeconds,
		DurationSeconds:    r.DurationSeconds,
	}
}

// Append writes entry as one line at the end of path, creating the file if needed.
func Append(ctx context.Context, path string, entry Entry) error {
	if path == "" {
		return errors.New("history file path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock history file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock history file: %s is held by another process", path)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("write history entry: %w", err)
	}
	return f.Close()
}

// Read returns every entry in path, oldest first. A missing file yields no entries.
func Read(ctx context.Context, path string) ([]Entry, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock history file: %w", err)
	}
	if locked {
		defer lock.Unlock()
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("history line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return entries, nil
}
