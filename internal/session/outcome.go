package session

import (
	"net/http"
	"time"
)

// FailureKind says at which step and why a session ended before fetching its chart.
type FailureKind string

const (
	// FailureRejected: the submit call returned a non-200 status.
	FailureRejected FailureKind = "rejected"
	// FailureTimeout: a call timed out in transport. Reported as 408.
	FailureTimeout FailureKind = "timeout"
	// FailureTransport: a call failed without a complete response.
	FailureTransport FailureKind = "transport"
	// FailureMalformed: a 200 response lacked the hash, or the chartpath once ready.
	FailureMalformed FailureKind = "malformed"
	// FailurePollExhausted: the chart never became ready within the poll budget.
	FailurePollExhausted FailureKind = "poll_exhausted"
	// FailureCanceled: the run was interrupted.
	FailureCanceled FailureKind = "canceled"
	// FailureUnknownFixture: the key is not in the catalog.
	FailureUnknownFixture FailureKind = "unknown_fixture"
)

// Outcome is the result of one session: either a Success or a Failure.
type Outcome interface {
	// FixtureKey identifies the fixture the session submitted.
	FixtureKey() string
	// Status is the HTTP status the outcome is classified by; 0 means none.
	Status() int
	isOutcome()
}

// Success means the session reached the fetch step. StatusCode is the fetch
// status and is not necessarily 200.
type Success struct {
	Key        string
	SessionID  int
	Initial    time.Duration // submit round trip
	Total      time.Duration // submit through fetch
	StatusCode int
	Body       string
	Expected   string
}

func (s Success) FixtureKey() string { return s.Key }
func (s Success) Status() int        { return s.StatusCode }
func (Success) isOutcome()           {}

// OK reports whether the fetch returned 200.
func (s Success) OK() bool { return s.StatusCode == http.StatusOK }

// Matches reports whether the fetched chart equals the expected baseline exactly.
func (s Success) Matches() bool { return s.Body == s.Expected }

// Failure means the session ended before fetching.
type Failure struct {
	Key        string
	SessionID  int
	Kind       FailureKind
	StatusCode int    // 0 when no status is known
	Body       string // response body when one was read
	Err        error  // transport error, if any
}

func (f Failure) FixtureKey() string { return f.Key }
func (f Failure) Status() int        { return f.StatusCode }
func (Failure) isOutcome()           {}
