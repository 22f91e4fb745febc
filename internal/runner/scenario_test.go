package runner_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/torosent/chartload/internal/chartclient"
	"github.com/torosent/chartload/internal/fixture"
	"github.com/torosent/chartload/internal/runner"
	"github.com/torosent/chartload/internal/session"
)

const chart = `<svg><rect/></svg>`

func newService(t *testing.T, submitStatus, fetchStatus int) *chartclient.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chart", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		if submitStatus != http.StatusOK {
			w.WriteHeader(submitStatus)
			_, _ = w.Write([]byte("boom"))
			return
		}
		_, _ = w.Write([]byte(`{"hash":"h1","chartpath":"/charts/h1.svg"}`))
	})
	mux.HandleFunc("/svgstatus/h1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ready":true}`))
	})
	mux.HandleFunc("/charts/h1.svg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(fetchStatus)
		_, _ = w.Write([]byte(chart))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := chartclient.New(chartclient.Options{BaseURL: srv.URL, HTTP: srv.Client()})
	if err != nil {
		t.Fatalf("chartclient.New() error = %v", err)
	}
	return client
}

func runBatch(t *testing.T, client *chartclient.Client, users int) runner.Driver {
	t.Helper()
	catalog := fixture.New(fixture.Fixture{Key: "ages", Input: "payload", Expected: chart})
	sess := session.New(catalog, client, session.Options{PollInterval: time.Millisecond, PollBudget: time.Second})
	r := runner.New(runner.Options{Sessions: sess, Keys: catalog.Keys()})
	return runner.Driver{Runner: r, Sizes: []int{users}}
}

func TestScenarioAllMatch(t *testing.T) {
	reports := runBatch(t, newService(t, http.StatusOK, http.StatusOK), 3).Run(context.Background())
	r := reports[0]
	if len(r.Successes) != 3 || r.Matches != 3 || r.Mismatches != 0 {
		t.Fatalf("unexpected report %+v", r)
	}
	if !r.HasLatency || r.MeanTotal <= 0 || r.MeanInitial > r.MeanTotal {
		t.Fatalf("unexpected latencies initial=%v total=%v", r.MeanInitial, r.MeanTotal)
	}
}

func TestScenarioFetchBusy(t *testing.T) {
	reports := runBatch(t, newService(t, http.StatusOK, http.StatusServiceUnavailable), 2).Run(context.Background())
	r := reports[0]
	if len(r.ServerBusy) != 2 || len(r.Successes) != 0 {
		t.Fatalf("expected fetch 503 in server busy, got %+v", r)
	}
	if r.ServerBusy[0] != "ages" {
		t.Fatalf("unexpected key %q", r.ServerBusy[0])
	}
}

func TestScenarioSubmitRejected(t *testing.T) {
	reports := runBatch(t, newService(t, http.StatusInternalServerError, http.StatusOK), 1).Run(context.Background())
	r := reports[0]
	if len(r.OtherErrors) != 1 {
		t.Fatalf("expected one other error, got %+v", r)
	}
	e := r.OtherErrors[0]
	if e.Key != "ages" || e.StatusCode != http.StatusInternalServerError || e.Body != "boom" {
		t.Fatalf("unexpected error entry %+v", e)
	}
	if r.HasLatency {
		t.Fatal("expected no latency data")
	}
}
