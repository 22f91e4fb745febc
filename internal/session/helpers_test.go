package session_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// newChartServer serves a chart that becomes ready on the second status check.
func newChartServer(t *testing.T, chart string, fetchStatus int) *httptest.Server {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/chart", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"hash":"h1","chartpath":"/charts/h1.svg"}`))
	})
	mux.HandleFunc("/svgstatus/h1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 2 {
			_, _ = w.Write([]byte(`{"ready":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"ready":true}`))
	})
	mux.HandleFunc("/charts/h1.svg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(fetchStatus)
		_, _ = w.Write([]byte(chart))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
