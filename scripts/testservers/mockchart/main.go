// Command mockchart serves a local stand-in for the chart service so load
// runs can be rehearsed without the real backend.
//
//	go run ./scripts/testservers/mockchart -port 8080 -render-delay 3s \
//	    -data-dir ./ping_files/data -chart-dir ./ping_files/charts
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type server struct {
	renderDelay time.Duration
	busyRate    float64
	charts      map[string]string // payload digest -> chart
	fallback    string

	mu   sync.Mutex
	jobs map[string]time.Time // hash -> ready time
	rnd  *rand.Rand
}

func main() {
	port := flag.Int("port", 8080, "Listening port")
	renderDelay := flag.Duration("render-delay", 2*time.Second, "Time until a submitted chart is ready")
	busyRate := flag.Float64("busy-rate", 0, "Fraction of submits answered with 503 (0.0-1.0)")
	dataDir := flag.String("data-dir", "", "Directory of input payloads")
	chartDir := flag.String("chart-dir", "", "Directory of charts to return for matching payloads")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}
	charts, err := loadCharts(*dataDir, *chartDir)
	if err != nil {
		log.Fatalf("load charts: %v", err)
	}

	s := &server{
		renderDelay: *renderDelay,
		busyRate:    *busyRate,
		charts:      charts,
		fallback:    `<svg xmlns="http://www.w3.org/2000/svg"/>`,
		jobs:        make(map[string]time.Time),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chart", s.handleSubmit)
	mux.HandleFunc("/svgstatus/", s.handleStatus)
	mux.HandleFunc("/charts/", s.handleFetch)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock chart service listening on %s (%d known charts)", addr, len(charts))
	log.Fatal(http.ListenAndServe(addr, mux))
}

func loadCharts(dataDir, chartDir string) (map[string]string, error) {
	charts := make(map[string]string)
	if dataDir == "" || chartDir == "" {
		return charts, nil
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		matches, _ := filepath.Glob(filepath.Join(chartDir, stem+".*"))
		if len(matches) == 0 {
			continue
		}
		payload, err := os.ReadFile(filepath.Join(dataDir, e.Name()))
		if err != nil {
			return nil, err
		}
		chart, err := os.ReadFile(matches[0])
		if err != nil {
			return nil, err
		}
		charts[digest(payload)] = string(chart)
	}
	return charts, nil
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	hash := digest(payload)
	s.mu.Lock()
	busy := s.rnd.Float64() < s.busyRate
	if !busy {
		if _, ok := s.jobs[hash]; !ok {
			s.jobs[hash] = time.Now().Add(s.renderDelay)
		}
	}
	s.mu.Unlock()
	if busy {
		http.Error(w, "server busy", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"hash":      hash,
		"chartpath": "/charts/" + hash + ".svg",
	})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimPrefix(r.URL.Path, "/svgstatus/")
	s.mu.Lock()
	readyAt, ok := s.jobs[hash]
	s.mu.Unlock()
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "unknown hash"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ready": !time.Now().Before(readyAt)})
}

func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/charts/"), ".svg")
	chart, ok := s.charts[hash]
	if !ok {
		chart = s.fallback
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = io.WriteString(w, chart)
}

func digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16])
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
