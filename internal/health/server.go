package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duchph/approvebot/internal/core/progress"
)

// Server exposes run progress over HTTP while the batch executes:
// GET /health for liveness, GET /progress for the checkpoint snapshot, and
// /metrics for Prometheus.
type Server struct {
	tracker *progress.Tracker
	server  *http.Server
}

// NewServer creates the progress server on the given port.
func NewServer(tracker *progress.Tracker, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		tracker: tracker,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	response := map[string]any{
		"status":      "running",
		"completed":   len(snap.CompletedKeys),
		"in_progress": len(snap.InProgress),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.tracker.Snapshot())
}
