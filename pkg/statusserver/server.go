// Package statusserver is the optional operator HTTP surface for a
// running rewrite: a liveness probe, a JSON progress snapshot, and a
// bearer-JWT gated cancel endpoint, following the routing and response
// shape of pkg/serve/httpserver without any of its repository/user
// concepts - there is exactly one run, and exactly one secret.
package statusserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	jsonMIME = "application/json"
)

// Snapshot is the JSON body GET /status returns.
type Snapshot struct {
	Phase      string `json:"phase"`
	Discovered int64  `json:"discovered"`
	Rewritten  int64  `json:"rewritten"`
	Collapsed  int64  `json:"collapsed"`
	Cancelled  bool   `json:"cancelled"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// Server is a status/cancel surface for one rewrite run.
type Server struct {
	secret string
	cancel context.CancelFunc

	startedAt time.Time
	phase     atomic.Value
	discover  atomic.Int64
	rewrite   atomic.Int64
	collapse  atomic.Int64
	cancelled atomic.Bool

	r   *mux.Router
	srv *http.Server
}

// New builds a Server whose POST /cancel calls cancel once a bearer
// token signed with secret (HS256) passes validation. An empty secret
// disables /cancel entirely - there is no unauthenticated trigger for
// cooperative cancellation.
func New(secret string, cancel context.CancelFunc) *Server {
	s := &Server{secret: secret, cancel: cancel, startedAt: time.Now()}
	s.phase.Store("starting")
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/cancel", s.handleCancel).Methods(http.MethodPost)
	s.r = r
	return s
}

// SetPhase records the current phase name shown in GET /status.
func (s *Server) SetPhase(phase string) { s.phase.Store(phase) }

// Report overwrites the discovered/rewritten/collapsed counters, called
// from the engine's OnCommit callback after each commit.
func (s *Server) Report(discovered, rewritten, collapsed int) {
	s.discover.Store(int64(discovered))
	s.rewrite.Store(int64(rewritten))
	s.collapse.Store(int64(collapsed))
}

// ListenAndServe binds addr and blocks serving until an error or a call
// to Close. Intended to run in its own goroutine alongside the rewrite.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.srv.ListenAndServe()
}

// Close shuts the HTTP server down, if it was ever started.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := Snapshot{
		Phase:      s.phase.Load().(string),
		Discovered: s.discover.Load(),
		Rewritten:  s.rewrite.Load(),
		Collapsed:  s.collapse.Load(),
		Cancelled:  s.cancelled.Load(),
		ElapsedMS:  time.Since(s.startedAt).Milliseconds(),
	}
	w.Header().Set("Content-Type", jsonMIME)
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logrus.Errorf("statusserver: encode status: %v", err)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if s.secret == "" {
		renderFailure(w, http.StatusForbidden, "cancel endpoint disabled: no --cancel-secret configured")
		return
	}
	auth := r.Header.Get("Authorization")
	token, ok := parseBearerToken(auth)
	if !ok {
		renderFailure(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := s.verify(token); err != nil {
		renderFailure(w, http.StatusForbidden, "invalid token: "+err.Error())
		return
	}
	if s.cancelled.CompareAndSwap(false, true) {
		logrus.Info("statusserver: cancel requested")
		s.cancel()
	}
	w.Header().Set("Content-Type", jsonMIME)
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]bool{"cancelled": true})
}

func renderFailure(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", jsonMIME)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
