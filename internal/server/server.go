package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/fdtd"
	"github.com/ArinaShifrina/PZ4/internal/metrics"
)

// ErrBusy is returned when a run is requested while another is active.
var ErrBusy = errors.New("server: simulation already running")

// Status is the body of GET /api/status.
type Status struct {
	Running bool               `json:"running"`
	Runs    int                `json:"runs"`
	Clients int                `json:"clients"`
	Last    map[string]float64 `json:"last,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Server runs one simulation at a time and streams it to websocket clients.
type Server struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *Metrics
	hub      *Hub

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	runs    int
	last    map[string]float64
	lastErr error
}

func New(cfg *config.Config) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		registry: reg,
		metrics:  NewMetrics(reg),
	}
	s.hub = NewHub(s.metrics, s.handleMsg)
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

// Router wires the HTTP API. Requests are logged in Apache format.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/api/config", s.configHandler).Methods("GET")
	r.HandleFunc("/api/status", s.statusHandler).Methods("GET")
	r.HandleFunc("/api/run", s.runHandler).Methods("POST")
	r.HandleFunc("/api/stop", s.stopHandler).Methods("POST")
	r.HandleFunc("/ws", s.hub.ServeWS)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return handlers.LoggingHandler(log.StandardLogger().Writer(), r)
}

// Start launches a run in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrBusy
	}

	ec, err := s.cfg.Engine()
	if err != nil {
		return err
	}
	engine, err := fdtd.New(ec)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default(ec.Eps, ec.Mu, metrics.DefaultThreshold) {
		engine.AddMetric(m)
	}
	engine.AddMetric(&progress{m: s.metrics})
	engine.AddDisplay(s.hub)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.runs++

	entry := log.WithFields(log.Fields{
		"scenario": s.cfg.Name,
		"cells":    ec.Size,
		"steps":    ec.Steps,
	})
	entry.Info("simulation started")

	go func(done chan struct{}) {
		defer close(done)
		start := time.Now()
		result, err := engine.Run(ctx)
		elapsed := time.Since(start)

		outcome := "completed"
		switch {
		case errors.Is(err, context.Canceled):
			outcome = "cancelled"
		case err != nil:
			outcome = "failed"
		}
		s.metrics.runsTotal.WithLabelValues(outcome).Inc()
		s.metrics.runDuration.Observe(elapsed.Seconds())
		entry.WithFields(log.Fields{"outcome": outcome, "elapsed": elapsed}).Info("simulation finished")

		s.mu.Lock()
		s.cancel = nil
		s.last = result.Metrics
		s.lastErr = err
		s.mu.Unlock()
		cancel()
	}(s.done)
	return nil
}

// Stop cancels the active run. It reports whether a run was active.
func (s *Server) Stop() bool {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Wait blocks until the most recent run has finished.
func (s *Server) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running: s.cancel != nil,
		Runs:    s.runs,
		Clients: s.hub.Clients(),
		Last:    s.last,
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// ListenAndServe serves until ctx is cancelled, then stops the active run
// and shuts the listener down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithField("addr", addr).Info("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Stop()
	s.Wait()
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleMsg(msg Msg) {
	switch msg.Type {
	case TypeStart:
		if err := s.Start(); err != nil {
			s.hub.Broadcast(Msg{Type: TypeError, Content: err.Error()})
		}
	case TypeStop:
		s.Stop()
	default:
		log.WithField("type", msg.Type).Warn("unknown websocket message")
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) configHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) runHandler(w http.ResponseWriter, _ *http.Request) {
	switch err := s.Start(); {
	case errors.Is(err, ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, fdtd.ErrInvalidConfig), errors.Is(err, fdtd.ErrDimensionMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusAccepted, s.Status())
	}
}

func (s *Server) stopHandler(w http.ResponseWriter, _ *http.Request) {
	if !s.Stop() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active run"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encode response")
	}
}
