// Package httpapi exposes the allocation webhook, the admin CRUD over
// closures and capacity overrides, and the availability read views.
// Authentication, sessions, and rate limiting belong to the web layer in
// front of this server.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/clearbrook/advisory/internal/service"
)

// allocateTimeout is the outer deadline on one allocation request.
const allocateTimeout = 60 * time.Second

// viewTimeout bounds the read views and admin operations.
const viewTimeout = 30 * time.Second

// Server routes HTTP traffic to the service layer.
type Server struct {
	router       *mux.Router
	allocation   service.AllocationService
	availability service.AvailabilityService
	admin        service.AdminService
	logger       *slog.Logger
}

func NewServer(
	allocation service.AllocationService,
	availability service.AvailabilityService,
	admin service.AdminService,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:       mux.NewRouter(),
		allocation:   allocation,
		availability: availability,
		admin:        admin,
		logger:       logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestIDMiddleware, s.accessLogMiddleware)

	s.router.HandleFunc("/post/allocate", s.handleAllocate).Methods(http.MethodPost)

	s.router.HandleFunc("/closures", s.handleListClosures).Methods(http.MethodGet)
	s.router.HandleFunc("/closures", s.handleCreateClosure).Methods(http.MethodPost)
	s.router.HandleFunc("/closures/{id}", s.handleUpdateClosure).Methods(http.MethodPut)
	s.router.HandleFunc("/closures/{id}", s.handleDeleteClosure).Methods(http.MethodDelete)

	s.router.HandleFunc("/capacity_overrides", s.handleListOverrides).Methods(http.MethodGet)
	s.router.HandleFunc("/capacity_overrides", s.handleCreateOverride).Methods(http.MethodPost)
	s.router.HandleFunc("/capacity_overrides/{id}", s.handleUpdateOverride).Methods(http.MethodPut)
	s.router.HandleFunc("/capacity_overrides/{id}", s.handleDeleteOverride).Methods(http.MethodDelete)

	s.router.HandleFunc("/availability/earliest", s.handleEarliest).Methods(http.MethodGet)
	s.router.HandleFunc("/availability/schedule", s.handleSchedule).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- middleware ---

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Context().Value(requestIDKey),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// --- shared helpers ---

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorBody is the uniform failure shape: a kind plus human-readable
// detail, never stack traces or backend internals.
type errorBody struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, errorBody{Error: kind, Detail: detail})
}
