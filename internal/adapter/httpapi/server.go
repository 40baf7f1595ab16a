// Package httpapi exposes the dashboard operations over a small JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

type Config struct {
	Addr           string
	TaskLimit      int
	FileExpiry     time.Duration
	MaxUploadBytes int64
	// RequestLogging turns on the httplog access log.
	RequestLogging bool
}

// Server serves one dashboard session. Every request shares the same session.
type Server struct {
	manus    output.ManusPort
	chat     input.Conversation
	uploader input.FileUploader
	sess     *service.Session
	logger   output.LoggerPort
	cfg      Config

	handler    http.Handler
	httpServer *http.Server
	now        func() time.Time
}

func NewServer(
	manus output.ManusPort,
	chat input.Conversation,
	uploader input.FileUploader,
	sess *service.Session,
	logger output.LoggerPort,
	cfg Config,
) *Server {
	if logger == nil {
		logger = output.NopLogger{}
	}
	if cfg.FileExpiry <= 0 {
		cfg.FileExpiry = entity.DefaultFileExpiry
	}

	s := &Server{
		manus:    manus,
		chat:     chat,
		uploader: uploader,
		sess:     sess,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}

	r := chi.NewRouter()
	if cfg.RequestLogging {
		r.Use(httplog.RequestLogger(httplog.NewLogger("manus-dashboard", httplog.Options{
			JSON:    true,
			Concise: true,
		})))
	}
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/profiles", s.handleProfiles)

	r.Post("/api/chat", s.handleChat)

	r.Route("/api/files", func(r chi.Router) {
		r.Get("/", s.handleListFiles)
		r.Post("/", s.handleUploadFiles)
		r.Get("/stats", s.handleFileStats)
		r.Delete("/{id}", s.handleDeleteFile)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.handleListTasks)
		r.Get("/stats", s.handleTaskStats)
		r.Get("/export", s.handleExportTasks)
		r.Get("/{id}", s.handleGetTask)
		r.Delete("/{id}", s.handleDeleteTask)
	})

	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Get("/messages", s.handleMessages)
		r.Post("/reset", s.handleReset)
		r.Get("/export", s.handleExportSession)
		r.Delete("/files", s.handleClearStaged)
		r.Get("/history", s.handleHistory)
		r.Post("/history/{id}/restore", s.handleRestore)
	})

	s.handler = r
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("Dashboard API listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, entity.AgentProfiles)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var (
		verr *entity.ValidationError
		nf   *entity.NotFoundError
		re   *entity.RemoteError
		ue   *entity.UploadError
		tce  *entity.TaskCreationError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &tce), errors.As(err, &re), errors.As(err, &ue):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
