package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kifu/internal/config"
	apperrors "kifu/internal/errors"
	"kifu/internal/httpresponse"
	"kifu/internal/metrics"
	"kifu/internal/service"
)

// Server exposes a Library over HTTP and websockets.
type Server struct {
	cfg     config.ServerConfig
	lib     *service.Library
	log     *zap.SugaredLogger
	metrics *metrics.Collector
	router  chi.Router
}

// New builds the router. m may be nil, in which case /metrics is not served.
func New(cfg config.ServerConfig, lib *service.Library, log *zap.SugaredLogger, m *metrics.Collector) *Server {
	s := &Server{cfg: cfg, lib: lib, log: log, metrics: m}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	if s.cfg.CORS {
		r.Use(cors)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/health", s.handleHealth)
	r.Get("/sessions/{sid}", s.handleSession)
	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSummary)
			r.Delete("/", s.handleDelete)
			r.Get("/tree", s.handleTree)
			r.Get("/position", s.handlePosition)
			r.Get("/jump", s.handleJump)
			r.Get("/ws", s.handleSocket)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Server is running on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// writeError maps service errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	httpresponse.WriteError(w, status, err)
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, apperrors.ErrRecordNotFound),
		errors.Is(err, apperrors.ErrLineNotFound),
		errors.Is(err, apperrors.ErrMoveNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidEncoding),
		errors.Is(err, apperrors.ErrInvalidCommand),
		errors.Is(err, errBadParam):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrEmptyRecord):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
