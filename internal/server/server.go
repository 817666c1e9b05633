package server

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/export"
	"github.com/joseph-ayodele/discharge-summarizer/internal/extract"
	"github.com/joseph-ayodele/discharge-summarizer/internal/pipeline"
)

//go:embed static/index.html
var indexHTML []byte

// BatchProcessor runs one upload batch through the pipeline.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, files []extract.UploadedFile) (pipeline.Result, error)
}

// Renderer turns the selected summary into a response format.
type Renderer interface {
	Render(format export.Format, summary string) (export.Rendered, error)
}

type Config struct {
	UploadField    string // multipart field holding the files
	MaxUploadBytes int64  // 0 = unlimited
}

type Server struct {
	cfg      Config
	proc     BatchProcessor
	renderer Renderer
	logger   *slog.Logger
}

func New(cfg Config, proc BatchProcessor, renderer Renderer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UploadField == "" {
		cfg.UploadField = "files"
	}
	return &Server{cfg: cfg, proc: proc, renderer: renderer, logger: logger}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestContext)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Post("/extract_text1", s.handleExtract)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestContext copies chi's request id into the context key the pipeline reads.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(common.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
