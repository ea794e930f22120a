// Package server exposes the design rule pipeline over HTTP: a drop page, an upload
// endpoint and the latest completed result.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	designrule "github.com/kataras/design-rule"
	"github.com/kataras/design-rule/pkg/extractor"
	"github.com/kataras/design-rule/pkg/imager"
	"github.com/kataras/design-rule/pkg/session"
)

//go:embed static/index.html
var staticFiles embed.FS

// Config holds server-specific configuration.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	Extraction     extractor.Options
	Logger         designrule.Logger
}

// Server serves one analysis at a time per process; a newer upload supersedes the
// result of an older one that is still running.
type Server struct {
	cfg     Config
	tracker *session.Tracker[*designrule.Result]
	router  chi.Router

	analyze func(context.Context, designrule.Options) (*designrule.Result, error)
}

// New creates a Server with its routes mounted. A non-positive MaxUploadBytes means 20 MiB.
func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	s := &Server{
		cfg:     cfg,
		tracker: session.NewTracker[*designrule.Result](),
		analyze: designrule.Run,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/result", s.handleResult)
	r.Get("/result/elements", s.handleResultElements)

	s.router = r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && s.cfg.Logger != nil {
			s.cfg.Logger.Errorf("Server shutdown error: %v", err)
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid upload: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing \"image\" file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	id := s.tracker.Begin()
	w.Header().Set("X-Analysis-ID", id)

	result, err := s.analyze(r.Context(), designrule.Options{
		Image:      file,
		ImageName:  header.Filename,
		Extraction: s.cfg.Extraction,
		Logger:     s.cfg.Logger,
	})
	if err != nil {
		s.tracker.Fail(id)
		status := http.StatusInternalServerError
		if errors.Is(err, imager.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		http.Error(w, err.Error(), status)
		return
	}

	if !s.tracker.Finish(id, result) {
		http.Error(w, "analysis superseded by a newer upload", http.StatusConflict)
		return
	}

	writeMarkdown(w, http.StatusOK, result.Markdown)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.completed(w)
	if !ok {
		return
	}
	w.Header().Set("X-Analysis-ID", snap.RequestID)
	writeMarkdown(w, http.StatusOK, snap.Result.Markdown)
}

func (s *Server) handleResultElements(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.completed(w)
	if !ok {
		return
	}
	w.Header().Set("X-Analysis-ID", snap.RequestID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap.Result.Elements)
}

// completed writes the status for a tracker that holds no result yet and reports
// whether a completed snapshot is available.
func (s *Server) completed(w http.ResponseWriter) (session.Snapshot[*designrule.Result], bool) {
	snap := s.tracker.Snapshot()
	switch snap.State {
	case session.Complete:
		return snap, true
	case session.Analyzing:
		w.Header().Set("X-Analysis-ID", snap.RequestID)
		http.Error(w, "analysis in progress", http.StatusAccepted)
	default:
		http.Error(w, "no design analyzed yet", http.StatusNotFound)
	}
	return snap, false
}

func writeMarkdown(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
