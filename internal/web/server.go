package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pinwiki/internal/assets"
	"pinwiki/internal/config"
	"pinwiki/internal/search"
	"pinwiki/internal/store"
)

type Server struct {
	cfg    config.Config
	store  *store.Store
	assets *assets.Dir
	lister assets.Lister
	search *search.Index
	views  *Templates
	events *eventHub
	router chi.Router
}

func NewServer(cfg config.Config, st *store.Store, uploads *assets.Dir, idx *search.Index) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		assets: uploads,
		lister: uploads,
		search: idx,
		views:  MustParseTemplates(),
		events: newEventHub(),
	}

	r := chi.NewRouter()
	r.Use(recoverPanics)
	r.Use(logRequests)
	s.routes(r)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(r chi.Router) {
	r.Get("/", s.handleHome)
	r.Get("/pages", s.handlePages)
	r.Get("/page", s.handleView)
	r.Get("/edit", s.handleEditForm)
	r.Post("/edit", s.handleEditSave)
	r.Post("/add", s.handleAdd)
	r.Post("/delete", s.handleDelete)
	r.Post("/comment", s.handleComment)
	r.Post("/upload", s.handleUpload)
	r.Get("/preview", s.handlePreview)
	r.Get("/public/*", s.handlePublic)
	r.Get("/search", s.handleSearch)
	r.Get("/source", s.handleSource)
	r.Get("/history", s.handleHistory)
	r.Post("/restore", s.handleRestore)
	r.Get("/events", s.handleEvents)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	// A wrong method on a known path reads the same as an unknown path.
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
}

// statusWriter records the response code for the request log. Flush passes
// through so SSE keeps working behind the middleware.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"dur", time.Since(start).String(),
		)
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "path", r.URL.Path, "panic", rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
