package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"pinwiki/internal/markup"
	"pinwiki/internal/multipart"
	"pinwiki/internal/store"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, viewURL(s.cfg.HomePage), http.StatusFound)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Names()); err != nil {
		slog.Warn("encode page list", "err", err)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Redirect(w, r, viewURL(s.cfg.HomePage), http.StatusFound)
		return
	}

	content := s.store.Ensure(name)
	uploads, err := s.lister.List()
	if err != nil {
		slog.Warn("list uploads", "err", err)
	}

	data := ViewData{
		Title:           name,
		ContentTemplate: "view",
		Theme:           s.theme(r),
		HomePage:        s.cfg.HomePage,
		PageName:        name,
		RenderedHTML:    template.HTML(markup.Render(content)),
		Pages:           s.store.Names(),
		Comments:        commentViews(s.store.Comments(name)),
		Uploads:         uploadViews(uploads),
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	content, ok := s.store.Page(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	uploads, err := s.lister.List()
	if err != nil {
		slog.Warn("list uploads", "err", err)
	}

	data := ViewData{
		Title:           "Edit: " + name,
		ContentTemplate: "edit",
		Theme:           s.theme(r),
		HomePage:        s.cfg.HomePage,
		PageName:        name,
		RawContent:      content,
		Uploads:         uploadViews(uploads),
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.Form.Get("name"))
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	s.savePage(name, r.Form.Get("content"))
	http.Redirect(w, r, viewURL(name), http.StatusSeeOther)
}

func (s *Server) handleEditSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.Form.Get("name"))
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if _, ok := s.store.Page(name); !ok {
		http.Error(w, "page does not exist", http.StatusBadRequest)
		return
	}
	s.savePage(name, r.Form.Get("content"))
	http.Redirect(w, r, viewURL(name), http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if !s.store.Delete(name) {
		http.NotFound(w, r)
		return
	}
	if err := s.search.Remove(context.Background(), name); err != nil {
		slog.Warn("search remove", "page", name, "err", err)
	}
	s.notify(name, "delete")
	slog.Info("page deleted", "page", name)
	http.Redirect(w, r, viewURL(s.cfg.HomePage), http.StatusSeeOther)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page := r.Form.Get("page")
	text := strings.TrimSpace(r.Form.Get("text"))
	if text == "" {
		http.Error(w, "text required", http.StatusBadRequest)
		return
	}

	if _, err := s.store.AddComment(page, r.Form.Get("author"), text); err != nil {
		if errors.Is(err, store.ErrPageNotFound) {
			http.Error(w, "page does not exist", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.notify(page, "comment")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Comments(page)); err != nil {
		slog.Warn("encode comments", "page", page, "err", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := multipart.Parse(r.Header.Get("Content-Type"), body)
	if form.File == nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}

	name, err := s.assets.Save(form.File.Filename, form.File.Data)
	if err != nil {
		slog.Error("store upload", "filename", form.File.Filename, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("upload stored", "name", name, "size", len(form.File.Data), "type", form.File.ContentType)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"path": "/public/uploads/" + name}); err != nil {
		slog.Warn("encode upload response", "err", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, markup.Render(r.URL.Query().Get("text")))
}

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
}

func (s *Server) handlePublic(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" {
		http.NotFound(w, r)
		return
	}
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	full := filepath.Join(s.cfg.PublicDir, filepath.FromSlash(rel))

	absRoot, err := filepath.Abs(s.cfg.PublicDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !strings.HasPrefix(absFull, absRoot+string(os.PathSeparator)) {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(absFull)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(absFull)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	ct, ok := contentTypes[strings.ToLower(path.Ext(rel))]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := s.search.Search(r.Context(), query, s.cfg.SearchLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := ViewData{
		Title:           "Search",
		ContentTemplate: "search",
		Theme:           s.theme(r),
		HomePage:        s.cfg.HomePage,
		SearchQuery:     query,
		SearchResults:   results,
		Pages:           s.store.Names(),
	}
	s.views.RenderPage(w, data)
}

// savePage is the single write path: store, index, notify.
func (s *Server) savePage(name, content string) {
	rev := s.store.Put(name, content)
	if err := s.search.IndexPage(context.Background(), name, content); err != nil {
		slog.Warn("search index", "page", name, "err", err)
	}
	s.notify(name, "put")
	slog.Info("page saved", "page", name, "rev", rev.ID, "bytes", len(content))
}

func (s *Server) theme(r *http.Request) string {
	if c, err := r.Cookie("theme"); err == nil {
		switch c.Value {
		case "dark", "light":
			return c.Value
		}
	}
	return s.cfg.ThemeDefault
}

func viewURL(name string) string {
	return "/page?name=" + url.QueryEscape(name)
}
