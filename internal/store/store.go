// Package store keeps pages, comments and page revisions in process memory.
// Nothing here survives a restart; the upload directory is the only durable
// state the server has.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"pinwiki/internal/markup"
)

// ErrPageNotFound is returned by comment creation against a page name that
// was never created (or was deleted).
var ErrPageNotFound = errors.New("page not found")

// Comment belongs to exactly one page and dies with it. Author and Text are
// HTML-escaped at creation, so templates and JSON responses can carry them
// as-is.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Revision is one saved state of a page, identified by an opaque ID.
type Revision struct {
	ID      string
	At      time.Time
	Content string
}

// Store owns the page map, the per-page comment lists and the per-page
// revision logs behind one RWMutex, so every read-modify-write sequence is
// atomic under true parallel handlers. Handlers get the store injected; there
// are no package globals.
type Store struct {
	mu          sync.RWMutex
	pages       map[string]string
	names       []string
	comments    map[string][]Comment
	revisions   map[string][]Revision
	nextComment int64
	revisionMax int
}

// New returns an empty store. revisionMax caps the per-page revision log;
// zero or negative disables the cap.
func New(revisionMax int) *Store {
	return &Store{
		pages:       make(map[string]string),
		comments:    make(map[string][]Comment),
		revisions:   make(map[string][]Revision),
		nextComment: 1,
		revisionMax: revisionMax,
	}
}

// Page returns the raw markup of name.
func (s *Store) Page(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.pages[name]
	return content, ok
}

// Ensure returns the page content, creating an empty page when the name has
// never been seen. This is the view-path behavior: a missing page is not an
// error there, it simply starts blank. Auto-creation records no revision —
// nothing has been saved yet.
func (s *Store) Ensure(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content, ok := s.pages[name]; ok {
		return content
	}
	s.pages[name] = ""
	s.names = append(s.names, name)
	return ""
}

// Put creates or overwrites a page and appends a revision. There are no merge
// semantics: concurrent editors race and the last write wins.
func (s *Store) Put(name, content string) Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[name]; !ok {
		s.names = append(s.names, name)
	}
	s.pages[name] = content
	rev := Revision{ID: uuid.NewString(), At: time.Now(), Content: content}
	revs := append(s.revisions[name], rev)
	if s.revisionMax > 0 && len(revs) > s.revisionMax {
		revs = revs[len(revs)-s.revisionMax:]
	}
	s.revisions[name] = revs
	return rev
}

// Delete removes the page and cascades to its comments and revisions.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[name]; !ok {
		return false
	}
	delete(s.pages, name)
	delete(s.comments, name)
	delete(s.revisions, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return true
}

// Names lists pages in creation order, not alphabetically.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// AddComment appends an escaped comment to page. IDs are process-wide,
// strictly increasing from 1 and never reused. The store stays untouched when
// the page does not exist.
func (s *Store) AddComment(page, author, text string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[page]; !ok {
		return Comment{}, ErrPageNotFound
	}
	comment := Comment{
		ID:        s.nextComment,
		Author:    markup.Escape(author),
		Text:      markup.Escape(text),
		CreatedAt: time.Now(),
	}
	s.nextComment++
	s.comments[page] = append(s.comments[page], comment)
	return comment, nil
}

// Comments returns page's comments oldest first. The slice is a copy.
func (s *Store) Comments(page string) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := s.comments[page]
	out := make([]Comment, len(comments))
	copy(out, comments)
	return out
}

// Revisions returns the page's revision log, newest first.
func (s *Store) Revisions(name string) []Revision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	revs := s.revisions[name]
	out := make([]Revision, 0, len(revs))
	for i := len(revs) - 1; i >= 0; i-- {
		out = append(out, revs[i])
	}
	return out
}

// Revision looks up a single revision of name by ID.
func (s *Store) Revision(name, id string) (Revision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rev := range s.revisions[name] {
		if rev.ID == id {
			return rev, true
		}
	}
	return Revision{}, false
}
