package web

import (
	"net/http"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around changes; longer
// equal stretches collapse to "...".
const contextLines = 3

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if _, ok := s.store.Page(name); !ok {
		http.NotFound(w, r)
		return
	}

	revs := s.store.Revisions(name)
	views := make([]RevisionView, 0, len(revs))
	for i, rev := range revs {
		older := ""
		if i+1 < len(revs) {
			older = revs[i+1].Content
		}
		views = append(views, RevisionView{
			ID:    rev.ID,
			Label: rev.At.Format("2006-01-02 15:04:05"),
			Lines: diffLines(older, rev.Content),
		})
	}

	data := ViewData{
		Title:           "History: " + name,
		ContentTemplate: "history",
		Theme:           s.theme(r),
		HomePage:        s.cfg.HomePage,
		PageName:        name,
		Revisions:       views,
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := r.Form.Get("name")
	revID := r.Form.Get("rev")
	if name == "" || revID == "" {
		http.Error(w, "name and rev required", http.StatusBadRequest)
		return
	}
	rev, ok := s.store.Revision(name, revID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.savePage(name, rev.Content)
	http.Redirect(w, r, viewURL(name), http.StatusSeeOther)
}

// diffLines renders the change from old to new as display lines, equal runs
// collapsed around the edits.
func diffLines(old, new string) []DiffLine {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var out []DiffLine
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		lines := strings.Split(text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range lines {
				out = append(out, DiffLine{Kind: "del", Text: l})
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range lines {
				out = append(out, DiffLine{Kind: "add", Text: l})
			}
		case diffmatchpatch.DiffEqual:
			if len(lines) > 2*contextLines {
				for i := 0; i < contextLines; i++ {
					out = append(out, DiffLine{Kind: "ctx", Text: lines[i]})
				}
				out = append(out, DiffLine{Kind: "ctx", Text: "..."})
				for i := len(lines) - contextLines; i < len(lines); i++ {
					out = append(out, DiffLine{Kind: "ctx", Text: lines[i]})
				}
			} else {
				for _, l := range lines {
					out = append(out, DiffLine{Kind: "ctx", Text: l})
				}
			}
		}
	}
	return out
}
