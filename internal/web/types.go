package web

import (
	"html/template"
	"path"
	"strings"
	"time"

	"pinwiki/internal/assets"
	"pinwiki/internal/search"
	"pinwiki/internal/store"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	Theme           string
	HomePage        string
	PageName        string
	RawContent      string
	RenderedHTML    template.HTML
	Pages           []string
	Comments        []CommentView
	Uploads         []UploadView
	SearchQuery     string
	SearchResults   []search.Result
	Revisions       []RevisionView
	SourceHTML      template.HTML
}

// CommentView is one comment as the template sees it. Author and Text were
// escaped when the comment was stored, so they pass through as template.HTML;
// escaping again would render literal entities.
type CommentView struct {
	Author    template.HTML
	Text      template.HTML
	CreatedAt time.Time
}

func commentViews(comments []store.Comment) []CommentView {
	out := make([]CommentView, len(comments))
	for i, c := range comments {
		out[i] = CommentView{
			Author:    template.HTML(c.Author),
			Text:      template.HTML(c.Text),
			CreatedAt: c.CreatedAt,
		}
	}
	return out
}

// UploadView is one entry in the uploads strip. IsImage selects a thumbnail
// over a plain name chip.
type UploadView struct {
	Name    string
	IsImage bool
}

func uploadViews(list []assets.Asset) []UploadView {
	out := make([]UploadView, len(list))
	for i, a := range list {
		ct := contentTypes[strings.ToLower(path.Ext(a.Name))]
		out[i] = UploadView{
			Name:    a.Name,
			IsImage: strings.HasPrefix(ct, "image/"),
		}
	}
	return out
}

// RevisionView is one history entry with the line diff against the previous
// revision.
type RevisionView struct {
	ID    string
	Label string
	Lines []DiffLine
}

type DiffLine struct {
	Kind string // "add", "del" or "ctx"
	Text string
}
