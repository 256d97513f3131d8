package web

import (
	"html/template"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pinwiki/internal/search"
)

func TestTemplatesParseAll(t *testing.T) {
	views := MustParseTemplates()
	for _, name := range []string{"base", "view", "edit", "search", "history", "source"} {
		if views.all.Lookup(name) == nil {
			t.Fatalf("template %q not defined", name)
		}
	}
}

func TestRenderViewTemplate(t *testing.T) {
	views := MustParseTemplates()
	rec := httptest.NewRecorder()
	views.RenderPage(rec, ViewData{
		Title:           "Doc",
		ContentTemplate: "view",
		Theme:           "dark",
		HomePage:        "Home",
		PageName:        "Doc",
		RenderedHTML:    template.HTML("<p>hello there</p>"),
		Pages:           []string{"Doc", "Other"},
		Comments: []CommentView{
			{Author: "ana", Text: "looks good", CreatedAt: time.Now()},
			{Author: "bob", Text: "tea &amp; cake", CreatedAt: time.Now()},
		},
		Uploads: []UploadView{
			{Name: "logo.png", IsImage: true},
			{Name: "notes.txt", IsImage: false},
		},
	})

	body := rec.Body.String()
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, body)
	}
	if !strings.Contains(body, `<body class="dark">`) {
		t.Fatalf("expected dark body class")
	}
	if !strings.Contains(body, `data-page="Doc"`) {
		t.Fatalf("expected page marker in view")
	}
	if !strings.Contains(body, "<p>hello there</p>") {
		t.Fatalf("expected rendered content passed through unescaped")
	}
	if !strings.Contains(body, "looks good") || !strings.Contains(body, "ana") {
		t.Fatalf("expected comment in view")
	}
	if !strings.Contains(body, "tea &amp; cake") {
		t.Fatalf("expected stored comment entities kept as-is")
	}
	if strings.Contains(body, "&amp;amp;") {
		t.Fatalf("stored comment was escaped a second time")
	}
	if !strings.Contains(body, `<img src="/public/uploads/logo.png"`) {
		t.Fatalf("expected thumbnail for image upload")
	}
	if strings.Contains(body, `<img src="/public/uploads/notes.txt"`) {
		t.Fatalf("expected no thumbnail for non-image upload")
	}
	if !strings.Contains(body, `class="chip">notes.txt</a>`) {
		t.Fatalf("expected name chip for non-image upload")
	}
	if !strings.Contains(body, "/page?name=Other") {
		t.Fatalf("expected sidebar link to other page")
	}
}

func TestRenderEditEscapesRawContent(t *testing.T) {
	views := MustParseTemplates()
	rec := httptest.NewRecorder()
	views.RenderPage(rec, ViewData{
		Title:           "Doc",
		ContentTemplate: "edit",
		Theme:           "light",
		HomePage:        "Home",
		PageName:        "Doc",
		RawContent:      "<script>alert(1)</script>",
	})

	body := rec.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("raw content leaked unescaped into textarea")
	}
	if !strings.Contains(body, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("expected escaped raw content in textarea")
	}
	if !strings.Contains(body, `<body class="light">`) {
		t.Fatalf("expected light body class")
	}
}

func TestRenderHistoryTemplate(t *testing.T) {
	views := MustParseTemplates()
	rec := httptest.NewRecorder()
	views.RenderPage(rec, ViewData{
		Title:           "Doc history",
		ContentTemplate: "history",
		Theme:           "dark",
		HomePage:        "Home",
		PageName:        "Doc",
		Revisions: []RevisionView{
			{
				ID:    "rev-1",
				Label: "2026-01-02 15:04:05",
				Lines: []DiffLine{
					{Kind: "del", Text: "old line"},
					{Kind: "add", Text: "new line"},
					{Kind: "ctx", Text: "shared line"},
				},
			},
		},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "2026-01-02 15:04:05") {
		t.Fatalf("expected revision label")
	}
	if !strings.Contains(body, "old line") || !strings.Contains(body, "new line") {
		t.Fatalf("expected diff lines in history")
	}
	if !strings.Contains(body, `value="rev-1"`) {
		t.Fatalf("expected restore form carrying revision id")
	}
}

func TestRenderSearchTemplate(t *testing.T) {
	views := MustParseTemplates()
	rec := httptest.NewRecorder()
	views.RenderPage(rec, ViewData{
		Title:           "Search",
		ContentTemplate: "search",
		Theme:           "dark",
		HomePage:        "Home",
		SearchQuery:     "hello",
		SearchResults: []search.Result{
			{Name: "Doc", Snippet: "...hello there..."},
		},
	})

	body := rec.Body.String()
	if !strings.Contains(body, `value="hello"`) {
		t.Fatalf("expected query echoed in search box")
	}
	if !strings.Contains(body, "/page?name=Doc") {
		t.Fatalf("expected result link")
	}
	if !strings.Contains(body, "...hello there...") {
		t.Fatalf("expected snippet in results")
	}
}
