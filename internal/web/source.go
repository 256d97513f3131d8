package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
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

	theme := s.theme(r)
	highlighted, err := sourceHTML(content, theme)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := ViewData{
		Title:           "Source: " + name,
		ContentTemplate: "source",
		Theme:           theme,
		HomePage:        s.cfg.HomePage,
		PageName:        name,
		SourceHTML:      highlighted,
	}
	s.views.RenderPage(w, data)
}

// sourceHTML highlights raw page markup with inline styles and wraps each
// line in an anchored div so lines are linkable.
func sourceHTML(code, theme string) (template.HTML, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "dracula"
	if theme == "light" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(false),
		chromahtml.WithClasses(false),
		chromahtml.TabWidth(4),
	)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", err
	}

	inner := innerCode(buf.String())
	lines := strings.Split(inner, "\n")
	var out bytes.Buffer
	out.WriteString(`<div class="sourceblock">`)
	for i, ln := range lines {
		if i == len(lines)-1 && ln == "" {
			break
		}
		n := i + 1
		fmt.Fprintf(&out, `<div id="L%d" class="srcline"><a class="ln" href="#L%d">%d</a><span>%s</span></div>`, n, n, n, ln)
	}
	out.WriteString(`</div>`)
	return template.HTML(out.String()), nil
}

// innerCode strips chroma's pre/code wrapper so the lines can be reframed.
func innerCode(full string) string {
	start := strings.Index(full, "<code")
	if start == -1 {
		start = 0
	} else if gt := strings.Index(full[start:], ">"); gt != -1 {
		start = start + gt + 1
	}
	end := strings.LastIndex(full, "</code>")
	if end == -1 {
		end = len(full)
	}
	return full[start:end]
}
