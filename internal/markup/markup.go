// Package markup renders pinwiki's wiki text to HTML.
//
// Rendering is an ordered pipeline: the whole input is entity-escaped first,
// then each pass rewrites the HTML produced by the one before it. The order
// is load-bearing; a pass only ever sees already-escaped text.
package markup

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// [text](url) — text is one or more non-] chars, url is http(s) followed
	// by one or more non-) non-space chars. A leading ! means the bracket
	// belongs to the positioned-media grammar, so the match is left alone.
	linkRe = regexp.MustCompile(`(!?)\[([^\]]+)\]\((https?://[^)\s]+)\)`)
	// **text** / *text* — non-greedy, first closing marker ends the span,
	// spans never cross a line.
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	// ![alt](path){k:v,...} — alt is zero or more non-] chars, path one or
	// more non-) non-space chars, meta everything up to the closing brace.
	pinnedRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)\{([^}]*)\}`)
	// A line holding nothing but a media URL is auto-embedded.
	bareAudioRe = regexp.MustCompile(`(?im)^(https?://\S+\.(?:mp3|wav))$`)
	bareVideoRe = regexp.MustCompile(`(?im)^(https?://\S+\.(?:mp4|webm))$`)
	bareImageRe = regexp.MustCompile(`(?im)^(https?://\S+\.(?:png|jpe?g|gif))$`)

	videoExtRe = regexp.MustCompile(`(?i)\.(?:mp4|webm)$`)

	escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// passes run in order on the escaped input. Later passes operate on HTML
// emitted by earlier ones, so none of them may reintroduce a bare < or >.
var passes = []func(string) string{
	renderLinks,
	renderEmphasis,
	renderPinnedMedia,
	renderBareMedia,
	renderLineBreaks,
}

// Render converts raw wiki text into an HTML fragment. It never fails;
// malformed constructs are left as (escaped) literal text and malformed pin
// metadata degrades to defaults. Empty input yields empty output.
func Render(input string) string {
	out := Escape(normalizeNewlines(input))
	for _, pass := range passes {
		out = pass(out)
	}
	return out
}

// Escape neutralizes &, < and > in one simultaneous substitution. Media
// src/href values later come verbatim from this escaped text and get no
// further sanitizing.
func Escape(s string) string {
	return escaper.Replace(s)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func renderLinks(s string) string {
	return linkRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := linkRe.FindStringSubmatch(m)
		if parts[1] == "!" {
			return m
		}
		return `<a href="` + parts[3] + `" target="_blank" rel="noopener noreferrer">` + parts[2] + `</a>`
	})
}

func renderEmphasis(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	return italicRe.ReplaceAllString(s, "<em>$1</em>")
}

func renderPinnedMedia(s string) string {
	return pinnedRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := pinnedRe.FindStringSubmatch(m)
		alt, src, meta := parts[1], parts[2], parts[3]
		style := pinStyle(meta)
		if videoExtRe.MatchString(src) {
			return `<video src="` + src + `" controls style="` + style + `"></video>`
		}
		return `<img src="` + src + `" alt="` + alt + `" style="` + style + `">`
	})
}

// pinStyle turns comma-separated k:v pairs into inline CSS. Keys x, y, w are
// pixels; anything else is ignored. x/y fall back to 0, width is dropped
// entirely unless w parses.
func pinStyle(meta string) string {
	var x, y float64
	width := ""
	for _, pair := range strings.Split(meta, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		switch key {
		case "x":
			x = n
		case "y":
			y = n
		case "w":
			width = ";width:" + formatPx(n)
		}
	}
	return "position:absolute;left:" + formatPx(x) + ";top:" + formatPx(y) + width
}

func formatPx(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64) + "px"
}

func renderBareMedia(s string) string {
	s = bareAudioRe.ReplaceAllString(s, `<audio src="$1" controls></audio>`)
	s = bareVideoRe.ReplaceAllString(s, `<video src="$1" controls></video>`)
	return bareImageRe.ReplaceAllString(s, `<img src="$1" alt="">`)
}

func renderLineBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
