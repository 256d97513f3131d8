// Package multipart splits raw upload bodies into form fields and at most one
// file. It is deliberately lenient: malformed bodies yield an empty or
// partially empty Form, never an error, and callers treat "no file and no
// usable fields" as nothing received.
package multipart

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
)

// File is a decoded file part. Data holds the part body verbatim; it is never
// treated as text, so binary payloads survive untouched.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Form is the result of parsing one request body. File is nil when the body
// carried no file part. Field values are stored raw; escaping is the
// caller's job at render time.
type Form struct {
	Fields map[string]string
	File   *File
}

var (
	boundaryRe    = regexp.MustCompile(`(?i)boundary=("?)([^";]+)("?)`)
	dispNameRe    = regexp.MustCompile(`(?i)(?:^|;)\s*name="([^"]*)"`)
	dispFileRe    = regexp.MustCompile(`(?i)filename="([^"]*)"`)
	partTypeRe    = regexp.MustCompile(`(?i)^content-type:\s*(.+)$`)
	dispositionRe = regexp.MustCompile(`(?i)^content-disposition:`)
)

// Parse decodes body according to contentType. With a multipart boundary the
// body is split on the boundary marker; without one the whole body is read as
// URL-encoded key=value pairs, a path that never yields a file. Later file
// parts silently overwrite earlier ones; only the last survives.
func Parse(contentType string, body []byte) Form {
	form := Form{Fields: make(map[string]string)}
	boundary := boundaryToken(contentType)
	if boundary == "" {
		parseURLEncoded(string(body), form.Fields)
		return form
	}

	segments := bytes.Split(body, []byte("--"+boundary))
	if len(segments) < 3 {
		// No separator found: nothing usable.
		return form
	}
	// First segment is the preamble, last is the terminator.
	for _, segment := range segments[1 : len(segments)-1] {
		header, data, ok := splitPart(segment)
		if !ok {
			continue
		}
		name, filename, hasFile := disposition(header)
		switch {
		case hasFile:
			form.File = &File{
				Filename:    baseName(filename),
				ContentType: partContentType(header),
				Data:        data,
			}
		case name != "":
			form.Fields[name] = string(data)
		}
	}
	return form
}

func boundaryToken(contentType string) string {
	m := boundaryRe.FindStringSubmatch(contentType)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[2])
}

// splitPart divides a boundary-delimited segment into its header block and
// body bytes. The leading newline after the boundary and the trailing CRLF
// that belongs to the encapsulation are dropped; everything between stays
// byte-exact.
func splitPart(segment []byte) (header string, data []byte, ok bool) {
	segment = bytes.TrimPrefix(segment, []byte("\r\n"))
	segment = bytes.TrimPrefix(segment, []byte("\n"))
	sep := []byte("\r\n\r\n")
	idx := bytes.Index(segment, sep)
	if idx < 0 {
		sep = []byte("\n\n")
		idx = bytes.Index(segment, sep)
	}
	if idx < 0 {
		return "", nil, false
	}
	data = segment[idx+len(sep):]
	if trimmed := bytes.TrimSuffix(data, []byte("\r\n")); len(trimmed) < len(data) {
		data = trimmed
	} else {
		data = bytes.TrimSuffix(data, []byte("\n"))
	}
	return string(segment[:idx]), data, true
}

// disposition pulls name and filename out of the Content-Disposition header
// line. A part with neither attribute is skipped by the caller.
func disposition(header string) (name, filename string, hasFile bool) {
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !dispositionRe.MatchString(line) {
			continue
		}
		if m := dispNameRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if m := dispFileRe.FindStringSubmatch(line); m != nil {
			filename = m[1]
			hasFile = true
		}
		return name, filename, hasFile
	}
	return "", "", false
}

func partContentType(header string) string {
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if m := partTypeRe.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return "application/octet-stream"
}

// baseName strips directory components from a client-supplied filename.
func baseName(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	if idx := strings.LastIndexByte(filename, '/'); idx >= 0 {
		filename = filename[idx+1:]
	}
	return filename
}

func parseURLEncoded(body string, fields map[string]string) {
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		if key == "" {
			continue
		}
		fields[key] = value
	}
}
