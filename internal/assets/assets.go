// Package assets stores uploaded files on disk under a single public
// directory. The directory listing is the asset index; there is no database
// row per upload.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

var unsafeByteRe = regexp.MustCompile(`[^\w.-]`)

// Asset is one stored upload.
type Asset struct {
	Name    string
	ModTime time.Time
	Size    int64
}

// Lister is the read side of the asset store. Handlers that only render the
// upload list depend on this, not on Dir.
type Lister interface {
	List() ([]Asset, error)
}

// Dir writes uploads beneath root. The mutex covers the probe-then-write
// window so two uploads landing in the same millisecond cannot claim the same
// name.
type Dir struct {
	mu   sync.Mutex
	root string
}

// NewDir creates root (and parents) if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: root}, nil
}

// Root returns the directory uploads are written to.
func (d *Dir) Root() string {
	return d.root
}

// Save stores data under a name derived from filename: path components are
// stripped, unsafe bytes are replaced and a millisecond timestamp prefix
// keeps names unique. The stored name is returned.
func (d *Dir) Save(filename string, data []byte) (string, error) {
	base := sanitizeName(filename)
	stamp := time.Now().UnixMilli()

	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		name := fmt.Sprintf("%d-%s", stamp, base)
		full := filepath.Join(d.root, name)
		_, err := os.Stat(full)
		if err == nil {
			stamp++
			continue
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		if err := writeFileAtomic(full, data, 0o644); err != nil {
			return "", err
		}
		return name, nil
	}
}

// List returns stored assets newest first. Subdirectories and dotfiles are
// not assets.
func (d *Dir) List() ([]Asset, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		assets = append(assets, Asset{
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.Slice(assets, func(i, j int) bool {
		if !assets[i].ModTime.Equal(assets[j].ModTime) {
			return assets[i].ModTime.After(assets[j].ModTime)
		}
		return assets[i].Name > assets[j].Name
	})
	return assets, nil
}

// sanitizeName reduces a client-supplied filename to a safe basename.
// Browsers on Windows send full paths, so backslashes count as separators
// too.
func sanitizeName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeByteRe.ReplaceAllString(base, "_")
	base = strings.Trim(base, ".")
	if base == "" {
		return "upload"
	}
	return base
}

// writeFileAtomic lands data via a temp file and rename so a crashed upload
// never leaves a half-written asset behind.
func writeFileAtomic(full string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(full)
	base := filepath.Base(full)
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp.%s.%d", base, os.Getpid()))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		return err
	}

	if dirf, err := os.Open(dir); err == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}
	return nil
}
