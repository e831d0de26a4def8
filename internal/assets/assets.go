// Package assets resolves player names to image files on disk.
package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no image matches the requested name.
var ErrNotFound = errors.New("no image found for player")

// extensions lists the recognized image file extensions, in preference order.
var extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// Resolver maps player names to image files in a single directory.
// Matching is case-insensitive on the file basename, with spaces in the
// player name also matched against underscores and hyphens.
type Resolver struct {
	dir string
}

// NewResolver returns a Resolver rooted at dir. An empty dir disables
// resolution; Resolve always returns ErrNotFound.
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the path of the image file for the named player.
func (r *Resolver) Resolve(name string) (string, error) {
	if r.dir == "" || name == "" {
		return "", ErrNotFound
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", ErrNotFound
	}

	want := normalize(name)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !validExtension(ext) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if normalize(base) == want {
			return filepath.Join(r.dir, entry.Name()), nil
		}
	}
	return "", ErrNotFound
}

func validExtension(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
