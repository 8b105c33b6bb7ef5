// Package assets stores uploaded product images on local disk and hands
// back publicly resolvable URLs, served by the HTTP server under /images/.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrBadFilename = errors.New("bad image filename")

type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes the blob under the given name, keeping the original filename
// like the upstream storage bucket did, and returns the public URL. A
// failure here aborts only the image step of a product create/edit.
func (s *Store) Save(filename string, blob []byte) (string, error) {
	name := filepath.Base(filename)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrBadFilename
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), blob, 0o644); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return s.baseURL + "/images/" + name, nil
}
