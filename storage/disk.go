// Package storage provides the disk-backed object store for uploaded
// images. The relay itself only ever sees the returned reference.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DiskStore writes uploaded blobs under a local directory and returns
// an opaque URL-shaped reference. Content type is sniffed from the
// bytes, never trusted from the client.
type DiskStore struct {
	dir     string
	baseURL string
	log     *slog.Logger
}

// NewDiskStore ensures dir exists and returns a store whose references
// are baseURL + "/" + filename.
func NewDiskStore(dir, baseURL string, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), log: log}, nil
}

// Put stores data and returns its reference. Only image payloads are
// accepted; everything else is rejected before touching the disk.
func (s *DiskStore) Put(data []byte) (string, error) {
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("unsupported upload type %s", mime.String())
	}

	name := uuid.NewString() + mime.Extension()
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}

	s.log.Debug("stored upload", "path", path, "mime", mime.String())
	return s.baseURL + "/" + name, nil
}

// Dir exposes the backing directory so the HTTP layer can serve it.
func (s *DiskStore) Dir() string { return s.dir }
