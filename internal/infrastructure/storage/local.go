package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	catalogapp "github.com/erp/pos/internal/application/catalog"
)

// LocalImageStorage keeps images in a directory, for development without an S3 endpoint.
// Images are served by the HTTP layer under baseURL.
type LocalImageStorage struct {
	dir     string
	baseURL string
}

// NewLocalImageStorage creates the directory if needed
func NewLocalImageStorage(dir, baseURL string) (*LocalImageStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalImageStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory images are written to
func (s *LocalImageStorage) Dir() string {
	return s.dir
}

// Put writes the image to disk
func (s *LocalImageStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	return f.Close()
}

// URL returns baseURL/key
func (s *LocalImageStorage) URL(_ context.Context, key string) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return s.baseURL + "/" + escapeKey(key), nil
}

// Delete removes the image file. Deleting a missing key succeeds.
func (s *LocalImageStorage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// path resolves key inside dir, rejecting keys that would escape it
func (s *LocalImageStorage) path(key string) (string, error) {
	if key == "" {
		return "", errEmptyKey
	}
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

var _ catalogapp.ImageStorage = (*LocalImageStorage)(nil)

// escapeKey escapes each path segment of key
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
