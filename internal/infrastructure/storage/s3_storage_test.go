package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

// fakeS3 answers path-style S3 requests and records them
type fakeS3 struct {
	mu        sync.Mutex
	requests  []recordedRequest
	hasBucket bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	hasBucket := f.hasBucket
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/images" && !hasBucket:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/images":
		f.mu.Lock()
		f.hasBucket = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeS3) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeS3) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestS3(t *testing.T, publicURL string) (*S3ImageStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3ImageStorage(&config.StorageConfig{
		Endpoint:     srv.URL,
		Bucket:       "images",
		AccessKey:    "key",
		SecretKey:    "secret",
		UsePathStyle: true,
		PublicURL:    publicURL,
	})
	require.NoError(t, err)
	return s, fake
}

func TestNewS3ImageStorage_Validation(t *testing.T) {
	_, err := NewS3ImageStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ImageStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ImageStorage(&config.StorageConfig{Bucket: "images", AccessKey: "k"})
	assert.ErrorContains(t, err, "secret key are required")
}

func TestS3ImageStorage_Put(t *testing.T) {
	s, fake := newTestS3(t, "")
	data := "png-bytes"

	err := s.Put(context.Background(), "products/p1.png", strings.NewReader(data), int64(len(data)), "image/png")
	require.NoError(t, err)

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/images/products/p1.png", req.Path)
	assert.Equal(t, "image/png", req.ContentType)
	assert.Contains(t, req.Body, data)
}

func TestS3ImageStorage_Delete(t *testing.T) {
	s, fake := newTestS3(t, "")
	require.NoError(t, s.Delete(context.Background(), "products/p1.png"))
	assert.Equal(t, http.MethodDelete, fake.last().Method)

	assert.ErrorIs(t, s.Delete(context.Background(), ""), errEmptyKey)
}

func TestS3ImageStorage_URL(t *testing.T) {
	t.Run("presigned when no public url", func(t *testing.T) {
		s, _ := newTestS3(t, "")
		u, err := s.URL(context.Background(), "products/p1.png")
		require.NoError(t, err)
		assert.Contains(t, u, "/images/products/p1.png")
		assert.Contains(t, u, "X-Amz-Signature=")
	})

	t.Run("public url", func(t *testing.T) {
		s, _ := newTestS3(t, "https://cdn.example.com/pos/")
		u, err := s.URL(context.Background(), "p1.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/pos/p1.png", u)
	})
}

func TestS3ImageStorage_EnsureBucket(t *testing.T) {
	s, fake := newTestS3(t, "")

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.Equal(t, http.MethodPut, fake.last().Method)
	assert.Equal(t, "/images", fake.last().Path)

	n := fake.count()
	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.Equal(t, n+1, fake.count(), "an existing bucket only needs a HEAD")
}
