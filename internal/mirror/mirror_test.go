package mirror

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeBlobStore) PutBytes(_ context.Context, objectPath string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[objectPath] = append([]byte(nil), data...)
	f.types[objectPath] = contentType
	return nil
}

func (f *fakeBlobStore) PublicURL(objectPath string) string {
	return "http://blob.local/article-images/" + objectPath
}

func newTestMirror(store *fakeBlobStore) *Mirror {
	m := New(store, &http.Client{Timeout: 5 * time.Second}, "images", "readlater-test/0.1", nil)
	m.now = func() time.Time { return time.Unix(1700000000, 0) }
	return m
}

func TestMirror_Succeeds(t *testing.T) {
	t.Parallel()

	payload := []byte("\x89PNG fake bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	store := newFakeBlobStore()
	m := newTestMirror(store)

	res := m.Mirror(context.Background(), "pocket_1_abc", srv.URL+"/lead.png")
	require.True(t, res.OK())
	require.Equal(t, "images/pocket_1_abc_1700000000000.png", res.StoredPath)
	require.Equal(t, "http://blob.local/article-images/images/pocket_1_abc_1700000000000.png", res.PublicURL)
	require.Equal(t, payload, store.objects[res.StoredPath])
	require.Equal(t, "image/png", store.types[res.StoredPath])
}

func TestMirror_ExtensionFromContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("webp bytes"))
	}))
	defer srv.Close()

	store := newFakeBlobStore()
	m := newTestMirror(store)

	// URL path carries no extension, so the content-type decides.
	res := m.Mirror(context.Background(), "pocket_2_def", srv.URL+"/image")
	require.True(t, res.OK())
	require.Equal(t, "images/pocket_2_def_1700000000000.webp", res.StoredPath)
}

func TestMirror_NonImageContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	store := newFakeBlobStore()
	m := newTestMirror(store)

	res := m.Mirror(context.Background(), "pocket_3_ghi", srv.URL+"/page")
	require.False(t, res.OK())
	require.Empty(t, store.objects)
}

func TestMirror_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	store := newFakeBlobStore()
	m := newTestMirror(store)

	res := m.Mirror(context.Background(), "pocket_4_jkl", srv.URL+"/missing.jpg")
	require.False(t, res.OK())
	require.Empty(t, store.objects)
}

func TestMirror_BadURLs(t *testing.T) {
	t.Parallel()

	store := newFakeBlobStore()
	m := newTestMirror(store)

	for _, raw := range []string{"", "   ", "ftp://ex.com/a.jpg", "javascript:alert(1)", "::bad::"} {
		res := m.Mirror(context.Background(), "pocket_5_mno", raw)
		require.False(t, res.OK(), "url %q", raw)
	}
	require.Empty(t, store.objects)
}

func TestMirror_StoreFailureIsSoft(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	store := newFakeBlobStore()
	store.putErr = fmt.Errorf("bucket unavailable")
	m := newTestMirror(store)

	res := m.Mirror(context.Background(), "pocket_6_pqr", srv.URL+"/a.jpg")
	require.False(t, res.OK())
}
