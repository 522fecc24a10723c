package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper() *Scraper {
	return New(&http.Client{Timeout: 5 * time.Second}, "readlater-test/0.1")
}

func TestPageImage_OGImage(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<html><head>
		<meta property="og:image" content="https://cdn.ex.com/lead.jpg">
		<meta name="twitter:image" content="https://cdn.ex.com/tw.jpg">
	</head><body><img src="https://cdn.ex.com/inline.png"></body></html>`)

	got, err := newTestScraper().PageImage(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.ex.com/lead.jpg", got)
}

func TestPageImage_TwitterFallback(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<html><head>
		<meta name="twitter:image" content="https://cdn.ex.com/tw.jpg">
	</head><body></body></html>`)

	got, err := newTestScraper().PageImage(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.ex.com/tw.jpg", got)
}

func TestPageImage_FirstImgResolved(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<html><body>
		<img src="data:image/gif;base64,R0lGOD">
		<img src="/relative/pic.png">
		<img src="https://cdn.ex.com/second.png">
	</body></html>`)

	got, err := newTestScraper().PageImage(context.Background(), srv.URL)
	require.NoError(t, err)
	// data: URIs are skipped; the relative src resolves against the page URL.
	require.Equal(t, srv.URL+"/relative/pic.png", got)
}

func TestPageImage_NoCandidate(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<html><body><p>Just text.</p></body></html>`)

	got, err := newTestScraper().PageImage(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPageImage_FetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestScraper().PageImage(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestPageImage_RejectsNonHTTPURL(t *testing.T) {
	t.Parallel()

	_, err := newTestScraper().PageImage(context.Background(), "file:///etc/passwd")
	require.Error(t, err)
}
