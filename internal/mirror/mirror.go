// Package mirror copies remote lead images into owned blob storage so saved
// articles do not hot-link third-party hosts.
package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxImageBytes = 10 << 20

// BlobStore is the slice of blob storage the mirror needs.
type BlobStore interface {
	PutBytes(ctx context.Context, objectPath string, data []byte, contentType string) error
	PublicURL(objectPath string) string
}

// Result describes a successful mirror. The zero Result means the image was
// not mirrored and the caller should keep the original URL.
type Result struct {
	StoredPath string
	PublicURL  string
}

func (r Result) OK() bool { return r.StoredPath != "" }

type Mirror struct {
	Client    *http.Client
	Store     BlobStore
	Prefix    string
	UserAgent string

	logger *zap.Logger
	now    func() time.Time
}

func New(store BlobStore, client *http.Client, prefix, userAgent string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		Client:    client,
		Store:     store,
		Prefix:    prefix,
		UserAgent: userAgent,
		logger:    logger,
		now:       time.Now,
	}
}

// Mirror fetches rawURL and uploads it under the article's object name. Every
// failure is a soft failure: the error is logged and a zero Result returned,
// so the ingest path can fall back to the original URL and still succeed.
func (m *Mirror) Mirror(ctx context.Context, articleID, rawURL string) Result {
	res, err := m.mirror(ctx, articleID, rawURL)
	if err != nil {
		m.logger.Warn("image mirror failed, keeping original URL",
			zap.String("docId", articleID),
			zap.String("url", rawURL),
			zap.Error(err))
		return Result{}
	}
	return res
}

func (m *Mirror) mirror(ctx context.Context, articleID, rawURL string) (Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{}, fmt.Errorf("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Result{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", m.UserAgent)

	resp, err := m.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return Result{}, fmt.Errorf("not an image: %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Result{}, err
	}

	name := fmt.Sprintf("%s_%d%s", articleID, m.now().UnixMilli(), extensionFor(u, contentType))
	objectPath := path.Join(m.Prefix, name)
	if err := m.Store.PutBytes(ctx, objectPath, body, contentType); err != nil {
		return Result{}, fmt.Errorf("store image: %w", err)
	}

	return Result{
		StoredPath: objectPath,
		PublicURL:  m.Store.PublicURL(objectPath),
	}, nil
}

func extensionFor(u *url.URL, contentType string) string {
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	if i := strings.Index(contentType, ";"); i > -1 {
		contentType = contentType[:i]
	}
	if ext, ok := imageExtMap[strings.ToLower(strings.TrimSpace(contentType))]; ok {
		return ext
	}
	return ".img"
}

var imageExtMap = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}
