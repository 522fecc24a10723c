package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"readlater/internal/articles"
	"readlater/internal/digest"
	"readlater/internal/ingest"
	"readlater/internal/mirror"
)

const maxBodyBytes = 1 << 20

// ImageMirror copies a lead image into blob storage, soft-failing into a
// zero Result.
type ImageMirror interface {
	Mirror(ctx context.Context, articleID, rawURL string) mirror.Result
}

// PageImageFinder discovers a lead image candidate for a page.
type PageImageFinder interface {
	PageImage(ctx context.Context, pageURL string) (string, error)
}

// DigestRunner triggers and previews the digest.
type DigestRunner interface {
	Send(ctx context.Context) (digest.Result, error)
	Preview(ctx context.Context, timeframe string) (string, error)
}

// BlobRemover deletes a stored object; used for best-effort cleanup on
// article delete.
type BlobRemover interface {
	Remove(ctx context.Context, objectPath string) error
}

type Server struct {
	Repo    articles.Repository
	Mirror  ImageMirror
	Scraper PageImageFinder
	Digest  DigestRunner
	Blob    BlobRemover
	Log     *zap.Logger

	now func() time.Time
}

func NewServer(repo articles.Repository, m ImageMirror, scraper PageImageFinder, d DigestRunner, blob BlobRemover, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Repo:    repo,
		Mirror:  m,
		Scraper: scraper,
		Digest:  d,
		Blob:    blob,
		Log:     log,
		now:     time.Now,
	}
}

// Router builds the gin engine with CORS, request IDs, and all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(s.Log))
	r.Use(CORS())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")
	api.POST("/articles", s.saveArticle)
	api.GET("/articles", s.listArticles)
	api.DELETE("/articles/:id", s.deleteArticle)
	api.GET("/page-image", s.pageImage)
	api.POST("/digest/send", s.sendDigest)
	api.GET("/digest/preview", s.previewDigest)

	return r
}

func (s *Server) saveArticle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	in, err := ingest.Normalize(body)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingURL) || errors.Is(err, ingest.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}

	now := s.now()
	article := ingest.BuildArticle(in, ingest.NewDocID(now), now)

	// Best-effort enrichment: a mirror failure never aborts the save.
	if in.TopImage != "" {
		article.OriginalTopImage = in.TopImage
		if res := s.Mirror.Mirror(c.Request.Context(), article.ID, in.TopImage); res.OK() {
			article.StoredImagePath = res.StoredPath
			article.MirroredURL = res.PublicURL
		}
	}

	if err := s.Repo.Insert(c.Request.Context(), &article); err != nil {
		s.Log.Error("insert failed", zap.String("docId", article.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully saved article",
		"docId":   article.ID,
	})
}

func (s *Server) listArticles(c *gin.Context) {
	items, err := s.Repo.List(c.Request.Context())
	if err != nil {
		s.Log.Error("list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) deleteArticle(c *gin.Context) {
	id := c.Param("id")

	item, err := s.Repo.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, articles.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}

	if err := s.Repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, articles.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}

	if item.StoredImagePath != "" && s.Blob != nil {
		if err := s.Blob.Remove(c.Request.Context(), item.StoredImagePath); err != nil {
			s.Log.Warn("failed to remove mirrored image",
				zap.String("docId", id),
				zap.String("object", item.StoredImagePath),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) pageImage(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
		return
	}

	imageURL, err := s.Scraper.PageImage(c.Request.Context(), pageURL)
	if err != nil {
		s.Log.Warn("page image discovery failed", zap.String("url", pageURL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}

	if imageURL == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}

func (s *Server) sendDigest(c *gin.Context) {
	res, err := s.Digest.Send(c.Request.Context())
	if err != nil {
		s.Log.Error("digest failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}
	if !res.Sent {
		c.JSON(http.StatusOK, gin.H{"message": "No articles found, digest not sent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Digest sent", "count": res.Count})
}

func (s *Server) previewDigest(c *gin.Context) {
	html, err := s.Digest.Preview(c.Request.Context(), c.Query("timeframe"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
