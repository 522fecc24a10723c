// Package scrape discovers a lead image for a web page.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxPageBytes = 2 << 20

type Scraper struct {
	Client    *http.Client
	UserAgent string
}

func New(client *http.Client, userAgent string) *Scraper {
	return &Scraper{Client: client, UserAgent: userAgent}
}

// PageImage fetches pageURL and returns its best candidate lead image:
// og:image, then twitter:image, then the first <img src>. Relative candidates
// are resolved against the page URL. An empty string means the page has no
// usable image; that is not an error.
func (s *Scraper) PageImage(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", base.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	return Extract(doc, base), nil
}

// Extract pulls the lead image candidate out of a parsed document.
func Extract(doc *goquery.Document, base *url.URL) string {
	selectors := []string{
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	}
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if resolved := resolve(base, content); resolved != "" {
				return resolved
			}
		}
	}

	found := ""
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok {
			return true
		}
		if resolved := resolve(base, src); resolved != "" {
			found = resolved
			return false
		}
		return true
	})
	return found
}

func resolve(base *url.URL, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.HasPrefix(candidate, "data:") {
		return ""
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
