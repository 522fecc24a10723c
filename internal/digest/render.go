package digest

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
	"unicode"

	"readlater/internal/models"
)

// Sentinel values for articles the renderer cannot fully describe.
const (
	unknownSource   = "Unknown Source"
	placeholderIcon = "data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>📄</text></svg>"
)

// Options selects the digest variant. Email output keeps the CSS limited to
// what mail clients render; the web preview gets the richer styling. Content
// is identical between the two.
type Options struct {
	Timeframe string
	Email     bool
}

type renderedArticle struct {
	Image   string
	Title   string
	URL     string
	Excerpt string
	Domain  string
	// template.URL so the data-URI placeholder survives template sanitization.
	Icon template.URL
	When string
}

type templateData struct {
	Timeframe string
	Email     bool
	FirstDate string
	Articles  []renderedArticle
}

// Render produces a self-contained HTML document for the given articles.
// The input is expected to be sorted already; the renderer preserves its
// order and performs no sorting of its own. Output is deterministic for a
// given input.
func Render(items []models.Article, opts Options, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	timeframe := opts.Timeframe
	if timeframe == "" {
		timeframe = "daily"
	}

	data := templateData{
		Timeframe: capitalize(timeframe),
		Email:     opts.Email,
		Articles:  make([]renderedArticle, 0, len(items)),
	}
	if len(items) > 0 {
		data.FirstDate = formatDate(items[0].TimeAdded, loc)
	}

	for _, a := range items {
		domain, icon := sourceInfo(a.URL)
		ra := renderedArticle{
			Image:   leadImage(a),
			Title:   a.Title,
			URL:     a.URL,
			Excerpt: a.Excerpt,
			Domain:  domain,
			Icon:    template.URL(icon),
			When:    formatDate(a.TimeAdded, loc),
		}
		// A URL bad enough to have no source badge is not worth linking to;
		// the title renders as plain text instead of an anchor the template
		// sanitizer would have neutered anyway.
		if domain == unknownSource {
			ra.URL = ""
		}
		if ra.Title == "" {
			ra.Title = "Untitled"
		}
		if ra.Excerpt == "" {
			ra.Excerpt = "No excerpt available"
		}
		data.Articles = append(data.Articles, ra)
	}

	var b strings.Builder
	if err := digestTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return b.String(), nil
}

// leadImage prefers the mirrored copy over the original remote URL.
func leadImage(a models.Article) string {
	if a.MirroredURL != "" {
		return a.MirroredURL
	}
	return a.TopImage
}

// sourceInfo derives the domain badge from an article URL. A URL the parser
// rejects yields the Unknown Source sentinel and a placeholder icon instead
// of failing the render.
func sourceInfo(rawURL string) (domain, icon string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return unknownSource, placeholderIcon
	}
	domain = strings.TrimPrefix(u.Hostname(), "www.")
	icon = fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=32", domain)
	return domain, icon
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Jan 2, 2006, 3:04 PM")
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Your {{.Timeframe}} Summary</title>
<style>
.summary-container {
  max-width: 600px;
  margin: 0 auto;
  padding: 20px;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
}
.header {
  margin-bottom: 30px;
  padding-bottom: 20px;
  border-bottom: 1px solid #eee;
}
.article {
  margin-bottom: 30px;
  padding-bottom: 20px;
  border-bottom: 1px solid #eee;
}
.article-title {
  color: #1a1a1a;
  font-size: 18px;
  font-weight: 600;
  margin: 0 0 10px 0;
  line-height: 1.4;
}
.article-title a {
  color: #1a1a1a;
  text-decoration: none;
}
.article-excerpt {
  color: #666;
  font-size: 14px;
  line-height: 1.5;
  margin: 0 0 15px 0;
}
.article-meta {
  color: #666;
  font-size: 13px;
}
.source-icon {
  width: 16px;
  height: 16px;
  border-radius: 3px;
  vertical-align: middle;
}
.article-image {
  width: 100%;
  height: 200px;
  object-fit: cover;
  margin-bottom: 15px;
  border-radius: 8px;
}
{{if .Email}}img { max-width: 100%; height: auto; }
{{else}}.summary-container {
  background: white;
  border-radius: 8px;
  box-shadow: 0 2px 8px rgba(0,0,0,0.08);
}
.article-title a:hover {
  color: #0066cc;
  text-decoration: underline;
}
{{end}}</style>
</head>
<body style="margin: 0; padding: 20px 0; background-color: {{if .Email}}#ffffff{{else}}#f8f9fa{{end}};">
<div class="summary-container">
  <div class="header">
    <h1 style="margin: 0; font-size: 24px; color: #1a1a1a;">Your {{.Timeframe}} Summary</h1>
    <p style="margin: 10px 0 0 0; color: #666;">Here are your saved articles from {{.FirstDate}}</p>
  </div>
{{range .Articles}}  <div class="article">
{{if .Image}}    <img src="{{.Image}}" alt="{{.Title}}" class="article-image">
{{end}}    <h2 class="article-title">
      {{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a>{{else}}{{.Title}}{{end}}
    </h2>
    <p class="article-excerpt">{{.Excerpt}}</p>
    <div class="article-meta">
      <span class="article-source"><img class="source-icon" src="{{.Icon}}" alt="{{.Domain}}"> {{.Domain}}</span>
      <span>&bull;</span>
      <span>{{.When}}</span>
    </div>
  </div>
{{end}}</div>
</body>
</html>
`))
