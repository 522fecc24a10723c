// Package ingest normalizes incoming bookmark payloads into article records.
package ingest

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"readlater/internal/models"
)

var (
	// ErrInvalidPayload marks a body that could not be parsed into an item.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrMissingURL marks an item without the mandatory url field.
	ErrMissingURL = errors.New("missing url")
)

// Incoming is the canonical form of one bookmarked item, whatever shape the
// webhook delivered it in.
type Incoming struct {
	URL      string
	Title    string
	Excerpt  string
	Source   string
	TopImage string
	Tags     []string
}

// rawItem accepts both the Pocket-style field names and the plain ones.
type rawItem struct {
	GivenURL    string   `json:"given_url"`
	URL         string   `json:"url"`
	GivenTitle  string   `json:"given_title"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Source      string   `json:"source"`
	TopImageURL string   `json:"top_image_url"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
}

// Normalize accepts a single JSON object, an array containing one object, or
// a JSON-encoded string of either, and produces one canonical item.
func Normalize(raw []byte) (Incoming, error) {
	return normalize(raw, 0)
}

func normalize(raw []byte, depth int) (Incoming, error) {
	if depth > 2 {
		return Incoming{}, fmt.Errorf("%w: payload nested too deeply", ErrInvalidPayload)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Incoming{}, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return Incoming{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if len(elems) == 0 {
			return Incoming{}, fmt.Errorf("%w: empty array", ErrInvalidPayload)
		}
		return normalize(elems[0], depth+1)
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Incoming{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return normalize([]byte(inner), depth+1)
	}

	var item rawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return Incoming{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	in := Incoming{
		URL:      firstNonEmpty(item.GivenURL, item.URL),
		Title:    firstNonEmpty(item.GivenTitle, item.Title),
		Excerpt:  item.Excerpt,
		Source:   item.Source,
		TopImage: firstNonEmpty(item.TopImageURL, item.ImageURL),
		Tags:     item.Tags,
	}
	if strings.TrimSpace(in.URL) == "" {
		return Incoming{}, ErrMissingURL
	}
	return in, nil
}

// NewDocID generates a collision-resistant document id combining the current
// time and a random suffix. Sufficient uniqueness for single-writer, low
// volume use.
func NewDocID(now time.Time) string {
	return fmt.Sprintf("pocket_%d_%s", now.UnixMilli(), randomSuffix(9))
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(out)
}

// BuildArticle assembles the record to persist. timeAdded is the server's
// clock, authoritative over any client-supplied time field.
func BuildArticle(in Incoming, id string, now time.Time) models.Article {
	return models.Article{
		ID:        id,
		URL:       in.URL,
		Title:     in.Title,
		Excerpt:   in.Excerpt,
		Source:    in.Source,
		TopImage:  in.TopImage,
		TimeAdded: now,
		Status:    models.StatusUnread,
		Tags:      in.Tags,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
