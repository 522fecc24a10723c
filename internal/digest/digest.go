// Package digest assembles and sends the periodic article summary email.
package digest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"readlater/internal/email"
	"readlater/internal/models"
)

// ArticleSource is the slice of the repository the digest needs.
type ArticleSource interface {
	Recent(ctx context.Context, limit int) ([]models.Article, error)
}

// Sender delivers the rendered digest.
type Sender interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

// Result summarizes one digest invocation.
type Result struct {
	Count int
	Sent  bool
}

// Service runs one digest invocation at a time. Each invocation is
// independent: it re-queries the most recent articles regardless of what a
// prior run included, and a send failure is terminal with no retry.
type Service struct {
	Source    ArticleSource
	Sender    Sender
	Limit     int
	Timeframe string
	Subject   string
	To        string
	Location  *time.Location

	logger *zap.Logger
}

func NewService(source ArticleSource, sender Sender, limit int, timeframe, subject, to string, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Source:    source,
		Sender:    sender,
		Limit:     limit,
		Timeframe: timeframe,
		Subject:   subject,
		To:        to,
		Location:  loc,
		logger:    logger,
	}
}

// Send queries the most recent articles, renders the email variant, and
// delivers it. Zero matching articles is not an error: no email is sent.
func (s *Service) Send(ctx context.Context) (Result, error) {
	items, err := s.Source.Recent(ctx, s.Limit)
	if err != nil {
		return Result{}, fmt.Errorf("query articles: %w", err)
	}
	if len(items) == 0 {
		s.logger.Info("no articles found, skipping digest")
		return Result{}, nil
	}

	html, err := Render(items, Options{Timeframe: s.Timeframe, Email: true}, s.Location)
	if err != nil {
		return Result{}, err
	}

	id, err := s.Sender.Send(ctx, email.Message{
		To:      s.To,
		Subject: s.Subject,
		HTML:    html,
	})
	if err != nil {
		return Result{}, fmt.Errorf("send digest: %w", err)
	}

	s.logger.Info("digest sent",
		zap.Int("articles", len(items)),
		zap.String("messageId", id))
	return Result{Count: len(items), Sent: true}, nil
}

// Preview renders the web-styled variant of the same digest without sending.
func (s *Service) Preview(ctx context.Context, timeframe string) (string, error) {
	items, err := s.Source.Recent(ctx, s.Limit)
	if err != nil {
		return "", fmt.Errorf("query articles: %w", err)
	}
	if timeframe == "" {
		timeframe = s.Timeframe
	}
	return Render(items, Options{Timeframe: timeframe, Email: false}, s.Location)
}
