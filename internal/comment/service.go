// Package comment implements the comment creation path: sanitize, moderate,
// and persist only what passes.
package comment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"studentpress/internal/model"
	"studentpress/internal/moderation"
)

// ErrInvalidInput is returned when a comment lacks its submission or author.
var ErrInvalidInput = errors.New("invalid input")

// DefaultCacheTTL is how long a verdict is remembered for a sanitized body.
const DefaultCacheTTL = 10 * time.Minute

// Store persists accepted comments.
type Store interface {
	CreateComment(ctx context.Context, c *model.Comment) error
}

// NewComment is an incoming comment as submitted by a reader.
type NewComment struct {
	SubmissionID string
	AuthorID     string
	Body         string
}

// Service gates comments through the moderation engine.
type Service struct {
	store  Store
	engine *moderation.Engine
	cache  *gocache.Cache
	log    *slog.Logger
}

// NewService creates a Service. store may be nil when only Check is used.
// A ttl of zero disables verdict caching.
func NewService(store Store, engine *moderation.Engine, log *slog.Logger, ttl time.Duration) *Service {
	s := &Service{store: store, engine: engine, log: log}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// Check sanitizes body and returns the sanitized text with its verdict.
func (s *Service) Check(body string) (string, moderation.Verdict) {
	clean := moderation.Sanitize(body)
	if s.cache == nil {
		return clean, s.engine.Moderate(clean)
	}

	key := cacheKey(clean)
	if v, found := s.cache.Get(key); found {
		return clean, v.(moderation.Verdict)
	}
	verdict := s.engine.Moderate(clean)
	s.cache.SetDefault(key, verdict)
	return clean, verdict
}

// Create moderates in and stores it when clean. A rejection is reported
// through the verdict with a nil comment and nil error.
func (s *Service) Create(ctx context.Context, in NewComment) (*model.Comment, moderation.Verdict, error) {
	if in.SubmissionID == "" || in.AuthorID == "" {
		return nil, moderation.Verdict{}, fmt.Errorf("%w: submission and author are required", ErrInvalidInput)
	}

	body, verdict := s.Check(in.Body)
	if !verdict.Clean {
		s.log.Info("comment rejected",
			"submission_id", in.SubmissionID,
			"author_id", in.AuthorID,
			"reason", verdict.Reason,
		)
		return nil, verdict, nil
	}

	c := &model.Comment{
		SubmissionID: in.SubmissionID,
		AuthorID:     in.AuthorID,
		Body:         body,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, verdict, fmt.Errorf("create comment: %w", err)
	}
	s.log.Debug("comment stored", "comment_id", c.ID, "submission_id", c.SubmissionID)
	return c, verdict, nil
}

func cacheKey(body string) string {
	hash := sha256.Sum256([]byte(body))
	return "verdict:v1:" + hex.EncodeToString(hash[:])
}
