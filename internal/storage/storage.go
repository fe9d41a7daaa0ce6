// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"studentpress/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DraftFilter narrows FindDrafts. Zero values match everything.
type DraftFilter struct {
	AuthorID string
}

// SubmissionFilter narrows FindSubmissions. Zero values match everything.
type SubmissionFilter struct {
	AuthorID string
	Status   model.SubmissionStatus
}

// Tx is the handle passed to RunTransaction. Every call runs inside the
// same transaction, which commits only if the callback returns nil.
type Tx interface {
	GetDraft(ctx context.Context, id string) (*model.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUserDraftIDs(ctx context.Context, userID string, draftIDs []string) error
}

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)

	CreateDraft(ctx context.Context, d *model.Draft) error
	UpdateDraft(ctx context.Context, d *model.Draft) error
	DeleteDraft(ctx context.Context, id string) error
	FindDrafts(ctx context.Context, f DraftFilter) ([]model.Draft, error)

	CreateSubmission(ctx context.Context, s *model.Submission) error
	UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error
	FindSubmissions(ctx context.Context, f SubmissionFilter) ([]model.Submission, error)

	CreateComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, submissionID string) ([]model.Comment, error)

	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// RemoveID returns ids without any occurrence of id. The input is not modified.
func RemoveID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
