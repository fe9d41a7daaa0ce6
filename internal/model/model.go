// Package model defines the domain types used across the application.
package model

import "time"

// PostType tags the kind of post a draft or submission belongs to.
type PostType string

// Known post types. Unknown tags are stored and matched as-is.
const (
	PostTypeSMNow   PostType = "SM_NOW"
	PostTypeArticle PostType = "ARTICLE"
	PostTypePoem    PostType = "POEM"
	PostTypeReview  PostType = "REVIEW"
)

// SubmissionStatus is the moderation state of a submission.
type SubmissionStatus string

// Supported submission statuses.
const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusApproved SubmissionStatus = "APPROVED"
	StatusRejected SubmissionStatus = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// User is an author. DraftIDs back-references the drafts the user owns.
type User struct {
	ID        string
	Name      string
	DraftIDs  []string
	CreatedAt time.Time
}

// Draft is an unpublished, author-owned post.
type Draft struct {
	ID        string
	AuthorID  string
	PostType  PostType
	Title     string
	Content   string
	UpdatedAt time.Time
}

// Submission is created from a draft's content at submit time.
type Submission struct {
	ID        string
	AuthorID  string
	PostType  PostType
	Title     string
	Content   string
	Status    SubmissionStatus
	CreatedAt time.Time
}

// Comment is a moderated reader comment attached to a submission.
type Comment struct {
	ID           string
	SubmissionID string
	AuthorID     string
	Body         string
	CreatedAt    time.Time
}
