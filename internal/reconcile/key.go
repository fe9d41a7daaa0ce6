package reconcile

import (
	"strings"

	"studentpress/internal/model"
	"studentpress/internal/textnorm"
)

const keySep = "\x1f"

// MatchKey builds the composite identity used to decide that a draft and a
// submission carry the same content. It reports false when the post type,
// title or content is missing or normalises to nothing; such records are
// never matched.
func MatchKey(authorID string, postType model.PostType, title, content string) (string, bool) {
	pt := strings.TrimSpace(string(postType))
	t := textnorm.Fold(title)
	c := textnorm.Fold(content)
	if pt == "" || t == "" || c == "" {
		return "", false
	}
	return strings.Join([]string{strings.TrimSpace(authorID), pt, t, c}, keySep), true
}

// DraftKey returns the MatchKey of d.
func DraftKey(d model.Draft) (string, bool) {
	return MatchKey(d.AuthorID, d.PostType, d.Title, d.Content)
}

// SubmissionKey returns the MatchKey of s.
func SubmissionKey(s model.Submission) (string, bool) {
	return MatchKey(s.AuthorID, s.PostType, s.Title, s.Content)
}
