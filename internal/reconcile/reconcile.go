// Package reconcile pairs drafts with the pending submissions created from
// them and removes the drafts that have become redundant.
package reconcile

import (
	"math"
	"sort"
	"time"

	"studentpress/internal/model"
)

// Default time window, in minutes.
const (
	DefaultWindowMinutes         = 120
	DefaultEarlyToleranceMinutes = 1
)

// Options bound which draft/submission pairs are considered.
type Options struct {
	// WindowMinutes is how long after the draft's last update a submission may be created.
	WindowMinutes float64
	// EarlyToleranceMinutes is how long before the draft's last update a
	// submission may be created, to absorb clock skew.
	EarlyToleranceMinutes float64
	// Limit caps the number of accepted matches. Zero or less means no cap.
	Limit int
}

// DefaultOptions returns a 120 minute window with 1 minute of early tolerance.
func DefaultOptions() Options {
	return Options{
		WindowMinutes:         DefaultWindowMinutes,
		EarlyToleranceMinutes: DefaultEarlyToleranceMinutes,
	}
}

// Candidate is a provisional pairing of a draft and a submission.
type Candidate struct {
	DraftID      string
	SubmissionID string
	DeltaMinutes float64
	AuthorID     string
	Title        string
	PostType     model.PostType
}

// Assigner resolves conflicting candidates into a one-to-one matching.
// Its input is already ranked best first.
type Assigner func(ranked []Candidate) []Candidate

// Match computes the matched draft/submission pairs, best first.
func Match(drafts []model.Draft, submissions []model.Submission, opts Options) []Candidate {
	return MatchWith(Greedy, drafts, submissions, opts)
}

// MatchWith is Match with a custom assignment strategy.
func MatchWith(assign Assigner, drafts []model.Draft, submissions []model.Submission, opts Options) []Candidate {
	cands := Candidates(drafts, submissions, opts)
	Rank(cands)
	matched := assign(cands)
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched
}

// Candidates returns every same-key pair whose time delta falls inside the window.
func Candidates(drafts []model.Draft, submissions []model.Submission, opts Options) []Candidate {
	index := make(map[string][]model.Submission)
	for _, s := range submissions {
		key, ok := SubmissionKey(s)
		if !ok {
			continue
		}
		index[key] = append(index[key], s)
	}

	var out []Candidate
	for _, d := range drafts {
		key, ok := DraftKey(d)
		if !ok {
			continue
		}
		for _, s := range index[key] {
			delta := float64(s.CreatedAt.Sub(d.UpdatedAt)) / float64(time.Minute)
			if delta < -opts.EarlyToleranceMinutes || delta > opts.WindowMinutes {
				continue
			}
			out = append(out, Candidate{
				DraftID:      d.ID,
				SubmissionID: s.ID,
				DeltaMinutes: delta,
				AuthorID:     d.AuthorID,
				Title:        d.Title,
				PostType:     d.PostType,
			})
		}
	}
	return out
}

// Rank orders candidates by absolute time delta, closest first. Ties are
// broken by draft ID and then submission ID so the order never depends on
// input order.
func Rank(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		di, dj := math.Abs(cands[i].DeltaMinutes), math.Abs(cands[j].DeltaMinutes)
		if di != dj {
			return di < dj
		}
		if cands[i].DraftID != cands[j].DraftID {
			return cands[i].DraftID < cands[j].DraftID
		}
		return cands[i].SubmissionID < cands[j].SubmissionID
	})
}

// Greedy walks ranked candidates and keeps each one whose draft and
// submission are both still unclaimed. The result is one-to-one but not
// necessarily a maximum matching.
func Greedy(ranked []Candidate) []Candidate {
	usedDrafts := make(map[string]bool)
	usedSubs := make(map[string]bool)

	var out []Candidate
	for _, c := range ranked {
		if usedDrafts[c.DraftID] || usedSubs[c.SubmissionID] {
			continue
		}
		usedDrafts[c.DraftID] = true
		usedSubs[c.SubmissionID] = true
		out = append(out, c)
	}
	return out
}
