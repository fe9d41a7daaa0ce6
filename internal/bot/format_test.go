package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"studentpress/internal/fetcher"
	"studentpress/internal/moderation"
	"studentpress/internal/reconcile"
)

func TestFormatVerdict(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		verdict moderation.Verdict
		want    string
	}{
		{
			name:    "clean echoes body",
			body:    "nice work",
			verdict: moderation.Verdict{Clean: true},
			want:    "Clean.\n\nnice work",
		},
		{
			name:    "rejected by pattern",
			verdict: moderation.Verdict{Reason: "Excessive punctuation."},
			want:    "Rejected: Excessive punctuation.",
		},
		{
			name:    "rejected with flagged words",
			verdict: moderation.Verdict{Reason: moderation.ReasonInappropriate, FlaggedWords: []string{"ass", "crap"}},
			want:    "Rejected: Comment contains inappropriate language\nFlagged: ass, crap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatVerdict(tt.body, tt.verdict)); diff != "" {
				t.Errorf("FormatVerdict mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatMatches(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		want := "No submitted drafts found within 120 min."
		if diff := cmp.Diff(want, FormatMatches(nil, 120)); diff != "" {
			t.Errorf("FormatMatches mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("listed", func(t *testing.T) {
		matches := []reconcile.Candidate{
			{DraftID: "d1", SubmissionID: "s1", DeltaMinutes: 10, AuthorID: "u1", Title: "Foo", PostType: "SM_NOW"},
			{DraftID: "d2", SubmissionID: "s2", DeltaMinutes: -0.5, AuthorID: "u2", Title: "Bar", PostType: "POEM"},
		}
		want := "2 draft(s) already submitted within 2.5 min:\n" +
			"\nd1 -> s1 (+10.0 min)\n   Foo [SM_NOW] by u1\n" +
			"\nd2 -> s2 (-0.5 min)\n   Bar [POEM] by u2\n"
		if diff := cmp.Diff(want, FormatMatches(matches, 2.5)); diff != "" {
			t.Errorf("FormatMatches mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		var matches []reconcile.Candidate
		for i := 0; i < maxListed+5; i++ {
			matches = append(matches, reconcile.Candidate{DraftID: fmt.Sprintf("d%d", i), SubmissionID: fmt.Sprintf("s%d", i)})
		}
		got := FormatMatches(matches, 120)
		if !strings.HasSuffix(got, "... and 5 more\n") {
			t.Errorf("expected truncation note, got:\n%s", got)
		}
		if strings.Contains(got, fmt.Sprintf("d%d ->", maxListed)) {
			t.Errorf("row past the cap was listed")
		}
	})
}

func TestFormatReport(t *testing.T) {
	r := reconcile.Report{
		Deleted: 1,
		Skipped: 1,
		Failed:  1,
		Items: []reconcile.ItemResult{
			{Candidate: reconcile.Candidate{DraftID: "d1"}, Outcome: reconcile.OutcomeDeleted},
			{Candidate: reconcile.Candidate{DraftID: "d2"}, Outcome: reconcile.OutcomeSkipped},
			{Candidate: reconcile.Candidate{DraftID: "d3"}, Outcome: reconcile.OutcomeFailed, Err: errors.New("locked")},
		},
	}
	want := "Deleted 1, skipped 1, failed 1.\nd3: locked"
	if diff := cmp.Diff(want, FormatReport(r)); diff != "" {
		t.Errorf("FormatReport mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatRunSummary(t *testing.T) {
	tests := []struct {
		name string
		res  reconcile.Result
		want string
	}{
		{
			name: "dry run",
			res:  reconcile.Result{Drafts: 4, Submissions: 3, Matches: make([]reconcile.Candidate, 2)},
			want: "[reconcile, dry run]\n4 drafts, 3 pending submissions, 2 matches",
		},
		{
			name: "applied",
			res: reconcile.Result{
				Drafts: 4, Submissions: 3, Matches: make([]reconcile.Candidate, 2),
				Report: &reconcile.Report{Deleted: 2},
			},
			want: "[reconcile, applied]\n4 drafts, 3 pending submissions, 2 matches\nDeleted 2, skipped 0, failed 0.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatRunSummary(tt.res)); diff != "" {
				t.Errorf("FormatRunSummary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatAudit(t *testing.T) {
	r := &fetcher.Report{
		Items: []fetcher.AuditItem{
			{Title: "fine", Verdict: moderation.Verdict{Clean: true}},
			{Title: "Comment on Ode", Author: "Bob", Link: "https://x/1", Verdict: moderation.Verdict{Reason: "Excessive punctuation."}},
		},
		Rejected: 1,
	}
	want := "[feed]\n2 entries, 1 rejected\n\nExcessive punctuation.\n   Comment on Ode by Bob\n   https://x/1"
	if diff := cmp.Diff(want, FormatAudit(r)); diff != "" {
		t.Errorf("FormatAudit mismatch (-want +got):\n%s", diff)
	}
}
