package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"studentpress/internal/model"
	"studentpress/internal/storage"
)

func seedRun(t *testing.T, s *storage.SQLite) {
	t.Helper()
	ctx := context.Background()
	seedDrafts(t, s, "u1", "d1")
	seedDrafts(t, s, "u2", "d2")

	subs := []model.Submission{
		submission("s1", "u1", t0.Add(10*time.Minute)),
		submission("s2", "u2", t0.Add(20*time.Minute)),
	}
	approved := submission("s3", "u1", t0.Add(time.Minute))
	approved.Status = model.StatusApproved
	subs = append(subs, approved)

	for i := range subs {
		if err := s.CreateSubmission(ctx, &subs[i]); err != nil {
			t.Fatalf("create submission: %v", err)
		}
	}
}

func TestRunnerDryRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedRun(t, s)

	r := NewRunner(s, NewApplier(s, discardLog), discardLog)
	res, err := r.Run(ctx, Request{Options: DefaultOptions()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// s3 is approved and must not take part even though it is closest to d1.
	if diff := cmp.Diff([][2]string{{"d1", "s1"}, {"d2", "s2"}}, pairs(res.Matches)); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
	if res.Drafts != 2 || res.Submissions != 2 {
		t.Errorf("snapshot sizes = %d drafts, %d submissions; want 2, 2", res.Drafts, res.Submissions)
	}
	if res.Report != nil {
		t.Error("dry run must not produce an apply report")
	}

	drafts, err := s.FindDrafts(ctx, storage.DraftFilter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(drafts) != 2 {
		t.Errorf("dry run deleted drafts: %d left", len(drafts))
	}
}

func TestRunnerApplyForAuthor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedRun(t, s)

	r := NewRunner(s, NewApplier(s, discardLog), discardLog)
	res, err := r.Run(ctx, Request{Options: DefaultOptions(), AuthorID: "u2", Apply: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([][2]string{{"d2", "s2"}}, pairs(res.Matches)); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
	if res.Report == nil || res.Report.Deleted != 1 {
		t.Fatalf("report = %+v, want one deletion", res.Report)
	}

	drafts, err := s.FindDrafts(ctx, storage.DraftFilter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != "d1" {
		t.Errorf("expected only d1 to remain, got %+v", drafts)
	}
}

func TestRunnerApplyWithoutMatches(t *testing.T) {
	s := newTestStore(t)
	r := NewRunner(s, NewApplier(s, discardLog), discardLog)

	res, err := r.Run(context.Background(), Request{Options: DefaultOptions(), Apply: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Report == nil {
		t.Fatal("apply run should always carry a report")
	}
	if diff := cmp.Diff(Report{}, *res.Report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerApplyCandidatesUsesGivenSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedRun(t, s)

	r := NewRunner(s, NewApplier(s, discardLog), discardLog)
	report, err := r.ApplyCandidates(ctx, []Candidate{{DraftID: "d1", SubmissionID: "s1", AuthorID: "u1"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if report.Deleted != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want one deletion", report)
	}

	drafts, err := s.FindDrafts(ctx, storage.DraftFilter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != "d2" {
		t.Errorf("expected d2 to remain, got %+v", drafts)
	}
}
