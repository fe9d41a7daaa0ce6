package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"studentpress/internal/model"
	"studentpress/internal/storage"
)

// Store is the subset of storage.Storage a reconciliation run needs.
type Store interface {
	Transactor
	FindDrafts(ctx context.Context, f storage.DraftFilter) ([]model.Draft, error)
	FindSubmissions(ctx context.Context, f storage.SubmissionFilter) ([]model.Submission, error)
}

// Request describes one reconciliation run.
type Request struct {
	Options
	// AuthorID restricts the snapshot to one author when set.
	AuthorID string
	// Apply deletes the matched drafts; otherwise the run is a dry run.
	Apply bool
}

// Result is the outcome of a run.
type Result struct {
	Drafts      int
	Submissions int
	Matches     []Candidate
	// Report is nil for dry runs.
	Report *Report
}

// Runner snapshots the store, computes matches and optionally applies them.
type Runner struct {
	store   Store
	applier *Applier
	log     *slog.Logger
}

// NewRunner creates a Runner whose apply phase uses applier.
func NewRunner(store Store, applier *Applier, log *slog.Logger) *Runner {
	return &Runner{store: store, applier: applier, log: log}
}

// Run executes one reconciliation. Each call works from a fresh snapshot.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	drafts, err := r.store.FindDrafts(ctx, storage.DraftFilter{AuthorID: req.AuthorID})
	if err != nil {
		return Result{}, fmt.Errorf("snapshot drafts: %w", err)
	}
	subs, err := r.store.FindSubmissions(ctx, storage.SubmissionFilter{
		AuthorID: req.AuthorID,
		Status:   model.StatusPending,
	})
	if err != nil {
		return Result{}, fmt.Errorf("snapshot submissions: %w", err)
	}

	res := Result{
		Drafts:      len(drafts),
		Submissions: len(subs),
		Matches:     Match(drafts, subs, req.Options),
	}
	r.log.Info("reconcile computed",
		"drafts", res.Drafts,
		"submissions", res.Submissions,
		"matches", len(res.Matches),
		"apply", req.Apply,
	)

	if !req.Apply {
		return res, nil
	}

	report, err := r.ApplyCandidates(ctx, res.Matches)
	res.Report = &report
	return res, err
}

// ApplyCandidates deletes a previously computed set of matches without
// taking a new snapshot. Each draft is re-checked inside its transaction.
func (r *Runner) ApplyCandidates(ctx context.Context, cands []Candidate) (Report, error) {
	report, err := r.applier.Apply(ctx, cands)
	if err != nil {
		return report, fmt.Errorf("apply interrupted: %w", err)
	}
	r.log.Info("reconcile applied",
		"deleted", report.Deleted,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
