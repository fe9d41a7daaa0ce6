package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"studentpress/internal/storage"
)

// Outcome classifies what happened to one candidate during Apply.
type Outcome string

// Possible outcomes.
const (
	OutcomeDeleted Outcome = "deleted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// ItemResult is the outcome for a single candidate.
type ItemResult struct {
	Candidate Candidate
	Outcome   Outcome
	Err       error
}

// Report summarises an Apply run.
type Report struct {
	Deleted int
	Skipped int
	Failed  int
	Items   []ItemResult
}

func (r *Report) add(item ItemResult) {
	switch item.Outcome {
	case OutcomeDeleted:
		r.Deleted++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// Transactor runs a function inside a store transaction.
type Transactor interface {
	RunTransaction(ctx context.Context, fn func(tx storage.Tx) error) error
}

// Applier deletes matched drafts, one transaction per candidate.
type Applier struct {
	store   Transactor
	log     *slog.Logger
	limiter *rate.Limiter
}

// NewApplier creates an Applier with no throttling.
func NewApplier(store Transactor, log *slog.Logger) *Applier {
	return &Applier{store: store, log: log}
}

// SetRate limits Apply to perSecond transactions. Zero or less disables the limit.
func (a *Applier) SetRate(perSecond float64) {
	if perSecond <= 0 {
		a.limiter = nil
		return
	}
	a.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Apply deletes each candidate's draft and removes it from its author's
// draft list. A draft that no longer exists is skipped. A store failure is
// logged and counted, and the batch continues. Cancellation is checked
// between candidates; the returned error is non-nil only when ctx ends the
// run early, in which case the report covers the candidates handled so far.
func (a *Applier) Apply(ctx context.Context, cands []Candidate) (Report, error) {
	var report Report
	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}
		report.add(a.applyOne(ctx, c))
	}
	return report, nil
}

func (a *Applier) applyOne(ctx context.Context, c Candidate) ItemResult {
	skipped := false
	err := a.store.RunTransaction(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDraft(ctx, c.DraftID)
		if errors.Is(err, storage.ErrNotFound) {
			skipped = true
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.DeleteDraft(ctx, d.ID); err != nil {
			return err
		}

		u, err := tx.GetUser(ctx, d.AuthorID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.UpdateUserDraftIDs(ctx, u.ID, storage.RemoveID(u.DraftIDs, d.ID))
	})

	switch {
	case err != nil:
		a.log.Error("delete matched draft",
			"draft_id", c.DraftID,
			"submission_id", c.SubmissionID,
			"error", err,
		)
		return ItemResult{Candidate: c, Outcome: OutcomeFailed, Err: err}
	case skipped:
		a.log.Debug("draft already deleted", "draft_id", c.DraftID, "submission_id", c.SubmissionID)
		return ItemResult{Candidate: c, Outcome: OutcomeSkipped}
	default:
		a.log.Info("deleted matched draft",
			"draft_id", c.DraftID,
			"submission_id", c.SubmissionID,
			"delta_minutes", c.DeltaMinutes,
		)
		return ItemResult{Candidate: c, Outcome: OutcomeDeleted}
	}
}
