package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"studentpress/internal/reconcile"
)

type reconcileFlags struct {
	apply          bool
	dryRun         bool
	minutes        float64
	earlyTolerance float64
	limit          int
	author         string
	rate           float64
}

func newReconcileCmd(a *app) *cobra.Command {
	f := &reconcileFlags{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Delete drafts that were already submitted",
		Long: `Reconcile pairs each draft with the pending submission made from it:
same author, post type, title and content (case and whitespace folded),
submitted within the window after the draft was last saved.

Each draft and each submission takes part in at most one pair; closer
pairs win. Without --apply the pairs are only listed.

Example:
  studentpress reconcile
  studentpress reconcile --minutes 30 --limit 100 --apply
  studentpress reconcile --author 6f1c... --apply --rate 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, rate, err := f.request(cmd, a)
			if err != nil {
				return err
			}
			return a.runReconcile(cmd, req, rate)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.apply, "apply", false, "delete matched drafts")
	fl.BoolVar(&f.dryRun, "dry-run", false, "only list matched drafts (default)")
	fl.Float64Var(&f.minutes, "minutes", reconcile.DefaultWindowMinutes, "maximum minutes between draft save and submission")
	fl.Float64Var(&f.earlyTolerance, "early-tolerance", reconcile.DefaultEarlyToleranceMinutes, "minutes a submission may precede the draft save")
	fl.IntVar(&f.limit, "limit", 0, "maximum number of drafts to process")
	fl.StringVar(&f.author, "author", "", "only reconcile this author's drafts")
	fl.Float64Var(&f.rate, "rate", 0, "maximum deletions per second (0 for unlimited)")
	cmd.MarkFlagsMutuallyExclusive("apply", "dry-run")

	return cmd
}

// request validates flags and merges them over the configured defaults.
func (f *reconcileFlags) request(cmd *cobra.Command, a *app) (reconcile.Request, float64, error) {
	fl := cmd.Flags()
	req := reconcile.Request{
		Options: reconcile.Options{
			WindowMinutes:         a.cfg.Reconcile.WindowMinutes,
			EarlyToleranceMinutes: a.cfg.Reconcile.EarlyToleranceMinutes,
		},
		AuthorID: f.author,
		Apply:    f.apply,
	}
	rate := a.cfg.Reconcile.Rate

	if fl.Changed("minutes") {
		if !finite(f.minutes) || f.minutes <= 0 {
			return req, 0, fmt.Errorf("--minutes must be a positive number, got %v", f.minutes)
		}
		req.WindowMinutes = f.minutes
	}
	if fl.Changed("early-tolerance") {
		if !finite(f.earlyTolerance) || f.earlyTolerance < 0 {
			return req, 0, fmt.Errorf("--early-tolerance must not be negative, got %v", f.earlyTolerance)
		}
		req.EarlyToleranceMinutes = f.earlyTolerance
	}
	if fl.Changed("limit") {
		if f.limit <= 0 {
			return req, 0, fmt.Errorf("--limit must be a positive integer, got %d", f.limit)
		}
		req.Limit = f.limit
	}
	if fl.Changed("rate") {
		if !finite(f.rate) || f.rate < 0 {
			return req, 0, fmt.Errorf("--rate must not be negative, got %v", f.rate)
		}
		rate = f.rate
	}
	return req, rate, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (a *app) runReconcile(cmd *cobra.Command, req reconcile.Request, rate float64) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	applier := reconcile.NewApplier(store, a.log)
	applier.SetRate(rate)
	runner := reconcile.NewRunner(store, applier, a.log)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := runner.Run(ctx, req)
	return printResult(cmd.OutOrStdout(), res, err)
}

// printResult writes the outcome of a run. A run that failed before
// computing matches prints nothing; an interrupted apply still prints the
// partial report.
func printResult(out io.Writer, res reconcile.Result, err error) error {
	if err != nil && res.Report == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printCandidates(out, res.Matches)
	if res.Report == nil {
		fmt.Fprintf(out, "%d candidate(s) from %d drafts and %d pending submissions (dry run, use --apply to delete)\n",
			len(res.Matches), res.Drafts, res.Submissions)
		return nil
	}

	r := res.Report
	fmt.Fprintf(out, "deleted=%d skipped=%d failed=%d\n", r.Deleted, r.Skipped, r.Failed)
	for _, item := range r.Items {
		if item.Outcome == reconcile.OutcomeFailed {
			fmt.Fprintf(out, "  %s: %v\n", item.Candidate.DraftID, item.Err)
		}
	}
	if err != nil {
		return fmt.Errorf("interrupted after %d of %d candidates: %w", len(r.Items), len(res.Matches), err)
	}
	if r.Failed > 0 {
		return fmt.Errorf("%d deletion(s) failed", r.Failed)
	}
	return nil
}

func printCandidates(out io.Writer, cands []reconcile.Candidate) {
	if len(cands) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DRAFT\tSUBMISSION\tDELTA_MIN\tAUTHOR\tTYPE\tTITLE")
	for _, c := range cands {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n", c.DraftID, c.SubmissionID, c.DeltaMinutes, c.AuthorID, c.PostType, c.Title)
	}
	_ = tw.Flush()
}
