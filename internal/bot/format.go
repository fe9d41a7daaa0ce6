package bot

import (
	"fmt"
	"strconv"
	"strings"

	"studentpress/internal/fetcher"
	"studentpress/internal/moderation"
	"studentpress/internal/reconcile"
)

// maxListed caps how many rows a single message lists.
const maxListed = 30

// FormatVerdict formats a moderation verdict for display.
func FormatVerdict(body string, v moderation.Verdict) string {
	if v.Clean {
		return "Clean.\n\n" + body
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Rejected: %s", v.Reason)
	if len(v.FlaggedWords) > 0 {
		fmt.Fprintf(&b, "\nFlagged: %s", strings.Join(v.FlaggedWords, ", "))
	}
	return b.String()
}

// FormatMatches lists reconciliation candidates.
func FormatMatches(matches []reconcile.Candidate, window float64) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No submitted drafts found within %s min.", formatMinutes(window))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d draft(s) already submitted within %s min:\n", len(matches), formatMinutes(window))
	for i, c := range matches {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more\n", len(matches)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n%s -> %s (%+.1f min)\n   %s [%s] by %s\n",
			c.DraftID, c.SubmissionID, c.DeltaMinutes, c.Title, c.PostType, c.AuthorID)
	}
	return b.String()
}

// FormatReport summarises an apply run.
func FormatReport(r reconcile.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deleted %d, skipped %d, failed %d.", r.Deleted, r.Skipped, r.Failed)
	for _, item := range r.Items {
		if item.Outcome == reconcile.OutcomeFailed {
			fmt.Fprintf(&b, "\n%s: %v", item.Candidate.DraftID, item.Err)
		}
	}
	return b.String()
}

// FormatRunSummary formats a scheduled run for the operator chat.
func FormatRunSummary(res reconcile.Result) string {
	var b strings.Builder
	mode := "dry run"
	if res.Report != nil {
		mode = "applied"
	}
	fmt.Fprintf(&b, "[reconcile, %s]\n", mode)
	fmt.Fprintf(&b, "%d drafts, %d pending submissions, %d matches\n", res.Drafts, res.Submissions, len(res.Matches))
	if res.Report != nil {
		b.WriteString(FormatReport(*res.Report))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAudit lists the rejected entries of an audited feed.
func FormatAudit(r *fetcher.Report) string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "feed"
	}
	fmt.Fprintf(&b, "[%s]\n%d entries, %d rejected\n", title, len(r.Items), r.Rejected)
	listed := 0
	for _, item := range r.Items {
		if item.Verdict.Clean {
			continue
		}
		if listed == maxListed {
			b.WriteString("\n...")
			break
		}
		listed++
		fmt.Fprintf(&b, "\n%s\n   %s", item.Verdict.Reason, item.Title)
		if item.Author != "" {
			fmt.Fprintf(&b, " by %s", item.Author)
		}
		if item.Link != "" {
			fmt.Fprintf(&b, "\n   %s", item.Link)
		}
	}
	return b.String()
}

func formatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
