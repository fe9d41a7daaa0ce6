package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"studentpress/internal/comment"
	"studentpress/internal/fetcher"
)

// errRejected makes a rejected moderate or comment run exit non-zero.
var errRejected = errors.New("content rejected")

func (a *app) commentService() (*comment.Service, error) {
	engine, err := a.engine()
	if err != nil {
		return nil, err
	}
	return comment.NewService(nil, engine, a.log, a.cfg.CommentCacheTTL), nil
}

// readText joins args, or reads standard input when there are none.
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<20))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newModerateCmd(a *app) *cobra.Command {
	var showSanitized bool

	cmd := &cobra.Command{
		Use:   "moderate [text...]",
		Short: "Check text against the comment rules",
		Long: `Moderate sanitizes the text and runs it through the moderation rules.
Without arguments the text is read from standard input.

The command exits non-zero when the text is rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.commentService()
			if err != nil {
				return err
			}

			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			body, verdict := svc.Check(text)
			out := cmd.OutOrStdout()
			if showSanitized {
				fmt.Fprintf(out, "%s\n---\n", body)
			}
			if verdict.Clean {
				fmt.Fprintln(out, "clean")
				return nil
			}
			printRejection(cmd, verdict)
			return errRejected
		},
	}
	cmd.Flags().BoolVar(&showSanitized, "show", false, "print the sanitized text")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "audit <feed-url>",
		Short: "Moderate every entry of an RSS or Atom comment feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.commentService()
			if err != nil {
				return err
			}

			report, err := fetcher.New(http.DefaultClient).Audit(cmd.Context(), args[0], svc)
			if err != nil {
				return fmt.Errorf("audit %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tGUID\tAUTHOR\tREASON")
			for _, item := range report.Items {
				if item.Verdict.Clean {
					if all {
						fmt.Fprintf(tw, "ok\t%s\t%s\t\n", item.GUID, item.Author)
					}
					continue
				}
				fmt.Fprintf(tw, "rejected\t%s\t%s\t%s\n", item.GUID, item.Author, item.Verdict.Reason)
			}
			_ = tw.Flush()
			fmt.Fprintf(out, "%d entries, %d rejected\n", len(report.Items), report.Rejected)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list clean entries too")
	return cmd
}
