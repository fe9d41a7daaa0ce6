package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"studentpress/internal/comment"
	"studentpress/internal/moderation"
)

func newCommentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add or list comments on a submission",
	}
	cmd.AddCommand(newCommentAddCmd(a), newCommentListCmd(a))
	return cmd
}

func newCommentAddCmd(a *app) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "add <submission-id> [text...]",
		Short: "Moderate a comment and store it if clean",
		Long: `Add sanitizes and moderates the comment, then stores it on the
submission. Without text arguments the comment is read from standard input.

The command exits non-zero when the comment is rejected.

Example:
  studentpress comment add 9b2e... --author 6f1c... "Lovely imagery."`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args[1:])
			if err != nil {
				return err
			}
			engine, err := a.engine()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := comment.NewService(store, engine, a.log, a.cfg.CommentCacheTTL)
			c, verdict, err := svc.Create(cmd.Context(), comment.NewComment{
				SubmissionID: args[0],
				AuthorID:     author,
				Body:         text,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !verdict.Clean {
				printRejection(cmd, verdict)
				return errRejected
			}
			fmt.Fprintf(out, "stored %s\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "ID of the commenting user")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newCommentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <submission-id>",
		Short: "List a submission's comments, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			comments, err := store.ListComments(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list comments: %w", err)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAUTHOR\tCREATED\tBODY")
			for _, c := range comments {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.AuthorID, c.CreatedAt.Format(time.RFC3339), c.Body)
			}
			_ = tw.Flush()
			fmt.Fprintf(out, "%d comment(s)\n", len(comments))
			return nil
		},
	}
}

func printRejection(cmd *cobra.Command, v moderation.Verdict) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rejected: %s\n", v.Reason)
	if len(v.FlaggedWords) > 0 {
		fmt.Fprintf(out, "flagged: %s\n", strings.Join(v.FlaggedWords, ", "))
	}
}
