package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/posting"
)

func newPostCommand(root *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post every unposted entry as one batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				var progress posting.ProgressFunc
				if !quiet {
					progress = func(stage posting.Stage, percent int) {
						fmt.Fprintf(out, "  [%3d%%] %s\n", percent, stage)
					}
				}
				res, err := s.book.Post(ctx, progress)
				if err != nil {
					return err
				}
				if len(res.Posted) == 0 {
					fmt.Fprintln(out, "Nothing to post")
					return nil
				}
				fmt.Fprintf(out, "Posted %d entries in batch %s\n", len(res.Posted), res.BatchID)
				return s.commit(cmd, "post: "+res.BatchID)
			})
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print stage progress")
	return cmd
}
