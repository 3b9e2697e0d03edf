package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/gitops"
	"github.com/microfin-dev/microfin/internal/snapshot"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	var (
		commit  bool
		message string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write CSV snapshots of the books to exports/",
		Long: `Write the chart of accounts, the journal and the bank statement as CSV
files under exports/. With --git the snapshot and the audit log are
committed to a git repository in the books directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				if !commit {
					paths, err := snapshot.Write(s.dir, s.book)
					if err != nil {
						return err
					}
					for _, p := range paths {
						fmt.Fprintf(out, "Wrote %s\n", p)
					}
					return nil
				}

				if !gitops.Available() {
					return errors.New("git is not installed")
				}
				hash, err := snapshot.Commit(s.dir, s.book, message, gitAuthor(s.cfg))
				if err != nil {
					return err
				}
				if hash == "" {
					fmt.Fprintln(out, "Snapshot unchanged")
					return nil
				}
				fmt.Fprintf(out, "Committed snapshot %s\n", hash)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&commit, "git", false, "commit the snapshot with git")
	cmd.Flags().StringVarP(&message, "message", "m", "snapshot: manual export", "commit message")
	return cmd
}
