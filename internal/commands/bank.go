package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/importer"
	"github.com/microfin-dev/microfin/internal/reconcile"
)

func newBankCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Bank statement items",
	}
	cmd.AddCommand(newBankImportCommand(root), newBankListCommand(root))
	return cmd
}

func newBankImportCommand(root *rootOptions) *cobra.Command {
	var format string
	registry := importer.DefaultRegistry()

	cmd := &cobra.Command{
		Use:   "import [FILE...]",
		Short: "Import bank statement CSVs",
		Long: `Import bank statement items. With no files every CSV in import/ is
imported and moved to import/processed/. Items whose ID is already known
are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if format == "" {
					format = s.cfg.Import.Format
				}
				out := cmd.OutOrStdout()

				type source struct{ name, path string }
				var sources []source
				scanned := len(args) == 0
				if scanned {
					files, err := importer.Scan(s.dir)
					if err != nil {
						return err
					}
					for _, f := range files {
						sources = append(sources, source{f.Name, f.Path})
					}
					if len(sources) == 0 {
						fmt.Fprintln(out, "No files in import/")
						return nil
					}
				}
				for _, a := range args {
					sources = append(sources, source{a, a})
				}

				total := 0
				for _, src := range sources {
					items, err := registry.ParseFile(format, src.path)
					if err != nil {
						return err
					}
					n, err := s.book.ImportBankItems(ctx, items)
					if err != nil {
						return fmt.Errorf("importing %s: %w", src.name, err)
					}
					fmt.Fprintf(out, "%s: %d new of %d items\n", src.name, n, len(items))
					total += n
					if scanned {
						if err := importer.MarkProcessed(s.dir, src.name); err != nil {
							return err
						}
					}
				}
				if total == 0 {
					return nil
				}
				return s.commit(cmd, fmt.Sprintf("bank: import %d items", total))
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "statement format: "+strings.Join(registry.Formats(), ", ")+" (default from config)")
	return cmd
}

func newBankListCommand(root *rootOptions) *cobra.Command {
	var unmatched bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bank statement items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tDATE\tDIRECTION\tAMOUNT\tMATCHED\tDESCRIPTION\t")
				for _, it := range s.book.BankItems() {
					if unmatched && it.Matched {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\t\n",
						it.ID, it.Date.Format(dateLayout), it.Direction, money(it.Amount), it.Matched, it.Description)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&unmatched, "unmatched", false, "only list items not yet matched")
	return cmd
}

func newReconcileCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match posted cash entries against the bank statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				rec, err := s.book.Reconcile(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s: matched %d pairs\n", rec.RunID, len(rec.Pairs))
				for _, p := range rec.Pairs {
					fmt.Fprintf(out, "  %s <-> %s  %s\n", p.EntryID, p.BankItemID, money(p.Amount))
				}
				printStatement(out, rec.Statement)
				if len(rec.Pairs) == 0 {
					return nil
				}
				return s.commit(cmd, "reconcile: "+rec.RunID)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the reconciliation statement without matching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				printStatement(cmd.OutOrStdout(), s.book.Statement())
				return nil
			})
		},
	}
	cmd.AddCommand(status)
	return cmd
}

func printStatement(w io.Writer, st reconcile.Statement) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Book balance\t%s\t\n", money(st.SystemBalance))
	fmt.Fprintf(tw, "  + bank-only receipts\t%s\t\n", money(st.BankOnlyIn))
	fmt.Fprintf(tw, "  - bank-only payments\t%s\t\n", money(st.BankOnlyOut))
	fmt.Fprintf(tw, "Adjusted book balance\t%s\t\n", money(st.AdjustedSystem))
	fmt.Fprintf(tw, "Bank balance\t%s\t\n", money(st.BankBalance))
	fmt.Fprintf(tw, "  + book-only receipts\t%s\t\n", money(st.SystemOnlyIn))
	fmt.Fprintf(tw, "  - book-only payments\t%s\t\n", money(st.SystemOnlyOut))
	fmt.Fprintf(tw, "Adjusted bank balance\t%s\t\n", money(st.AdjustedBank))
	tw.Flush()

	for _, it := range st.UnmatchedBankItems {
		fmt.Fprintf(w, "  unmatched bank item %s %s %s %s\n", it.ID, it.Direction, money(it.Amount), it.Description)
	}
	for _, e := range st.UnmatchedEntries {
		fmt.Fprintf(w, "  unreconciled entry %s %s %s %s\n", e.ID, e.Side, money(e.Amount), e.Description)
	}
	if err := st.Err(); err != nil {
		fmt.Fprintf(w, "WARNING: %v\n", err)
		return
	}
	fmt.Fprintln(w, "Balanced")
}
