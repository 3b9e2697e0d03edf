package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/books"
	"github.com/microfin-dev/microfin/internal/buildinfo"
	"github.com/microfin-dev/microfin/internal/config"
	"github.com/microfin-dev/microfin/internal/gitops"
	"github.com/microfin-dev/microfin/internal/logger"
	"github.com/microfin-dev/microfin/internal/snapshot"
	"github.com/microfin-dev/microfin/internal/store"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dir        string
	configPath string
}

func (o *rootOptions) configFile() string {
	if o.configPath != "" {
		return o.configPath
	}
	return filepath.Join(o.dir, config.FileName)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "microfin",
		Short:   "Double-entry bookkeeping for small businesses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "books directory")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <dir>/"+config.FileName+")")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newCOACommand(opts),
		newVoucherCommand(opts),
		newJournalCommand(opts),
		newPostCommand(opts),
		newLedgerCommand(opts),
		newBankCommand(opts),
		newReconcileCommand(opts),
		newFXCommand(opts),
		newReportCommand(opts),
		newExportCommand(opts),
	)
	rootCmd.AddCommand(newPartyCommands(opts)...)

	return rootCmd
}

// session is one opened set of books.
type session struct {
	dir   string
	cfg   *config.Config
	log   *slog.Logger
	store *store.Store
	book  *books.Book
}

// openSession loads .env files, the config, the store and the books.
func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if envFile := filepath.Join(dir, ".env"); fileExists(envFile) {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(opts.configFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no %s in %s; run microfin init first", config.FileName, dir)
	}
	if err != nil {
		return nil, err
	}
	return openWithConfig(cmd, dir, cfg)
}

func openWithConfig(cmd *cobra.Command, dir string, cfg *config.Config) (*session, error) {
	log := logger.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())

	dbPath := cfg.Database.Path
	if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dir, dbPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	book, err := books.Open(cmd.Context(), books.Options{
		Config: cfg,
		Store:  st,
		Audit:  audit.NewLog(dir, "cli"),
		Logger: log,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Debug("books opened", "dir", dir, "db", dbPath)
	return &session{dir: dir, cfg: cfg, log: log, store: st, book: book}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// commit versions a snapshot of the books when git.auto_commit is set.
func (s *session) commit(cmd *cobra.Command, message string) error {
	if !s.cfg.Git.AutoCommit {
		return nil
	}
	if !gitops.Available() {
		s.log.Warn("git.auto_commit is set but git is not installed")
		return nil
	}
	hash, err := snapshot.Commit(s.dir, s.book, message, gitAuthor(s.cfg))
	if err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	if hash != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Committed snapshot %s\n", hash)
	}
	return nil
}

func gitAuthor(cfg *config.Config) gitops.Author {
	return gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
}

// withSession opens the books, runs fn and closes them again.
func withSession(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), s)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
