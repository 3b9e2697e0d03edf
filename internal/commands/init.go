package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/books"
	"github.com/microfin-dev/microfin/internal/config"
)

type initOptions struct {
	name        string
	taxID       string
	legalPerson string
	template    string
	date        string
	demo        bool
}

func newInitCommand(root *rootOptions) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new set of books",
		Long: `Create microfin.yaml, the database and the working directories, then
record the company profile. With --template the opening balances of a
starter profile (service, retail, factory) are booked and posted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				root.dir = args[0]
			}
			return runInit(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "company name (defaults to the template's)")
	cmd.Flags().StringVar(&opts.taxID, "tax-id", "", "tax identification number")
	cmd.Flags().StringVar(&opts.legalPerson, "legal-person", "", "legal representative")
	cmd.Flags().StringVar(&opts.template, "template", "", "opening balance template: service, retail or factory")
	cmd.Flags().StringVar(&opts.date, "date", "", "date of the opening voucher, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "load the March 2024 sample data")

	return cmd
}

func runInit(cmd *cobra.Command, root *rootOptions, opts initOptions) error {
	dir, err := filepath.Abs(root.dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if opts.demo && opts.template != "" {
		return errors.New("--demo and --template cannot be combined")
	}

	var tmpl *accounts.Template
	if opts.template != "" {
		t, err := accounts.LookupTemplate(opts.template)
		if err != nil {
			return err
		}
		tmpl = &t
	}
	var date time.Time
	if opts.date != "" {
		if date, err = parseDate(opts.date); err != nil {
			return err
		}
	}

	for _, d := range []string{"logs", "import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg, err := initConfig(root.configFile(), opts, tmpl)
	if err != nil {
		return err
	}

	gitignore := filepath.Join(dir, ".gitignore")
	if !fileExists(gitignore) {
		if err := os.WriteFile(gitignore, []byte(".microfin/\n.env\nimport/processed/\n"), 0o644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
	}

	s, err := openWithConfig(cmd, dir, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	err = s.book.Initialize(ctx, books.InitOptions{Company: cfg.Company, Template: tmpl, Date: date})
	if err != nil {
		return err
	}
	if opts.demo {
		if err := s.book.LoadDemo(ctx); err != nil {
			return fmt.Errorf("loading demo data: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized books for %s at %s\n", s.book.Company().Name, dir)
	fmt.Fprintf(out, "  %d accounts, %d journal entries\n", len(s.book.Accounts()), len(s.book.Entries()))
	return s.commit(cmd, "init: "+s.book.Company().Name)
}

// initConfig loads an existing config or writes a fresh one.
func initConfig(path string, opts initOptions, tmpl *accounts.Template) (*config.Config, error) {
	if fileExists(path) {
		return config.Load(path)
	}

	name := opts.name
	if name == "" && tmpl != nil {
		name = tmpl.CompanyName
	}
	if name == "" {
		return nil, errors.New("--name is required without --template")
	}
	cfg := config.Default(name)
	cfg.Company.TaxID = opts.taxID
	cfg.Company.LegalPerson = opts.legalPerson
	if tmpl != nil {
		cfg.Company.Scale = tmpl.Scale
		cfg.Company.RegisteredCapital = tmpl.RegisteredCapital
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// parseDate accepts YYYY-MM-DD in UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
