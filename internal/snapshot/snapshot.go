// Package snapshot writes plain-CSV copies of the books next to the
// database and, optionally, versions them with git.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/gitops"
	"github.com/microfin-dev/microfin/internal/importer"
	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
)

// Dir is the snapshot directory relative to the books root.
const Dir = "exports"

// Snapshot file names inside Dir.
const (
	ChartFile   = "chart-of-accounts.csv"
	JournalFile = "journal.csv"
	BankFile    = "bank-statement.csv"
)

// auditLog is versioned alongside the snapshots when it exists.
var auditLog = filepath.Join("logs", "audit-log.csv")

// Source is the read side of a set of books.
type Source interface {
	Accounts() []model.Account
	Entries() []model.JournalEntry
	BankItems() []model.BankStatementItem
}

// Write exports src under root/exports and returns the written paths
// relative to root.
func Write(root string, src Source) ([]string, error) {
	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", Dir, err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ChartFile, func(w io.Writer) error { return accounts.WriteAccounts(w, src.Accounts()) }},
		{JournalFile, func(w io.Writer) error { return journal.WriteEntries(w, src.Entries()) }},
		{BankFile, func(w io.Writer) error { return importer.WriteItems(w, src.BankItems()) }},
	}

	var written []string
	for _, f := range files {
		rel := filepath.Join(Dir, f.name)
		if err := writeFile(filepath.Join(root, rel), f.write); err != nil {
			return written, err
		}
		written = append(written, rel)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Commit writes a snapshot and commits it together with the audit log.
// The returned hash is empty when nothing changed since the last commit.
func Commit(root string, src Source, message string, author gitops.Author) (string, error) {
	paths, err := Write(root, src)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(root, auditLog)); err == nil {
		paths = append(paths, auditLog)
	}
	if err := gitops.EnsureRepo(root); err != nil {
		return "", err
	}
	hash, err := gitops.Commit(root, message, author, paths...)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return "", nil
	}
	return hash, err
}
