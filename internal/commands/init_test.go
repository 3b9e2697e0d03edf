package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/commands"
	"github.com/microfin-dev/microfin/internal/config"
)

// runMicrofin executes the CLI in process and returns its combined output.
func runMicrofin(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvLogLevel, "error")

	var out bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// inBooks runs a command against the books in dir.
func inBooks(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runMicrofin(t, append([]string{"--dir", dir}, args...)...)
	require.NoError(t, err, out)
	return out
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runMicrofin(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Initialized books for Test Biz")

	for _, d := range []string{"logs", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	_, err = os.Stat(filepath.Join(dir, ".microfin", "microfin.db"))
	require.NoError(t, err, "database should exist")
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runMicrofin(t, "init", dir, "--name", "My Company", "--tax-id", "91110000123456789X")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "My Company", cfg.Company.Name)
	assert.Equal(t, "91110000123456789X", cfg.Company.TaxID)
	assert.Equal(t, "CNY", cfg.BaseCurrency)
	assert.Equal(t, "generic", cfg.Import.Format)
}

func TestInit_Accounts(t *testing.T) {
	dir := t.TempDir()
	_, err := runMicrofin(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	out := inBooks(t, dir, "coa", "list")
	assert.Contains(t, out, "1002")
	assert.Contains(t, out, "Bank Deposits")
	assert.Contains(t, out, "6061")
}

func TestInit_Template(t *testing.T) {
	dir := t.TempDir()
	out, err := runMicrofin(t, "init", dir, "--template", "service", "--date", "2024-01-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Future Consulting Services Ltd.")

	out = inBooks(t, dir, "journal", "list")
	assert.Contains(t, out, "V2024-01-001a")
	assert.Contains(t, out, "posted")

	out = inBooks(t, dir, "ledger", "trial")
	assert.Contains(t, out, "Balanced")
}

func TestInit_Audited(t *testing.T) {
	dir := t.TempDir()
	_, err := runMicrofin(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	entries, err := audit.Read(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionInitialize, entries[0].Action)
	assert.Equal(t, "cli", entries[0].Actor)
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runMicrofin(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{".microfin/", ".env"} {
		assert.Contains(t, string(data), pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runMicrofin(t, "init", dir)
	require.Error(t, err, "init without --name or --template should fail")
}

func TestInit_Twice(t *testing.T) {
	dir := t.TempDir()
	_, err := runMicrofin(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	_, err = runMicrofin(t, "init", dir, "--name", "Test Biz")
	assert.ErrorContains(t, err, "already initialized")
}

func TestInit_DemoWithTemplate(t *testing.T) {
	_, err := runMicrofin(t, "init", t.TempDir(), "--template", "retail", "--demo")
	assert.ErrorContains(t, err, "cannot be combined")
}

func TestCommands_RequireInit(t *testing.T) {
	_, err := runMicrofin(t, "--dir", t.TempDir(), "coa", "list")
	assert.ErrorContains(t, err, "run microfin init first")
}

func TestVersion(t *testing.T) {
	out, err := runMicrofin(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
