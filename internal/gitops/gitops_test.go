package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tester = Author{Name: "Test Author", Email: "test@example.com"}

func requireGit(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, EnsureRepo(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
	require.NoError(t, EnsureRepo(dir))
}

func TestCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "exports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exports", "journal.csv"), []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("not staged"), 0o644))

	hash, err := Commit(dir, "snapshot: V2024-03-001", tester, "exports")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Contains(t, gitOutput(t, dir, "log", "--format=%s", "-1"), "snapshot: V2024-03-001")
	assert.Contains(t, gitOutput(t, dir, "log", "--format=%an <%ae>", "-1"), "Test Author <test@example.com>")
	assert.Contains(t, gitOutput(t, dir, "log", "--format=%cn", "-1"), "Test Author")

	files := gitOutput(t, dir, "ls-files")
	assert.Contains(t, files, "exports/journal.csv")
	assert.NotContains(t, files, "scratch.txt")
}

func TestCommit_NothingChanged(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chart.csv"), []byte("code\n"), 0o644))

	_, err := Commit(dir, "first", tester, "chart.csv")
	require.NoError(t, err)

	_, err = Commit(dir, "second", tester, "chart.csv")
	assert.ErrorIs(t, err, ErrNothingToCommit)

	_, err = Commit(dir, "none", tester)
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestCommit_NotARepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644))

	_, err := Commit(dir, "msg", tester, "a.csv")
	assert.ErrorContains(t, err, "git add")
}
