package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestInit(t *testing.T) {
	gitAvailable(t)

	dir := t.TempDir()
	require.NoError(t, Init(dir, "WealthTrack", "tracker@wealthtrack.dev"))

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	gitAvailable(t)

	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir, "WealthTrack", "tracker@wealthtrack.dev"))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestHasChanges(t *testing.T) {
	gitAvailable(t)

	dir := t.TempDir()
	require.NoError(t, Init(dir, "WealthTrack", "tracker@wealthtrack.dev"))

	changed, err := HasChanges(dir)
	require.NoError(t, err)
	assert.False(t, changed, "fresh repo has nothing to commit")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "holdings.csv"), []byte("symbol,shares\n"), 0o644))

	changed, err = HasChanges(dir)
	require.NoError(t, err)
	assert.True(t, changed, "untracked file counts as a change")

	_, err = CommitAll(dir, "import: initial", "WealthTrack", "tracker@wealthtrack.dev")
	require.NoError(t, err)

	changed, err = HasChanges(dir)
	require.NoError(t, err)
	assert.False(t, changed, "tree is clean again after the commit")
}

func TestCommitAll(t *testing.T) {
	gitAvailable(t)

	dir := t.TempDir()
	require.NoError(t, Init(dir, "WealthTrack", "tracker@wealthtrack.dev"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "holdings.csv"), []byte("symbol,shares\n"), 0o644))

	hash, err := CommitAll(dir, "import: 3 positions from sofi.csv", "WealthTrack", "tracker@wealthtrack.dev")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "import: 3 positions from sofi.csv")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "WealthTrack <tracker@wealthtrack.dev>")
}
