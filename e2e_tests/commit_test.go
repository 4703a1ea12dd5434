package e2e_tests

import (
	"testing"

	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/stretchr/testify/require"
)

func TestCommit(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())
	before := gittest.HeadHash(t, repo)

	gittest.CreateFile(t, repo, "one.txt", []byte("one\n"))
	RequireGitstage(t, "stage", "one.txt")
	out := RequireGitstage(t, "commit", "-m", "Add one", "--author", "Jane Doe <jane@example.com>")
	require.Contains(t, out.Stdout, "[main ")
	require.Contains(t, out.Stdout, "] Add one\n")
	require.Contains(t, out.Stdout, "1 file changed, 1 insertion(+), 0 deletions(-)")

	RequireCurrentBranchName(t, repo, "main")
	parent, err := repo.Git("rev-parse", "HEAD^")
	require.NoError(t, err)
	require.Equal(t, before, parent)
	author, err := repo.Git("log", "-1", "--format=%an <%ae>|%s")
	require.NoError(t, err)
	require.Equal(t, "Jane Doe <jane@example.com>|Add one", author)

	out = RequireGitstage(t, "status", "--short")
	require.Empty(t, out.Stdout)
}

func TestCommitNothingStaged(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := Gitstage(t, "commit", "-m", "empty")
	require.Equal(t, 1, out.ExitCode)
	require.Contains(t, out.Stderr, "nothing to commit")
}

func TestCommitWithEditorKeepsDraftOnFailure(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	gittest.CreateFile(t, repo, "one.txt", []byte("one\n"))
	RequireGitstage(t, "stage", "one.txt")

	// The editor keeps the file as is, so the message is empty.
	t.Setenv("GITSTAGE_EDITOR", "true")
	out := Gitstage(t, "commit")
	require.NotEqual(t, 0, out.ExitCode)
	require.Contains(t, out.Stderr, "empty commit message")

	// Signing without a key fails before anything is written.
	t.Setenv("GITSTAGE_EDITOR", "sh -c 'echo from the editor > \"$1\"' --")
	out = Gitstage(t, "commit", "--sign", "--signing-key", "does-not-exist", "--format", "bogus")
	require.NotEqual(t, 0, out.ExitCode)
	require.Contains(t, out.Stderr, "offered by the next")

	// The next commit starts from the saved draft; an editor that keeps the
	// text commits it.
	t.Setenv("GITSTAGE_EDITOR", "true")
	out = RequireGitstage(t, "commit")
	require.Contains(t, out.Stdout, "] from the editor\n")
}
