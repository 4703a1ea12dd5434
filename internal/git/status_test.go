package git_test

import (
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/stretchr/testify/require"
)

func TestBuildStatus(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	gittest.CommitFile(t, repo, "both.txt", []byte("1\n"))
	gittest.AddFile(t, repo, gittest.CreateFile(t, repo, "both.txt", []byte("2\n")))
	gittest.CreateFile(t, repo, "both.txt", []byte("3\n"))
	gittest.AddFile(t, repo, gittest.CreateFile(t, repo, "added.txt", []byte("a\n")))
	gittest.CreateFile(t, repo, "README.md", []byte("changed\n"))
	gittest.CreateFile(t, repo, "new.txt", []byte("n\n"))

	s := takeSnapshot(t, repo)
	staged, err := git.DiffTreeToIndex(repo.Paths(), s.tree, s.idx, git.DiffOptions{})
	require.NoError(t, err)
	unstaged, err := git.DiffIndexToWorkdir(repo.Paths(), s.idx, git.DiffOptions{})
	require.NoError(t, err)
	untracked, _, err := git.UntrackedFiles(repo.Paths(), s.idx)
	require.NoError(t, err)

	entries := git.BuildStatus(staged, unstaged, untracked)
	got := make(map[string]string)
	var order []string
	for _, e := range entries {
		got[e.Path] = e.Flags.Short()
		order = append(order, e.Path)
	}
	require.Equal(t, []string{"README.md", "added.txt", "both.txt", "new.txt"}, order)
	require.Equal(t, map[string]string{
		"README.md": " M",
		"added.txt": "A ",
		"both.txt":  "MM",
		"new.txt":   "??",
	}, got)

	for _, e := range entries {
		switch e.Path {
		case "added.txt":
			require.False(t, e.InParent())
		case "both.txt", "README.md":
			require.True(t, e.InParent())
		}
	}

	e, ok := git.StatusFor("both.txt", staged, unstaged)
	require.True(t, ok)
	require.True(t, e.Flags.Has(git.IndexModified))
	require.True(t, e.Flags.Has(git.WorktreeModified))
	require.Equal(t, "index-modified|worktree-modified", e.Flags.String())

	_, ok = git.StatusFor("new.txt", staged, unstaged)
	require.False(t, ok, "untracked files are in neither diff")
}
