package git_test

import (
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/stretchr/testify/require"
)

func TestUntrackedFiles(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	gittest.CommitFile(t, repo, ".gitignore", []byte("*.log\nbuild/\n"))
	gittest.CreateFile(t, repo, "new.txt", []byte("new\n"))
	gittest.CreateFile(t, repo, "deep/er/file.txt", []byte("deep\n"))
	gittest.CreateFile(t, repo, "debug.log", []byte("ignored\n"))
	gittest.CreateFile(t, repo, "build/out.bin", []byte("ignored\n"))
	gittest.CreateFile(t, repo, "README.md", []byte("tracked, modified\n"))
	gittest.AddFile(t, repo, gittest.CreateFile(t, repo, "staged.txt", []byte("staged\n")))

	s := takeSnapshot(t, repo)
	files, truncated, err := git.UntrackedFiles(repo.Paths(), s.idx)
	require.NoError(t, err)
	require.False(t, truncated)
	require.Equal(t, []string{"deep/er/file.txt", "new.txt"}, files)
}

func TestUntrackedFilesTruncated(t *testing.T) {
	git.SetMaxUntrackedFiles(t, 2)
	repo := gittest.NewTempRepo(t)
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		gittest.CreateFile(t, repo, name, []byte(name))
	}

	s := takeSnapshot(t, repo)
	files, truncated, err := git.UntrackedFiles(repo.Paths(), s.idx)
	require.NoError(t, err)
	require.True(t, truncated)
	require.Equal(t, []string{"a.txt", "b.txt"}, files)
}

func TestReadWorkdirFile(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	content, err := git.ReadWorkdirFile(repo.Paths(), "README.md")
	require.NoError(t, err)
	require.Equal(t, "# Hello World", string(content))

	_, err = git.ReadWorkdirFile(repo.Paths(), "nope")
	require.ErrorIs(t, err, git.ErrNotFound)
}
