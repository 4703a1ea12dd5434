package git_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/git/gittest"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	repo *gogit.Repository
	tree *object.Tree
	idx  *index.Index
}

func takeSnapshot(t *testing.T, repo *git.Repo) snapshot {
	gr, err := repo.Paths().Open()
	require.NoError(t, err)
	head, err := git.HeadCommit(gr)
	require.NoError(t, err)
	tree, err := git.LoadTree(gr, head)
	require.NoError(t, err)
	idx, err := git.ReadIndex(gr)
	require.NoError(t, err)
	return snapshot{gr, tree, idx}
}

func deltaSummary(d *git.Diff) map[string]git.DeltaStatus {
	res := make(map[string]git.DeltaStatus)
	for _, delta := range d.Deltas() {
		res[delta.Path()] = delta.Status
	}
	return res
}

func TestDiffTreeToIndex(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	gittest.CommitFile(t, repo, "a.txt", []byte("one\ntwo\n"))
	gittest.CommitFile(t, repo, "c.txt", []byte("moved content\n"))

	gittest.AddFile(t, repo, gittest.CreateFile(t, repo, "a.txt", []byte("one\n2\n")))
	gittest.AddFile(t, repo, gittest.CreateFile(t, repo, "b.txt", []byte("brand new\n")))
	_, err := repo.Git("rm", "-q", "README.md")
	require.NoError(t, err)
	_, err = repo.Git("mv", "c.txt", "d.txt")
	require.NoError(t, err)

	s := takeSnapshot(t, repo)
	diff, err := git.DiffTreeToIndex(repo.Paths(), s.tree, s.idx, git.DiffOptions{})
	require.NoError(t, err)
	require.Equal(t, git.EndpointTree, diff.From())
	require.Equal(t, git.EndpointIndex, diff.To())

	require.Equal(t, map[string]git.DeltaStatus{
		"README.md": git.DeltaDeleted,
		"a.txt":     git.DeltaModified,
		"b.txt":     git.DeltaAdded,
		"d.txt":     git.DeltaRenamed,
	}, deltaSummary(diff))

	var paths []string
	for _, d := range diff.Deltas() {
		paths = append(paths, d.Path())
	}
	require.Equal(t, []string{"README.md", "a.txt", "b.txt", "d.txt"}, paths)

	// Renames are found by either side.
	require.True(t, diff.ContainsFile("c.txt"))
	require.True(t, diff.ContainsFile("d.txt"))
	require.False(t, diff.ContainsFile("nope.txt"))
	_, rename, ok := diff.FindDelta("c.txt")
	require.True(t, ok)
	require.Equal(t, "c.txt", rename.Old.Path)
	require.Equal(t, "d.txt", rename.New.Path)

	i, _, ok := diff.FindDelta("a.txt")
	require.True(t, ok)
	p, err := diff.PatchForDelta(i)
	require.NoError(t, err)
	require.Len(t, p.Hunks, 1)
	require.Equal(t, "@@ -1,2 +1,2 @@\n", p.Hunks[0].Header)

	stats, err := diff.Stats()
	require.NoError(t, err)
	require.Equal(t, git.DiffStats{FilesChanged: 4, Insertions: 2, Deletions: 2}, stats)

	_, ok = diff.Delta(diff.NumDeltas())
	require.False(t, ok, "out of range deltas are reported as missing")
}

func TestDiffTreeToIndexEmptyTree(t *testing.T) {
	repo := gittest.NewEmptyRepo(t)
	gittest.AddFile(t, repo, gittest.CreateFile(t, repo, "a.txt", []byte("hello\n")))

	s := takeSnapshot(t, repo)
	require.Nil(t, s.tree)
	diff, err := git.DiffTreeToIndex(repo.Paths(), s.tree, s.idx, git.DiffOptions{})
	require.NoError(t, err)
	require.Equal(t, map[string]git.DeltaStatus{"a.txt": git.DeltaAdded}, deltaSummary(diff))
}

func TestDiffIndexToWorkdir(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	gittest.CommitFile(t, repo, "a.txt", []byte("one\ntwo\n"))
	gittest.CommitFile(t, repo, "run.sh", []byte("#!/bin/sh\n"))
	gittest.CommitFile(t, repo, "gone.txt", []byte("bye\n"))

	gittest.CreateFile(t, repo, "a.txt", []byte("one\nthree\n"))
	require.NoError(t, os.Chmod(filepath.Join(repo.Dir(), "run.sh"), 0755))
	gittest.RemoveFile(t, repo, "gone.txt")
	gittest.CreateFile(t, repo, "untracked.txt", []byte("?\n"))

	s := takeSnapshot(t, repo)
	diff, err := git.DiffIndexToWorkdir(repo.Paths(), s.idx, git.DiffOptions{})
	require.NoError(t, err)
	require.Equal(t, map[string]git.DeltaStatus{
		"a.txt":    git.DeltaModified,
		"gone.txt": git.DeltaDeleted,
		"run.sh":   git.DeltaModified,
	}, deltaSummary(diff))

	_, mode, ok := diff.FindDelta("run.sh")
	require.True(t, ok)
	require.Equal(t, filemode.Regular, mode.Old.Mode)
	require.Equal(t, filemode.Executable, mode.New.Mode)
	require.Equal(t, mode.Old.OID, mode.New.OID)

	i, _, _ := diff.FindDelta("a.txt")
	p, err := diff.PatchForDelta(i)
	require.NoError(t, err)
	require.Len(t, p.Hunks, 1)
	require.Len(t, p.Hunks[0].Lines, 3)
}

func TestDiffIndexToWorkdirClean(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	s := takeSnapshot(t, repo)
	diff, err := git.DiffIndexToWorkdir(repo.Paths(), s.idx, git.DiffOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, diff.NumDeltas())
}
