package git_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/aviator-co/gitstage/internal/utils/errutils"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func TestHeadCommitUnborn(t *testing.T) {
	repo := gittest.NewEmptyRepo(t)
	s := takeSnapshot(t, repo)
	head, err := git.HeadCommit(s.repo)
	require.NoError(t, err)
	require.Nil(t, head)
}

func TestHeadCommit(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	s := takeSnapshot(t, repo)
	head, err := git.HeadCommit(s.repo)
	require.NoError(t, err)
	require.Equal(t, gittest.HeadHash(t, repo), head.Hash().String())
	require.Equal(t, "Initial commit", head.Subject())
	require.Empty(t, head.ParentHashes())

	resolved, err := git.ResolveCommit(s.repo, "main")
	require.NoError(t, err)
	require.Equal(t, head.Hash(), resolved.Hash())

	_, err = git.ResolveCommit(s.repo, "no-such-branch")
	require.ErrorIs(t, err, git.ErrNotFound)
}

func storeTestCommit(t *testing.T, s snapshot, parents ...plumbing.Hash) *git.Commit {
	tree, err := git.WriteTree(s.repo, s.idx)
	require.NoError(t, err)
	sig := object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)}
	c, err := git.StoreCommit(s.repo, &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      "stored\n",
		TreeHash:     tree,
		ParentHashes: parents,
		PGPSignature: "-----BEGIN SSH SIGNATURE-----\nabc\n-----END SSH SIGNATURE-----",
	})
	require.NoError(t, err)
	return c
}

func TestStoreCommitAndAdvanceHead(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	s := takeSnapshot(t, repo)
	parent, err := git.HeadCommit(s.repo)
	require.NoError(t, err)

	c := storeTestCommit(t, s, parent.Hash())
	require.Contains(t, c.Signature(), "SSH SIGNATURE")
	require.Equal(t, parent.Hash().String(), gittest.HeadHash(t, repo), "storing does not move HEAD")

	require.NoError(t, git.AdvanceHead(s.repo, c.Hash()))
	require.Equal(t, c.Hash().String(), gittest.HeadHash(t, repo))
	branch, err := repo.CurrentBranchName()
	require.NoError(t, err)
	require.Equal(t, "main", branch)

	out, err := repo.Git("cat-file", "-p", "HEAD")
	require.NoError(t, err)
	require.Contains(t, out, "gpgsig -----BEGIN SSH SIGNATURE-----")
}

func TestAdvanceHeadWithoutHead(t *testing.T) {
	repo := gittest.NewEmptyRepo(t)
	s := takeSnapshot(t, repo)
	c := storeTestCommit(t, s)

	require.NoError(t, os.Remove(filepath.Join(repo.GitDir(), "HEAD")))
	require.NoError(t, git.AdvanceHead(s.repo, c.Hash()))

	head, err := os.ReadFile(filepath.Join(repo.GitDir(), "HEAD"))
	require.NoError(t, err)
	require.Equal(t, "ref: refs/heads/main\n", string(head))
	require.Equal(t, c.Hash().String(), gittest.HeadHash(t, repo))
}

func TestAdvanceHeadBranchNotWritable(t *testing.T) {
	repo := gittest.NewEmptyRepo(t)
	s := takeSnapshot(t, repo)
	c := storeTestCommit(t, s)

	// A directory where the branch ref should be makes the update fail.
	require.NoError(t, os.MkdirAll(filepath.Join(repo.GitDir(), "refs", "heads", "main", "x"), 0755))
	err := git.AdvanceHead(s.repo, c.Hash())
	require.Error(t, err)
	_, ok := errutils.As[*git.VCSError](err)
	require.True(t, ok)
}

func TestCommitPayloadExcludesSignature(t *testing.T) {
	c := &object.Commit{
		Author:       object.Signature{Name: "A", Email: "a@example.com", When: time.Unix(0, 0).UTC()},
		Committer:    object.Signature{Name: "A", Email: "a@example.com", When: time.Unix(0, 0).UTC()},
		Message:      "msg\n",
		TreeHash:     plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
		PGPSignature: "sig",
	}
	payload, err := git.CommitPayload(c)
	require.NoError(t, err)
	require.Equal(t,
		"tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n"+
			"author A <a@example.com> 0 +0000\n"+
			"committer A <a@example.com> 0 +0000\n"+
			"\nmsg\n",
		string(payload),
	)
}

func TestCommitSubjectAndBody(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	_, err := repo.Git("commit", "--allow-empty", "-m", "the subject", "-m", "first line\nsecond line")
	require.NoError(t, err)

	s := takeSnapshot(t, repo)
	head, err := git.HeadCommit(s.repo)
	require.NoError(t, err)
	require.Equal(t, "the subject", head.Subject())
	require.Equal(t, "first line\nsecond line", head.Body())
}
