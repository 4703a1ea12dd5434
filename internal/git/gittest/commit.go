package gittest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/stretchr/testify/require"
)

// CommitFile writes the file and commits it with the git CLI.
func CommitFile(t *testing.T, repo *git.Repo, filename string, body []byte) {
	fp := CreateFile(t, repo, filename, body)

	_, err := repo.Git("add", fp)
	require.NoError(t, err, "failed to add file: %s", filename)

	msg := fmt.Sprintf("write file %s", filename)
	_, err = repo.Git("commit", "-m", msg)
	require.NoError(t, err, "failed to commit file: %s", filename)
}

// HeadHash returns the full hash of HEAD, or "" in a repository without
// commits.
func HeadHash(t *testing.T, repo *git.Repo) string {
	out, err := repo.Run(&git.RunOpts{Args: []string{"rev-parse", "--verify", "-q", "HEAD"}})
	require.NoError(t, err)
	if out.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(string(out.Stdout))
}
