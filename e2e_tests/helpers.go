package e2e_tests

import (
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/stretchr/testify/require"
)

func RequireCurrentBranchName(t *testing.T, repo *git.Repo, name string) {
	currentBranch, err := repo.CurrentBranchName()
	require.NoError(t, err, "failed to determine current branch name")
	require.Equal(t, name, currentBranch, "expected current branch to be %q, got %q", name, currentBranch)
}

// RequireIndexContent checks what git itself has staged for filename.
func RequireIndexContent(t *testing.T, repo *git.Repo, filename, content string) {
	t.Helper()
	out, err := repo.Run(&git.RunOpts{Args: []string{"show", ":" + filename}, ExitError: true})
	require.NoError(t, err)
	require.Equal(t, content, string(out.Stdout), "unexpected staged content of %s", filename)
}
