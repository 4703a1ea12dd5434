package gittest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/utils/stringutils"
	"github.com/stretchr/testify/require"
)

func CreateFile(
	t *testing.T,
	repo *git.Repo,
	filename string,
	body []byte,
) string {
	fp := filepath.Join(repo.Dir(), filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	err := os.WriteFile(fp, body, 0644)
	require.NoError(t, err, "failed to write file: %s", filename)
	return fp
}

func AddFile(
	t *testing.T,
	repo *git.Repo,
	fp string,
) {
	_, err := repo.Git("add", fp)
	require.NoError(t, err, "failed to add file: %s", fp)
}

func RemoveFile(t *testing.T, repo *git.Repo, filename string) {
	err := os.Remove(filepath.Join(repo.Dir(), filename))
	require.NoError(t, err, "failed to remove file: %s", filename)
}

// IndexContent returns the staged content of filename as git itself sees it.
// ok is false when the file is not in the index.
func IndexContent(t *testing.T, repo *git.Repo, filename string) (content string, ok bool) {
	out, err := repo.Run(&git.RunOpts{Args: []string{"show", ":" + filename}})
	require.NoError(t, err)
	if out.ExitCode != 0 {
		return "", false
	}
	return string(out.Stdout), true
}

// IndexMode returns the mode git records for filename in the index, e.g.
// "100644".
func IndexMode(t *testing.T, repo *git.Repo, filename string) string {
	out, err := repo.Git("ls-files", "--stage", "--", filename)
	require.NoError(t, err)
	if out == "" {
		return ""
	}
	return out[:6]
}

// StagedFiles lists the files that differ between HEAD and the index,
// according to the git CLI.
func StagedFiles(t *testing.T, repo *git.Repo) []string {
	args := []string{"diff", "--cached", "--name-only", "--no-renames"}
	if HeadHash(t, repo) == "" {
		args = []string{"ls-files", "--cached"}
	}
	out, err := repo.Git(args...)
	require.NoError(t, err)
	if out == "" {
		return nil
	}
	return stringutils.SplitLines(out)
}
