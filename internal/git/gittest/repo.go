package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}

// NewTempRepo initializes a new git repository with reasonable defaults and a
// single commit containing README.md.
func NewTempRepo(t *testing.T) *git.Repo {
	repo := NewEmptyRepo(t)

	err := os.WriteFile(filepath.Join(repo.Dir(), "README.md"), []byte("# Hello World"), 0644)
	require.NoError(t, err, "failed to write README.md")

	_, err = repo.Git("add", "README.md")
	require.NoError(t, err, "failed to stage README.md")

	_, err = repo.Git("commit", "-m", "Initial commit")
	require.NoError(t, err, "failed to create initial commit")

	return repo
}

// NewEmptyRepo initializes a git repository without any commits. The user's
// global and system git configuration is hidden from the repository so that
// tests do not depend on it.
func NewEmptyRepo(t *testing.T) *git.Repo {
	isolateGitConfig(t)

	var dir string
	if os.Getenv("GITSTAGE_TEST_PRESERVE_TEMP_REPO") != "" {
		var err error
		dir, err = os.MkdirTemp("", "repo")
		require.NoError(t, err)
		logrus.Infof("created git test repo: %s", dir)
	} else {
		dir = filepath.Join(t.TempDir(), "local")
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	init := exec.Command("git", "init", "--initial-branch=main")
	init.Dir = dir

	err := init.Run()
	require.NoError(t, err, "failed to initialize git repository")

	repo, err := git.OpenRepo(dir)
	require.NoError(t, err, "failed to open repo")

	settings := map[string]string{
		"user.name":      "gitstage-test",
		"user.email":     "gitstage-test@nonexistant",
		"commit.gpgsign": "false",
	}
	for k, v := range settings {
		_, err = repo.Git("config", k, v)
		require.NoErrorf(t, err, "failed to set config %s=%s", k, v)
	}
	return repo
}

func isolateGitConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}
