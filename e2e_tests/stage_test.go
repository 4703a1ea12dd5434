package e2e_tests

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/stretchr/testify/require"
)

func TestStageAndUnstageFiles(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	gittest.CreateFile(t, repo, "one.txt", []byte("one\n"))
	gittest.CreateFile(t, repo, "README.md", []byte("# Hello World\nmore\n"))

	out := RequireGitstage(t, "status", "--short")
	require.Equal(t, " M README.md\n?? one.txt\n", out.Stdout)

	RequireGitstage(t, "stage", "one.txt", "README.md")
	out = RequireGitstage(t, "status", "--short")
	require.Equal(t, "M  README.md\nA  one.txt\n", out.Stdout)
	require.ElementsMatch(t, []string{"README.md", "one.txt"}, gittest.StagedFiles(t, repo))

	RequireGitstage(t, "unstage", "README.md")
	out = RequireGitstage(t, "status", "--short")
	require.Equal(t, " M README.md\nA  one.txt\n", out.Stdout)
	RequireIndexContent(t, repo, "README.md", "# Hello World")
}

func TestStageSingleHunk(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	var original []string
	for i := 1; i <= 20; i++ {
		original = append(original, fmt.Sprintf("line %d", i))
	}
	gittest.CommitFile(t, repo, "file.txt", []byte(strings.Join(original, "\n")+"\n"))

	lines := append([]string(nil), original...)
	lines[0] = "first"
	lines[19] = "last"
	gittest.CreateFile(t, repo, "file.txt", []byte(strings.Join(lines, "\n")+"\n"))

	out := RequireGitstage(t, "diff", "file.txt")
	require.Equal(t, 2, strings.Count(out.Stdout, "\n@@ "))

	RequireGitstage(t, "stage", "--hunk", "2", "file.txt")
	staged := append([]string(nil), lines...)
	staged[0] = original[0]
	RequireIndexContent(t, repo, "file.txt", strings.Join(staged, "\n")+"\n")

	out = RequireGitstage(t, "diff", "--staged")
	require.Contains(t, out.Stdout, "+last\n")
	require.NotContains(t, out.Stdout, "+first\n")

	// The staged diff has a single hunk; unstaging it restores HEAD.
	RequireGitstage(t, "unstage", "--hunk", "1", "file.txt")
	RequireIndexContent(t, repo, "file.txt", strings.Join(original, "\n")+"\n")
}

func TestStageLinesOfUntrackedFile(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	gittest.CreateFile(t, repo, "new.txt", []byte("a\nb\nc\n"))

	out := RequireGitstage(t, "diff", "--untracked")
	require.Contains(t, out.Stdout, "new file mode 100644")
	require.Contains(t, out.Stdout, "+b\n")

	RequireGitstage(t, "stage", "--line", "1:2", "new.txt")
	RequireIndexContent(t, repo, "new.txt", "b\n")

	out = RequireGitstage(t, "status", "--short")
	require.Equal(t, "AM new.txt\n", out.Stdout)
}

func TestStageErrors(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := Gitstage(t, "stage", "missing.txt")
	require.NotEqual(t, 0, out.ExitCode)
	require.Contains(t, out.Stderr, "missing.txt")

	gittest.CreateFile(t, repo, "README.md", []byte("changed\n"))
	out = Gitstage(t, "stage", "--hunk", "5", "README.md")
	require.NotEqual(t, 0, out.ExitCode)
	require.Contains(t, out.Stderr, "hunk 5 does not exist")
}
