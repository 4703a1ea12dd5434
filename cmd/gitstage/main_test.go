package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/require"
)

func TestParseAuthor(t *testing.T) {
	name, email, err := parseAuthor("Jane Doe <jane@example.com>")
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", name)
	require.Equal(t, "jane@example.com", email)

	for _, bad := range []string{"Jane Doe", "<jane@example.com>", "Jane <>", "Jane <jane@example.com"} {
		_, _, err := parseAuthor(bad)
		require.Error(t, err, bad)
	}
}

func testPatch(t *testing.T) *git.Patch {
	var old, new strings.Builder
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&old, "line %d\n", i)
		switch i {
		case 2:
			new.WriteString("changed 2\n")
		case 18:
			new.WriteString("changed 18\n")
		default:
			fmt.Fprintf(&new, "line %d\n", i)
		}
	}
	delta := git.Delta{
		Status: git.DeltaModified,
		Old:    git.DiffFile{Path: "a.txt", Mode: filemode.Regular},
		New:    git.DiffFile{Path: "a.txt", Mode: filemode.Regular},
	}
	p := git.BuildPatch(delta, []byte(old.String()), []byte(new.String()), 3)
	require.Len(t, p.Hunks, 2)
	return p
}

func TestSelectHunks(t *testing.T) {
	p := testPatch(t)

	hunks, err := selectHunks(p, []int{2})
	require.NoError(t, err)
	require.Equal(t, []git.Hunk{p.Hunks[1]}, hunks)

	_, err = selectHunks(p, []int{3})
	require.ErrorContains(t, err, "hunk 3 does not exist")
	_, err = selectHunks(p, []int{0})
	require.Error(t, err)
}

func TestSelectLines(t *testing.T) {
	p := testPatch(t)

	// Hunk 1 is " line 1", "-line 2", "+changed 2", " line 3", ...
	lines, err := selectLines(p, []string{"1:3"})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, git.OriginAdded, lines[0].Origin)
	require.Equal(t, "changed 2", string(lines[0].Content))

	// Context lines inside a range are skipped.
	lines, err = selectLines(p, []string{"1:1-4"})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	_, err = selectLines(p, []string{"1:1"})
	require.ErrorContains(t, err, "no changes")
	_, err = selectLines(p, []string{"1:99"})
	require.ErrorContains(t, err, "out of range")
	_, err = selectLines(p, []string{"1"})
	require.ErrorContains(t, err, "invalid line selector")
	_, err = selectLines(p, []string{"1:x"})
	require.Error(t, err)
}

func TestParseRange(t *testing.T) {
	first, last, err := parseRange("4")
	require.NoError(t, err)
	require.Equal(t, [2]int{4, 4}, [2]int{first, last})

	first, last, err = parseRange("2-5")
	require.NoError(t, err)
	require.Equal(t, [2]int{2, 5}, [2]int{first, last})

	_, _, err = parseRange("a-5")
	require.Error(t, err)
}

func TestContextLines(t *testing.T) {
	require.Equal(t, git.NoContext, contextLines(0))
	require.Equal(t, 5, contextLines(5))
}
