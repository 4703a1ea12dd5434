package stage_test

import (
	"bytes"
	"testing"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/stretchr/testify/require"
)

func selectAll(git.Line) bool  { return true }
func selectNone(git.Line) bool { return false }

func selectOrigin(origin git.LineOrigin) func(git.Line) bool {
	return func(l git.Line) bool { return l.Origin == origin }
}

func TestReconstructAllOrNothing(t *testing.T) {
	for _, tt := range []struct {
		name      string
		old       string
		new       string
		oldExists bool
		context   int
	}{
		{"modified line", "one\ntwo\nthree\n", "one\nTWO\nthree\n", true, 0},
		{"newline added", "a", "a\n", true, 0},
		{"newline removed", "a\n", "a", true, 0},
		{"last line changed without newline", "a\nb", "a\nc", true, 0},
		{"new file", "", "x\ny\n", false, 0},
		{"emptied file", "x\ny\n", "", true, 0},
		{"two hunks", "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n", "0\n1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n", true, 1},
		{"insertion without context", "a\nb\n", "a\nX\nb\n", true, git.NoContext},
		{"insertion at start without context", "b\n", "X\nb\n", true, git.NoContext},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := git.BuildPatch(git.Delta{}, []byte(tt.old), []byte(tt.new), tt.context)
			r := stage.Reconstruction{
				Old:                   []byte(tt.old),
				OldExists:             tt.oldExists,
				Patch:                 p,
				TargetEndsWithNewline: bytes.HasSuffix([]byte(tt.new), []byte("\n")),
			}

			r.Selected = selectAll
			got, ok := stage.Reconstruct(r)
			require.True(t, ok)
			require.Equal(t, tt.new, string(got), "selecting everything yields the new content")

			r.Selected = selectNone
			got, ok = stage.Reconstruct(r)
			require.Equal(t, tt.oldExists, ok)
			require.Equal(t, tt.old, string(got), "selecting nothing yields the old content")

			// Inverted selections are the mirror image.
			r.Invert = true
			got, ok = stage.Reconstruct(r)
			require.True(t, ok)
			require.Equal(t, tt.new, string(got))

			r.Selected = selectAll
			got, ok = stage.Reconstruct(r)
			require.Equal(t, tt.oldExists, ok)
			require.Equal(t, tt.old, string(got))
		})
	}
}

func TestReconstructPartialSelection(t *testing.T) {
	old := []byte("one\ntwo\nthree\n")
	p := git.BuildPatch(git.Delta{}, old, []byte("one\nTWO\nthree\n"), 0)
	r := stage.Reconstruction{Old: old, OldExists: true, Patch: p, TargetEndsWithNewline: true}

	r.Selected = selectOrigin(git.OriginAdded)
	got, ok := stage.Reconstruct(r)
	require.True(t, ok)
	require.Equal(t, "one\ntwo\nTWO\nthree\n", string(got))

	r.Selected = selectOrigin(git.OriginDeleted)
	got, _ = stage.Reconstruct(r)
	require.Equal(t, "one\nthree\n", string(got))

	// Unstaging the deletion keeps the addition in place.
	r.Invert = true
	got, _ = stage.Reconstruct(r)
	require.Equal(t, "one\ntwo\nTWO\nthree\n", string(got))
}

func TestReconstructTrailingNewline(t *testing.T) {
	t.Run("line appended to content without newline", func(t *testing.T) {
		old := []byte("a")
		p := git.BuildPatch(git.Delta{}, old, []byte("a\nb\n"), 0)
		got, ok := stage.Reconstruct(stage.Reconstruction{
			Old: old, OldExists: true, Patch: p, Selected: selectAll, TargetEndsWithNewline: true,
		})
		require.True(t, ok)
		require.Equal(t, "a\nb\n", string(got))

		// Only the new line: the old last line gains the newline it needs to
		// stop being last.
		got, _ = stage.Reconstruct(stage.Reconstruction{
			Old: old, OldExists: true, Patch: p, TargetEndsWithNewline: true,
			Selected: func(l git.Line) bool { return l.Origin == git.OriginAdded && string(l.Content) == "b" },
		})
		require.Equal(t, "a\nb\n", string(got))
	})

	t.Run("final line untouched", func(t *testing.T) {
		old := []byte("1\n2\n3\n4\n5\n6\n7\n8\n")
		p := git.BuildPatch(git.Delta{}, old, []byte("one\n2\n3\n4\n5\n6\n7\n8\n"), 1)
		got, ok := stage.Reconstruct(stage.Reconstruction{
			Old: old, OldExists: true, Patch: p, Selected: selectAll, TargetEndsWithNewline: true,
		})
		require.True(t, ok)
		require.Equal(t, "one\n2\n3\n4\n5\n6\n7\n8\n", string(got))
	})

	t.Run("no patch", func(t *testing.T) {
		got, ok := stage.Reconstruct(stage.Reconstruction{Old: []byte("x\n"), OldExists: true})
		require.True(t, ok)
		require.Equal(t, "x\n", string(got))

		_, ok = stage.Reconstruct(stage.Reconstruction{})
		require.False(t, ok)
	})
}
