package git

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// render formats hunks as "<origin><content>" lines for easy comparison.
func render(p *Patch) string {
	var sb strings.Builder
	for _, h := range p.Hunks {
		sb.WriteString(h.Header)
		for _, l := range h.Lines {
			if l.Origin.IsEOFMarker() {
				sb.WriteByte(byte(l.Origin))
				sb.WriteString("\n")
				continue
			}
			sb.WriteByte(byte(l.Origin))
			sb.Write(l.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func TestBuildPatch(t *testing.T) {
	for _, tt := range []struct {
		name    string
		old     string
		new     string
		context int
		want    string
	}{
		{
			name: "modified middle line",
			old:  "one\ntwo\nthree\n",
			new:  "one\nTWO\nthree\n",
			want: "@@ -1,3 +1,3 @@\n one\n-two\n+TWO\n three\n",
		},
		{
			name: "identical",
			old:  "one\n",
			new:  "one\n",
			want: "",
		},
		{
			name: "new file",
			old:  "",
			new:  "x\n",
			want: "@@ -0,0 +1 @@\n+x\n",
		},
		{
			name: "deleted file",
			old:  "x\ny\n",
			new:  "",
			want: "@@ -1,2 +0,0 @@\n-x\n-y\n",
		},
		{
			name: "append line",
			old:  "a\n",
			new:  "a\nb\n",
			want: "@@ -1 +1,2 @@\n a\n+b\n",
		},
		{
			name: "missing newline on both sides",
			old:  "a\nb",
			new:  "a\nc",
			want: "@@ -1,2 +1,2 @@\n a\n-b\n<\n+c\n>\n",
		},
		{
			name: "newline added at end of file",
			old:  "a",
			new:  "a\n",
			want: "@@ -1 +1 @@\n-a\n<\n+a\n",
		},
		{
			name:    "zero context insertion",
			old:     "a\nb\n",
			new:     "a\nX\nb\n",
			context: NoContext,
			want:    "@@ -1,0 +2 @@\n+X\n",
		},
		{
			name:    "distant changes are separate hunks",
			old:     "1\n2\n3\n4\n5\n6\n7\n8\n",
			new:     "one\n2\n3\n4\n5\n6\n7\neight\n",
			context: 1,
			want:    "@@ -1,2 +1,2 @@\n-1\n+one\n 2\n@@ -7,2 +7,2 @@\n 7\n-8\n+eight\n",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPatch(Delta{}, []byte(tt.old), []byte(tt.new), tt.context)
			require.False(t, p.Binary)
			require.Equal(t, tt.want, render(p))
		})
	}
}

func TestBuildPatchLineNumbers(t *testing.T) {
	p := BuildPatch(Delta{}, []byte("one\ntwo\nthree\n"), []byte("one\nTWO\nthree\n"), 0)
	require.Len(t, p.Hunks, 1)
	var keys []LineKey
	for _, l := range p.Hunks[0].Lines {
		keys = append(keys, l.Key())
	}
	require.Equal(t, []LineKey{
		{OriginContext, 1, 1},
		{OriginDeleted, 2, -1},
		{OriginAdded, -1, 2},
		{OriginContext, 3, 3},
	}, keys)
	require.Equal(t, HunkKey{1, 3, 1, 3}, p.Hunks[0].Key())

	ins, del := p.Stats()
	require.Equal(t, 1, ins)
	require.Equal(t, 1, del)
}

func TestBuildPatchBinary(t *testing.T) {
	p := BuildPatch(Delta{}, []byte("text\n"), []byte("bin\x00ary"), 0)
	require.True(t, p.Binary)
	require.Empty(t, p.Hunks)
}

func TestSplitLines(t *testing.T) {
	require.Empty(t, splitLines(nil))
	require.Equal(t, []rawLine{{[]byte("a"), true}, {[]byte("b"), false}}, splitLines([]byte("a\nb")))
	require.Equal(t, []rawLine{{[]byte(""), true}, {[]byte("x"), true}}, splitLines([]byte("\nx\n")))
}
