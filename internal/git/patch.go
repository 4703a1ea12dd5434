package git

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// binarySniffLen is how much of a file is inspected for NUL bytes when
// deciding whether it is binary (the same heuristic git uses).
const binarySniffLen = 8000

const noNewlineMarker = "\n\\ No newline at end of file\n"

// Line is a single line of a hunk. For regular lines Content excludes the line
// terminator and HasNewline records whether there was one. EOF marker lines
// carry the "\ No newline at end of file" text and no line numbers.
type Line struct {
	Origin     LineOrigin
	OldLineno  int
	NewLineno  int
	Content    []byte
	HasNewline bool
}

// LineKey identifies a line of a patch. Keys stay valid across diff refreshes
// as long as the underlying contents do not change.
type LineKey struct {
	Origin    LineOrigin
	OldLineno int
	NewLineno int
}

func (l Line) Key() LineKey {
	return LineKey{l.Origin, l.OldLineno, l.NewLineno}
}

// Text returns the line content including its newline, if it has one.
func (l Line) Text() []byte {
	if !l.HasNewline || l.Origin.IsEOFMarker() {
		return l.Content
	}
	return append(append([]byte(nil), l.Content...), '\n')
}

type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Header   string
	Lines    []Line
}

type HunkKey struct {
	OldStart, OldLines, NewStart, NewLines int
}

func (h Hunk) Key() HunkKey {
	return HunkKey{h.OldStart, h.OldLines, h.NewStart, h.NewLines}
}

// Patch is the line-level expansion of a delta. Binary patches have no hunks.
type Patch struct {
	Delta  Delta
	Binary bool
	Hunks  []Hunk
}

// Stats counts added and deleted lines.
func (p *Patch) Stats() (insertions, deletions int) {
	for _, h := range p.Hunks {
		for _, l := range h.Lines {
			switch l.Origin {
			case OriginAdded:
				insertions++
			case OriginDeleted:
				deletions++
			}
		}
	}
	return insertions, deletions
}

// Hunk returns the hunk with the given key.
func (p *Patch) Hunk(key HunkKey) (Hunk, bool) {
	for _, h := range p.Hunks {
		if h.Key() == key {
			return h, true
		}
	}
	return Hunk{}, false
}

type rawLine struct {
	text    []byte
	newline bool
}

// splitLines splits content on '\n'. A trailing newline does not produce an
// empty final line; instead the last line records whether it had one.
func splitLines(content []byte) []rawLine {
	var lines []rawLine
	for len(content) > 0 {
		i := bytes.IndexByte(content, '\n')
		if i < 0 {
			lines = append(lines, rawLine{text: content})
			break
		}
		lines = append(lines, rawLine{text: content[:i], newline: true})
		content = content[i+1:]
	}
	return lines
}

func isBinary(content []byte) bool {
	if len(content) > binarySniffLen {
		content = content[:binarySniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}

// effectiveContext maps a configured context line count to the number of
// lines actually used: zero selects the default and negative values select
// no context at all.
func effectiveContext(n int) int {
	switch {
	case n == 0:
		return DefaultContextLines
	case n < 0:
		return 0
	}
	return n
}

// BuildPatch computes the hunks that turn oldContent into newContent.
func BuildPatch(delta Delta, oldContent, newContent []byte, contextLines int) *Patch {
	p := &Patch{Delta: delta}
	if isBinary(oldContent) || isBinary(newContent) {
		p.Binary = true
		return p
	}

	oldLines, newLines := splitLines(oldContent), splitLines(newContent)
	matcher := difflib.NewMatcherWithJunk(seqStrings(oldLines), seqStrings(newLines), false, nil)
	for _, group := range matcher.GetGroupedOpCodes(effectiveContext(contextLines)) {
		p.Hunks = append(p.Hunks, buildHunk(group, oldLines, newLines))
	}
	return p
}

// seqStrings turns lines into the sequence fed to the matcher. A line without
// a trailing newline compares unequal to the same text with one.
func seqStrings(lines []rawLine) []string {
	seq := make([]string, len(lines))
	for i, l := range lines {
		if l.newline {
			seq[i] = string(l.text) + "\n"
		} else {
			seq[i] = string(l.text)
		}
	}
	return seq
}

func buildHunk(group []difflib.OpCode, oldLines, newLines []rawLine) Hunk {
	first, last := group[0], group[len(group)-1]
	h := Hunk{
		OldStart: first.I1 + 1,
		OldLines: last.I2 - first.I1,
		NewStart: first.J1 + 1,
		NewLines: last.J2 - first.J1,
	}
	if h.OldLines == 0 {
		h.OldStart--
	}
	if h.NewLines == 0 {
		h.NewStart--
	}
	h.Header = fmt.Sprintf("@@ -%s +%s @@\n", hunkRange(h.OldStart, h.OldLines), hunkRange(h.NewStart, h.NewLines))

	emit := func(origin LineOrigin, l rawLine, oldNo, newNo int) {
		h.Lines = append(h.Lines, Line{
			Origin:     origin,
			OldLineno:  oldNo,
			NewLineno:  newNo,
			Content:    l.text,
			HasNewline: l.newline,
		})
		if !l.newline {
			h.Lines = append(h.Lines, Line{
				Origin:    eofMarkerFor(origin),
				OldLineno: -1,
				NewLineno: -1,
				Content:   []byte(noNewlineMarker),
			})
		}
	}
	for _, op := range group {
		switch op.Tag {
		case 'e':
			for i, j := op.I1, op.J1; i < op.I2; i, j = i+1, j+1 {
				emit(OriginContext, oldLines[i], i+1, j+1)
			}
		case 'd', 'r', 'i':
			for i := op.I1; i < op.I2; i++ {
				emit(OriginDeleted, oldLines[i], i+1, -1)
			}
			for j := op.J1; j < op.J2; j++ {
				emit(OriginAdded, newLines[j], -1, j+1)
			}
		}
	}
	return h
}

func hunkRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
