package stage

import (
	"bytes"

	"github.com/aviator-co/gitstage/internal/git"
)

// Reconstruction describes content to be synthesized from a base and a subset
// of the lines of a patch that was computed against that base.
type Reconstruction struct {
	// Old is the base content the patch applies to.
	Old []byte
	// OldExists is false when there is no base at all (as opposed to an empty
	// file).
	OldExists bool
	Patch     *git.Patch
	// Selected reports whether the caller picked a line.
	Selected func(git.Line) bool
	// Invert applies exactly the lines that are not selected. Unstaging uses
	// this to remove the effect of the selected lines from the staged version.
	Invert bool
	// TargetEndsWithNewline is whether the content the patch leads to ends with
	// a newline.
	TargetEndsWithNewline bool
}

type segment struct {
	text    []byte
	newline bool
	added   bool
}

type baseLines struct {
	lines [][]byte
	// endsWithNewline is true when the content ended in '\n', which splitting
	// turns into a trailing empty element that is not itself a line.
	endsWithNewline bool
}

func splitBase(content []byte) baseLines {
	if len(content) == 0 {
		return baseLines{}
	}
	lines := bytes.Split(content, []byte("\n"))
	b := baseLines{lines: lines}
	if len(lines[len(lines)-1]) == 0 {
		b.lines = lines[:len(lines)-1]
		b.endsWithNewline = true
	}
	return b
}

func (b baseLines) segment(lineno int) segment {
	return segment{
		text:    b.lines[lineno-1],
		newline: lineno < len(b.lines) || b.endsWithNewline,
	}
}

// Reconstruct applies the applicable lines of the patch to the base. The
// boolean is false when the result is "no file": there was no base and no
// added line was applied.
func Reconstruct(r Reconstruction) ([]byte, bool) {
	base := splitBase(r.Old)
	apply := func(l git.Line) bool {
		selected := r.Selected != nil && r.Selected(l)
		return selected != r.Invert
	}

	var segs []segment
	next := 1
	copyThrough := func(last int) {
		for ; next <= last && next <= len(base.lines); next++ {
			segs = append(segs, base.segment(next))
		}
	}

	appliedAdd := false
	if r.Patch != nil {
		for _, h := range r.Patch.Hunks {
			if h.OldLines == 0 {
				// Pure insertion after line OldStart.
				copyThrough(h.OldStart)
			} else {
				copyThrough(h.OldStart - 1)
			}
			for _, l := range h.Lines {
				switch l.Origin {
				case git.OriginContext:
					copyThrough(next)
				case git.OriginAdded:
					if apply(l) {
						segs = append(segs, segment{text: l.Content, newline: l.HasNewline, added: true})
						appliedAdd = true
					}
				case git.OriginDeleted:
					if apply(l) {
						next++
					} else {
						copyThrough(next)
					}
				}
			}
		}
	}
	copyThrough(len(base.lines))

	if !r.OldExists && !appliedAdd {
		return nil, false
	}

	var out bytes.Buffer
	for i, s := range segs {
		out.Write(s.text)
		last := i == len(segs)-1
		if !last || s.newline || (s.added && r.TargetEndsWithNewline) {
			out.WriteByte('\n')
		}
	}
	return out.Bytes(), true
}
