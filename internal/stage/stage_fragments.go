package stage

import (
	"bytes"
	"context"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/utils/logutils"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/sirupsen/logrus"
)

// selector builds the line selection for a freshly computed patch.
type selector func(p *git.Patch) func(git.Line) bool

func hunkSelector(hunks []git.Hunk) selector {
	keys := make(map[git.HunkKey]bool, len(hunks))
	for _, h := range hunks {
		keys[h.Key()] = true
	}
	return func(p *git.Patch) func(git.Line) bool {
		lines := make(map[git.LineKey]bool)
		for _, h := range p.Hunks {
			if !keys[h.Key()] {
				continue
			}
			for _, l := range h.Lines {
				lines[l.Key()] = true
			}
		}
		return func(l git.Line) bool { return lines[l.Key()] }
	}
}

func lineSelector(lines []git.Line) selector {
	keys := make(map[git.LineKey]bool, len(lines))
	for _, l := range lines {
		if !l.Origin.IsEOFMarker() {
			keys[l.Key()] = true
		}
	}
	return func(*git.Patch) func(git.Line) bool {
		return func(l git.Line) bool { return keys[l.Key()] }
	}
}

// StageHunks stages the given hunks of the unstaged changes of file. Hunks
// are matched by their ranges against the current diff.
func (b *Builder) StageHunks(ctx context.Context, file string, hunks []git.Hunk) error {
	return b.applyFragments(ctx, file, false, hunkSelector(hunks))
}

// UnstageHunks removes the given hunks of the staged changes of file from the
// index.
func (b *Builder) UnstageHunks(ctx context.Context, file string, hunks []git.Hunk) error {
	return b.applyFragments(ctx, file, true, hunkSelector(hunks))
}

// StageLines stages the given added and deleted lines of the unstaged changes
// of file. Lines are matched by origin and line numbers.
func (b *Builder) StageLines(ctx context.Context, file string, lines []git.Line) error {
	return b.applyFragments(ctx, file, false, lineSelector(lines))
}

func (b *Builder) UnstageLines(ctx context.Context, file string, lines []git.Line) error {
	return b.applyFragments(ctx, file, true, lineSelector(lines))
}

func (b *Builder) applyFragments(ctx context.Context, file string, unstage bool, sel selector) error {
	rel, err := b.relativePath(file)
	if err != nil {
		return err
	}
	b.mutateMu.Lock()
	defer b.mutateMu.Unlock()

	staged, unstaged, err := b.initializedDiffs()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := b.paths.Open()
	if err != nil {
		return err
	}
	idx, err := git.ReadIndex(r)
	if err != nil {
		return err
	}

	// The base the patch applies to.
	var old []byte
	oldExists := false
	untracked := false
	if unstage {
		_, d, ok := staged.FindDelta(rel)
		if !ok {
			return errors.Wrapf(git.ErrNotFound, "%s has no staged changes", rel)
		}
		tree, err := git.LoadTree(r, b.Parent())
		if err != nil {
			return err
		}
		// For a rename the parent has the content under the old path.
		if f, ok := git.FindTreeEntry(tree, d.Old.Path); ok && d.Old.Exists() {
			if old, err = git.ReadBlob(r, f.Hash); err != nil {
				return err
			}
			oldExists = true
		}
	} else if e, ok := git.IndexEntry(idx, rel); ok {
		if old, err = git.ReadBlob(r, e.Hash); err != nil {
			return err
		}
		oldExists = true
	} else {
		// An untracked file is staged against an empty base, so the selection
		// decides which of its lines are introduced.
		untracked = true
	}
	if !unstage && !untracked && !unstaged.ContainsFile(rel) {
		return errors.Wrapf(git.ErrNotFound, "%s has no unstaged changes", rel)
	}

	// Never apply a patch from a stale diff.
	b.refreshDiffs(ctx)
	staged, unstaged = b.Diffs()

	var delta git.Delta
	var patch *git.Patch
	switch {
	case untracked:
		if delta, err = git.NewUntrackedDelta(b.paths, rel); err != nil {
			return err
		}
		if patch, err = git.LoadPatch(r, b.paths, delta, git.EndpointWorkdir, b.opts.ContextLines); err != nil {
			return err
		}
	default:
		diff := unstaged
		if unstage {
			diff = staged
		}
		i, d, ok := diff.FindDelta(rel)
		if !ok {
			return errors.Wrapf(git.ErrNotFound, "%s has nothing left to change", rel)
		}
		delta = d
		if patch, err = diff.PatchForDelta(i); err != nil {
			return err
		}
	}
	if patch.Binary {
		return errors.Wrapf(git.ErrInvalidArgument, "%s is a binary file and can only be staged whole", rel)
	}

	target := delta.New
	mode := delta.New.Mode
	if unstage {
		mode = delta.Old.Mode
	}
	if mode == filemode.Empty {
		mode = delta.Old.Mode
		if unstage {
			mode = delta.New.Mode
		}
	}

	var targetEndsWithNewline bool
	if unstage {
		// The staged content the patch leads to.
		if target.Exists() {
			content, err := git.ReadBlob(r, target.OID)
			if err != nil {
				return err
			}
			targetEndsWithNewline = bytes.HasSuffix(content, []byte("\n"))
		}
	} else {
		content, err := git.ReadWorkdirFile(b.paths, rel)
		if err != nil && !errors.Is(err, git.ErrNotFound) {
			return err
		}
		targetEndsWithNewline = bytes.HasSuffix(content, []byte("\n"))
	}

	content, ok := Reconstruct(Reconstruction{
		Old:                   old,
		OldExists:             oldExists,
		Patch:                 patch,
		Selected:              sel(patch),
		Invert:                unstage,
		TargetEndsWithNewline: targetEndsWithNewline,
	})

	path := delta.Path()
	log := b.log.WithField("path", path).WithField("unstage", unstage)
	if !ok {
		log.Debug("nothing left of the file, removing it from the index")
		git.RemoveByPath(idx, path)
	} else {
		hash, err := git.AddFromBuffer(r, idx, path, mode, content)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"blob":    hash,
			"content": logutils.Format("%.120q", content),
		}).Debug("staged reconstructed content")
	}
	if err := git.WriteIndex(r, idx); err != nil {
		return err
	}
	b.refreshDiffs(ctx)
	b.refreshEntries(idx, rel, delta.Old.Path, delta.New.Path)
	return nil
}
