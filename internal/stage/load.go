package stage

import (
	"context"
	"sync"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
)

// DeltaView is a delta together with a way to load its patch. The patch is
// built on first use.
type DeltaView struct {
	Delta git.Delta

	load  func() (*git.Patch, error)
	once  sync.Once
	patch *git.Patch
	err   error
}

func (v *DeltaView) Patch() (*git.Patch, error) {
	v.once.Do(func() {
		v.patch, v.err = v.load()
	})
	return v.patch, v.err
}

// Serialize renders the delta in `git diff` format.
func (v *DeltaView) Serialize() (string, error) {
	p, err := v.Patch()
	if err != nil {
		return "", err
	}
	return v.Delta.Serialize(p), nil
}

// LoadStagedDelta returns the staged change of file.
func (b *Builder) LoadStagedDelta(ctx context.Context, file string) (*DeltaView, error) {
	staged, _, err := b.initializedDiffs()
	if err != nil {
		return nil, err
	}
	return b.loadDelta(ctx, staged, file)
}

// LoadUnstagedDelta returns the unstaged change of the tracked file.
func (b *Builder) LoadUnstagedDelta(ctx context.Context, file string) (*DeltaView, error) {
	_, unstaged, err := b.initializedDiffs()
	if err != nil {
		return nil, err
	}
	return b.loadDelta(ctx, unstaged, file)
}

func (b *Builder) loadDelta(ctx context.Context, diff *git.Diff, file string) (*DeltaView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := b.relativePath(file)
	if err != nil {
		return nil, err
	}
	i, delta, ok := diff.FindDelta(rel)
	if !ok {
		return nil, errors.Wrapf(git.ErrNotFound, "%s is not in the %s-to-%s diff", rel, diff.From(), diff.To())
	}
	return &DeltaView{
		Delta: delta,
		load:  func() (*git.Patch, error) { return diff.PatchForDelta(i) },
	}, nil
}

// LoadUntrackedDelta describes the untracked file as a change that adds all
// of its lines. It fails with git.ErrInvalidArgument when file is tracked.
func (b *Builder) LoadUntrackedDelta(ctx context.Context, file string) (*DeltaView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := b.relativePath(file)
	if err != nil {
		return nil, err
	}
	r, err := b.paths.Open()
	if err != nil {
		return nil, err
	}
	idx, err := git.ReadIndex(r)
	if err != nil {
		return nil, err
	}
	if _, tracked := git.IndexEntry(idx, rel); tracked {
		return nil, errors.Wrapf(git.ErrInvalidArgument, "%s is tracked", rel)
	}
	delta, err := git.NewUntrackedDelta(b.paths, rel)
	if err != nil {
		return nil, err
	}
	paths, contextLines := b.paths, b.opts.ContextLines
	return &DeltaView{
		Delta: delta,
		load: func() (*git.Patch, error) {
			r, err := paths.Open()
			if err != nil {
				return nil, err
			}
			return git.LoadPatch(r, paths, delta, git.EndpointWorkdir, contextLines)
		},
	}, nil
}
