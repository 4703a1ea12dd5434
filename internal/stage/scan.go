package stage

import (
	"context"
	"os"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"golang.org/x/sync/errgroup"
)

type snapshot struct {
	staged    *git.Diff
	unstaged  *git.Diff
	untracked []string
	truncated bool
}

// computeDiffs computes the staged and unstaged diffs (and optionally the
// untracked files) concurrently, each from the same read of the index.
func (b *Builder) computeDiffs(ctx context.Context, withUntracked bool) (*snapshot, error) {
	if err := ctx.Err(); err != nil {
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
	tree, err := git.LoadTree(r, b.Parent())
	if err != nil {
		return nil, err
	}

	opts := git.DiffOptions{ContextLines: b.opts.ContextLines}
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		d, err := git.DiffTreeToIndex(b.paths, tree, idx, opts)
		if err != nil {
			return err
		}
		snap.staged = d
		if b.betweenDiffs != nil {
			b.betweenDiffs()
		}
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		d, err := git.DiffIndexToWorkdir(b.paths, idx, opts)
		if err != nil {
			return err
		}
		snap.unstaged = d
		return nil
	})
	if withUntracked {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files, truncated, err := git.UntrackedFiles(b.paths, idx)
			if err != nil {
				return err
			}
			snap.untracked, snap.truncated = files, truncated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// refreshDiffs recomputes both diffs after an index mutation. A failure keeps
// the previous pair.
func (b *Builder) refreshDiffs(ctx context.Context) {
	snap, err := b.computeDiffs(ctx, false)
	if err != nil {
		b.log.WithError(err).Warn("failed to refresh diffs")
		return
	}
	b.setDiffs(snap.staged, snap.unstaged)
	b.log.WithField("staged", snap.staged.NumDeltas()).
		WithField("unstaged", snap.unstaged.NumDeltas()).
		Debug("refreshed diffs")
}

// scan rebuilds the diffs and all three file lists.
func (b *Builder) scan(ctx context.Context) error {
	snap, err := b.computeDiffs(ctx, true)
	if err != nil {
		return err
	}
	b.setDiffs(snap.staged, snap.unstaged)
	if snap.truncated {
		b.untrackedMu.Lock()
		b.truncated = true
		b.untrackedMu.Unlock()
		b.log.Warnf("more than %d untracked files, only the first ones are listed", git.MaxUntrackedFiles)
	}

	var staged, unstaged, untracked []git.StatusEntry
	for _, e := range git.BuildStatus(snap.staged, snap.unstaged, snap.untracked) {
		if e.Flags.Has(git.IndexChanged) {
			staged = append(staged, e)
		}
		if e.Flags.Has(git.WorktreeChanged) {
			unstaged = append(unstaged, e)
		}
		if e.Flags.Has(git.WorktreeNew) && !e.Flags.Has(git.IndexChanged) {
			untracked = append(untracked, e)
			b.recordUntracked(e.Path)
		}
		// A file added to the index before the builder existed.
		if e.Flags.Has(git.IndexNew) && !e.InParent() {
			b.recordUntracked(e.Path)
		}
	}
	b.staged.replace(staged)
	b.unstaged.replace(unstaged)
	b.untracked.replace(untracked)
	b.updateCanCommit()

	b.log.WithField("staged", len(staged)).
		WithField("unstaged", len(unstaged)).
		WithField("untracked", len(untracked)).
		Debug("scanned work tree")
	return nil
}

// Refresh rescans the repository, picking up changes made outside of the
// builder. Unless the builder was created for an explicit parent, the parent
// follows HEAD.
func (b *Builder) Refresh(ctx context.Context) error {
	b.mutateMu.Lock()
	defer b.mutateMu.Unlock()

	b.metaMu.Lock()
	explicit := b.explicitParent
	b.metaMu.Unlock()
	if !explicit {
		r, err := b.paths.Open()
		if err != nil {
			return err
		}
		head, err := git.HeadCommit(r)
		if err != nil {
			return err
		}
		b.metaMu.Lock()
		b.parent = head
		b.metaMu.Unlock()
	}
	return b.scan(ctx)
}

// refreshEntries brings the file lists in line with the current diffs for the
// given paths. idx is the index as it was written by the mutation.
func (b *Builder) refreshEntries(idx *index.Index, paths ...string) {
	staged, unstaged := b.Diffs()
	seen := make(map[string]bool)
	for _, rel := range paths {
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true

		entry, _ := git.StatusFor(rel, staged, unstaged)
		inStaged := staged.ContainsFile(rel)
		inUnstaged := unstaged.ContainsFile(rel)

		if inStaged {
			b.staged.upsert(entry)
			b.untracked.remove(rel)
		} else {
			b.staged.remove(rel)
		}
		if inUnstaged {
			b.unstaged.upsert(entry)
		} else {
			b.unstaged.remove(rel)
		}
		if inStaged || inUnstaged {
			continue
		}
		// Paths that were untracked when the builder was created go back to
		// the untracked list. Past the cap nothing is known, so the disk
		// decides.
		if (b.wasUntracked(rel) || b.Truncated()) && b.isUntrackedOnDisk(idx, rel) {
			b.untracked.upsert(git.StatusEntry{Path: rel, Flags: git.WorktreeNew})
		} else {
			b.untracked.remove(rel)
		}
	}
	b.updateCanCommit()
}

func (b *Builder) isUntrackedOnDisk(idx *index.Index, rel string) bool {
	if _, tracked := git.IndexEntry(idx, rel); tracked {
		return false
	}
	info, err := os.Lstat(b.paths.WorkdirFile(rel))
	return err == nil && !info.IsDir()
}
