package stage

import (
	"context"
	"os"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/utils/sliceutils"
	"github.com/go-git/go-git/v5/plumbing"
)

// StageFile stages the whole of file: its work-tree content, its deletion or
// its mode change. Untracked files are added to the index.
func (b *Builder) StageFile(ctx context.Context, file string) error {
	rel, err := b.relativePath(file)
	if err != nil {
		return err
	}
	b.mutateMu.Lock()
	defer b.mutateMu.Unlock()

	_, unstaged, err := b.initializedDiffs()
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

	log := b.log.WithField("path", rel)
	_, delta, found := unstaged.FindDelta(rel)
	switch {
	case !found:
		if _, err := os.Lstat(b.paths.WorkdirFile(rel)); os.IsNotExist(err) {
			return errors.Wrapf(git.ErrNotFound, "%s has no changes to stage", rel)
		}
		if _, tracked := git.IndexEntry(idx, rel); tracked {
			return errors.Wrapf(git.ErrNotFound, "%s has no changes to stage", rel)
		}
		log.Debug("staging untracked file")
		if _, err := git.AddByPath(r, b.paths, idx, rel); err != nil {
			return err
		}
	case delta.Status == git.DeltaDeleted:
		log.Debug("staging deletion")
		git.RemoveByPath(idx, delta.Old.Path)
	case delta.New.OID.IsZero():
		if _, err := git.AddByPath(r, b.paths, idx, rel); err != nil {
			return err
		}
	case git.HasBlob(r, delta.New.OID):
		// The content is already in the object database; point the index at
		// it without reading the work tree again.
		size, err := git.BlobSize(r, delta.New.OID)
		if err != nil {
			return err
		}
		git.SetEntry(idx, delta.New.Path, delta.New.Mode, delta.New.OID, int(size))
	default:
		content, err := git.ReadWorkdirFile(b.paths, delta.New.Path)
		if err != nil {
			return err
		}
		if hash := plumbing.ComputeHash(plumbing.BlobObject, content); hash != delta.New.OID {
			log.WithField("expected", delta.New.OID).
				WithField("actual", hash).
				Debug("file changed since the last refresh, staging current content")
		}
		if _, err := git.AddFromBuffer(r, idx, delta.New.Path, delta.New.Mode, content); err != nil {
			return err
		}
	}

	if err := git.WriteIndex(r, idx); err != nil {
		return err
	}
	b.refreshDiffs(ctx)
	b.refreshEntries(idx, rel, delta.Old.Path, delta.New.Path)
	log.Debug("staged file")
	return nil
}

// UnstageFile resets the index entry of file to its content in the parent
// commit, or removes it from the index when the parent does not have it. The
// work tree is not touched.
func (b *Builder) UnstageFile(ctx context.Context, file string) error {
	rel, err := b.relativePath(file)
	if err != nil {
		return err
	}
	b.mutateMu.Lock()
	defer b.mutateMu.Unlock()

	staged, _, err := b.initializedDiffs()
	if err != nil {
		return err
	}
	_, delta, found := staged.FindDelta(rel)
	if !found {
		return errors.Wrapf(git.ErrNotFound, "%s has no staged changes", rel)
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
	tree, err := git.LoadTree(r, b.Parent())
	if err != nil {
		return err
	}

	// Both sides of a rename are restored: the old path comes back and the
	// new one goes away.
	for _, p := range uniquePaths(delta.Old.Path, delta.New.Path) {
		if _, err := git.RestoreEntry(r, idx, tree, p); err != nil {
			return err
		}
	}
	if err := git.WriteIndex(r, idx); err != nil {
		return err
	}
	b.refreshDiffs(ctx)
	b.refreshEntries(idx, rel, delta.Old.Path, delta.New.Path)
	b.log.WithField("path", rel).Debug("unstaged file")
	return nil
}

func uniquePaths(paths ...string) []string {
	var res []string
	for _, p := range paths {
		if p != "" {
			res = sliceutils.AppendIfNotContains(res, p)
		}
	}
	return res
}
