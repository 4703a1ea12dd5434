package git

import (
	"io"
	"os"
	"time"

	"emperror.dev/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ReadIndex loads the repository index. A repository without an index file
// (nothing was ever staged) yields an empty index.
func ReadIndex(repo *gogit.Repository) (*index.Index, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, WrapVCS(err, "read-index")
	}
	return idx, nil
}

// WriteIndex persists idx as the repository index.
func WriteIndex(repo *gogit.Repository, idx *index.Index) error {
	return WrapVCS(repo.Storer.SetIndex(idx), "write-index")
}

// IndexEntry returns the stage-0 entry for path. Conflict stages are not
// considered.
func IndexEntry(idx *index.Index, path string) (*index.Entry, bool) {
	for _, e := range idx.Entries {
		if e.Name == path && e.Stage == stageNormal {
			return e, true
		}
	}
	return nil, false
}

// SetEntry points the index entry for path at an existing blob, replacing any
// entry (including conflict stages) that was there before.
func SetEntry(idx *index.Index, path string, mode filemode.FileMode, hash plumbing.Hash, size int) *index.Entry {
	removeEntries(idx, path)
	e := &index.Entry{
		Name: path,
		Mode: mode,
		Hash: hash,
		Size: uint32(size),
	}
	idx.Entries = append(idx.Entries, e)
	return e
}

// RemoveByPath drops path from the index. It reports whether anything was
// removed.
func RemoveByPath(idx *index.Index, path string) bool {
	return removeEntries(idx, path) > 0
}

func removeEntries(idx *index.Index, path string) int {
	kept := idx.Entries[:0]
	removed := 0
	for _, e := range idx.Entries {
		if e.Name == path {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	idx.Entries = kept
	return removed
}

// AddFromBuffer stores content as a blob and stages it at path with the given
// mode. The work tree is not consulted, so the staged content is exactly
// content even if the file on disk changed in the meantime.
func AddFromBuffer(repo *gogit.Repository, idx *index.Index, path string, mode filemode.FileMode, content []byte) (plumbing.Hash, error) {
	hash, err := WriteBlob(repo, content)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if mode == filemode.Empty || !mode.IsFile() {
		mode = filemode.Regular
	}
	SetEntry(idx, path, mode, hash, len(content))
	return hash, nil
}

// AddByPath reads path from the work tree, stores it as a blob and stages it,
// recording the file's stat information like `git add` does. A missing file is
// ErrNotFound.
func AddByPath(repo *gogit.Repository, paths RepositoryPaths, idx *index.Index, path string) (plumbing.Hash, error) {
	wf, err := readWorkdirFile(paths, path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	hash, err := WriteBlob(repo, wf.Content)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	e := SetEntry(idx, path, wf.Mode, hash, len(wf.Content))
	fillStat(e, wf.Info)
	return hash, nil
}

func fillStat(e *index.Entry, info os.FileInfo) {
	if info == nil {
		return
	}
	e.ModifiedAt = info.ModTime()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Size = uint32(info.Size())
}

// HasBlob reports whether hash names an object in the repository.
func HasBlob(repo *gogit.Repository, hash plumbing.Hash) bool {
	if hash.IsZero() {
		return false
	}
	return repo.Storer.HasEncodedObject(hash) == nil
}

// BlobSize returns the size of the blob hash.
func BlobSize(repo *gogit.Repository, hash plumbing.Hash) (int64, error) {
	size, err := repo.Storer.EncodedObjectSize(hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return 0, errors.Wrapf(ErrNotFound, "blob %s", hash)
	} else if err != nil {
		return 0, WrapVCS(err, "cat-file -s")
	}
	return size, nil
}

// RestoreEntry makes the index entry for path match tree: the tree's blob and
// mode when tree has path, no entry otherwise. It reports whether path exists
// in tree.
func RestoreEntry(repo *gogit.Repository, idx *index.Index, tree *object.Tree, path string) (bool, error) {
	f, ok := FindTreeEntry(tree, path)
	if !ok {
		RemoveByPath(idx, path)
		return false, nil
	}
	size, err := BlobSize(repo, f.Hash)
	if err != nil {
		return true, err
	}
	SetEntry(idx, path, f.Mode, f.Hash, int(size))
	return true, nil
}

// ReadBlob returns the contents of the blob hash. A missing blob is
// ErrNotFound.
func ReadBlob(repo *gogit.Repository, hash plumbing.Hash) ([]byte, error) {
	blob, err := object.GetBlob(repo.Storer, hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "blob %s", hash)
	} else if err != nil {
		return nil, WrapVCS(err, "cat-file")
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, WrapVCS(err, "cat-file")
	}
	defer rd.Close()
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, WrapVCS(err, "cat-file")
	}
	return content, nil
}

// WriteBlob stores content in the object database and returns its id.
func WriteBlob(repo *gogit.Repository, content []byte) (plumbing.Hash, error) {
	obj := repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, WrapVCS(err, "hash-object")
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, WrapVCS(err, "hash-object")
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, WrapVCS(err, "hash-object")
	}
	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, WrapVCS(err, "hash-object")
	}
	return hash, nil
}
