package git

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// RepositoryPaths identifies a repository by its control directory (usually
// <work tree>/.git) and its work tree. The value is immutable and cheap to
// copy; anything that needs to touch the repository from another goroutine
// opens its own handle from it.
type RepositoryPaths struct {
	ControlDir string
	WorkDir    string
}

// Open returns a fresh go-git handle for the repository.
func (p RepositoryPaths) Open() (*gogit.Repository, error) {
	storage := filesystem.NewStorage(osfs.New(p.ControlDir), cache.NewObjectLRUDefault())
	repo, err := gogit.Open(storage, osfs.New(p.WorkDir))
	if err != nil {
		return nil, WrapVCS(err, "open")
	}
	return repo, nil
}

// WorkdirRelativePath converts file (absolute, or relative to the current
// directory) into a slash-separated path relative to the work tree. The
// boolean is false when file is not inside the work tree.
func (p RepositoryPaths) WorkdirRelativePath(file string) (string, bool) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", false
	}
	if rel, ok := relativeTo(p.WorkDir, abs); ok {
		return rel, true
	}
	// The work tree is stored with symlinks resolved, so retry with the
	// canonical form of the file's directory.
	return relativeTo(p.WorkDir, canonicalPath(abs))
}

// WorkdirFile returns the absolute path of a work-tree-relative path.
func (p RepositoryPaths) WorkdirFile(rel string) string {
	return filepath.Join(p.WorkDir, filepath.FromSlash(rel))
}

func relativeTo(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// canonicalPath resolves symlinks in the longest existing prefix of pth.
func canonicalPath(pth string) string {
	pth = filepath.Clean(pth)
	if resolved, err := filepath.EvalSymlinks(pth); err == nil {
		return resolved
	}
	dir, base := filepath.Split(pth)
	if dir == "" || filepath.Clean(dir) == pth {
		return pth
	}
	return filepath.Join(canonicalPath(filepath.Clean(dir)), base)
}
