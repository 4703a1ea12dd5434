package git

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxUntrackedFiles bounds the number of untracked files that are enumerated
// for a single scan.
const MaxUntrackedFiles = 25000

var maxUntrackedFiles = MaxUntrackedFiles

type workdirFile struct {
	Content []byte
	Mode    filemode.FileMode
	Info    os.FileInfo
}

// readWorkdirFile reads a work-tree file the way git would store it: symlinks
// are stored as their target, regular files as their bytes.
func readWorkdirFile(paths RepositoryPaths, rel string) (*workdirFile, error) {
	abs := paths.WorkdirFile(rel)
	info, err := os.Lstat(abs)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s does not exist in the work tree", rel)
	} else if err != nil {
		return nil, errors.WrapIff(err, "failed to stat %q", rel)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s is a directory", rel)
	}
	mode, err := filemode.NewFromOSFileMode(info.Mode())
	if err != nil {
		return nil, errors.WrapIff(err, "unsupported file mode for %q", rel)
	}

	var content []byte
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(abs)
		if err != nil {
			return nil, errors.WrapIff(err, "failed to read link %q", rel)
		}
		content = []byte(target)
	} else {
		content, err = os.ReadFile(abs)
		if err != nil {
			return nil, errors.WrapIff(err, "failed to read %q", rel)
		}
	}
	return &workdirFile{Content: content, Mode: mode, Info: info}, nil
}

// ReadWorkdirFile returns the content of a work-tree file as it would be
// staged.
func ReadWorkdirFile(paths RepositoryPaths, rel string) ([]byte, error) {
	wf, err := readWorkdirFile(paths, rel)
	if err != nil {
		return nil, err
	}
	return wf.Content, nil
}

type workdirStatKey struct {
	path    string
	modTime time.Time
	size    int64
	mode    os.FileMode
}

type workdirStat struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// Hashing every tracked file on every refresh is the dominant cost of an
// index-to-workdir diff, so results are cached by stat information.
var workdirHashes, _ = lru.New[workdirStatKey, workdirStat](8192)

// racyWindow is how old a modification time must be before its stat
// information is trusted. File systems with coarse timestamps can otherwise
// hide a same-size rewrite.
const racyWindow = 2 * time.Second

// workdirBlobHash returns the blob id and mode a work-tree file would have if
// it were staged now. exists is false when nothing that can be staged lives at
// rel (missing, or a directory).
func workdirBlobHash(paths RepositoryPaths, rel string) (stat workdirStat, exists bool, err error) {
	abs := paths.WorkdirFile(rel)
	info, err := os.Lstat(abs)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return workdirStat{}, false, nil
	}
	if err != nil {
		return workdirStat{}, false, errors.WrapIff(err, "failed to stat %q", rel)
	}
	key := workdirStatKey{abs, info.ModTime(), info.Size(), info.Mode()}
	if cached, ok := workdirHashes.Get(key); ok {
		return cached, true, nil
	}
	wf, err := readWorkdirFile(paths, rel)
	if errors.Is(err, ErrNotFound) {
		return workdirStat{}, false, nil
	} else if err != nil {
		return workdirStat{}, false, err
	}
	stat = workdirStat{
		hash: plumbing.ComputeHash(plumbing.BlobObject, wf.Content),
		mode: wf.Mode,
	}
	if time.Since(info.ModTime()) > racyWindow {
		workdirHashes.Add(key, stat)
	}
	return stat, true, nil
}

// UntrackedFiles lists the files in the work tree that are neither in the
// index nor ignored, sorted by path. At most MaxUntrackedFiles are returned;
// truncated reports whether more were found.
func UntrackedFiles(paths RepositoryPaths, idx *index.Index) (files []string, truncated bool, err error) {
	tracked := make(map[string]struct{}, len(idx.Entries))
	trackedDirs := make(map[string]struct{})
	for _, e := range idx.Entries {
		tracked[e.Name] = struct{}{}
		for dir := parentDir(e.Name); dir != ""; dir = parentDir(dir) {
			trackedDirs[dir] = struct{}{}
		}
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(paths.WorkDir), nil)
	if err != nil {
		return nil, false, errors.WrapIf(err, "failed to read gitignore patterns")
	}
	matcher := gitignore.NewMatcher(patterns)

	errStop := errors.New("untracked limit reached")
	err = filepath.WalkDir(paths.WorkDir, func(pth string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if pth == paths.WorkDir {
			return nil
		}
		rel, ok := relativeTo(paths.WorkDir, pth)
		if !ok {
			return nil
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		parts := strings.Split(rel, "/")
		if d.IsDir() {
			if matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			// A nested repository is not ours to enumerate unless the index
			// already tracks files below it.
			if _, tracked := trackedDirs[rel]; !tracked {
				if _, err := os.Lstat(filepath.Join(pth, ".git")); err == nil {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if _, ok := tracked[rel]; ok {
			return nil
		}
		if matcher.Match(parts, false) {
			return nil
		}
		if len(files) >= maxUntrackedFiles {
			truncated = true
			return errStop
		}
		files = append(files, rel)
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, false, errors.WrapIf(err, "failed to walk the work tree")
	}
	sort.Strings(files)
	return files, truncated, nil
}

func parentDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}
