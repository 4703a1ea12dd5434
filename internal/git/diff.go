package git

import (
	"sort"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type DiffOptions struct {
	// ContextLines is the number of unchanged lines around each hunk. Zero
	// means DefaultContextLines; use NoContext for none.
	ContextLines int
}

// Diff is the set of deltas between two endpoints. The deltas never change
// after construction; patches are built lazily and memoized. A Diff is safe for
// concurrent use.
type Diff struct {
	paths        RepositoryPaths
	from         Endpoint
	to           Endpoint
	contextLines int
	deltas       []Delta

	mu      sync.Mutex
	patches map[int]*Patch
}

type DiffStats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
}

func newDiff(paths RepositoryPaths, from, to Endpoint, opts DiffOptions, deltas []Delta) *Diff {
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Path() < deltas[j].Path()
	})
	return &Diff{
		paths:        paths,
		from:         from,
		to:           to,
		contextLines: opts.ContextLines,
		deltas:       deltas,
		patches:      make(map[int]*Patch),
	}
}

// DiffTreeToIndex compares tree (nil for an empty tree) with the stage-0
// entries of idx. Files that moved without any content change are reported as
// renames.
func DiffTreeToIndex(paths RepositoryPaths, tree *object.Tree, idx *index.Index, opts DiffOptions) (*Diff, error) {
	files, err := treeFiles(tree)
	if err != nil {
		return nil, err
	}

	var deltas, added, deleted []Delta
	inIndex := make(map[string]struct{}, len(idx.Entries))
	for _, e := range idx.Entries {
		inIndex[e.Name] = struct{}{}
		if e.Stage != stageNormal || e.Mode == filemode.Submodule {
			continue
		}
		newFile := DiffFile{Path: e.Name, Mode: e.Mode, OID: e.Hash}
		old, ok := files[e.Name]
		if !ok {
			added = append(added, Delta{Status: DeltaAdded, Old: DiffFile{Path: e.Name}, New: newFile})
			continue
		}
		if old.Hash == e.Hash && old.Mode == e.Mode {
			continue
		}
		status := DeltaModified
		if modeKind(old.Mode) != modeKind(e.Mode) {
			status = DeltaTypeChange
		}
		deltas = append(deltas, Delta{
			Status: status,
			Old:    DiffFile{Path: old.Path, Mode: old.Mode, OID: old.Hash},
			New:    newFile,
		})
	}
	for path, f := range files {
		if _, ok := inIndex[path]; ok {
			continue
		}
		deleted = append(deleted, Delta{
			Status: DeltaDeleted,
			Old:    DiffFile{Path: path, Mode: f.Mode, OID: f.Hash},
			New:    DiffFile{Path: path},
		})
	}

	deltas = append(deltas, pairExactRenames(added, deleted)...)
	return newDiff(paths, EndpointTree, EndpointIndex, opts, deltas), nil
}

// pairExactRenames turns each deleted file whose content reappears as an added
// file into a single rename delta. Unpaired deltas are returned as they were.
func pairExactRenames(added, deleted []Delta) []Delta {
	sort.Slice(added, func(i, j int) bool { return added[i].New.Path < added[j].New.Path })
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].Old.Path < deleted[j].Old.Path })

	byHash := make(map[plumbing.Hash][]int)
	for i, d := range added {
		byHash[d.New.OID] = append(byHash[d.New.OID], i)
	}
	paired := make(map[int]bool)
	var out []Delta
	for _, del := range deleted {
		candidates := byHash[del.Old.OID]
		match := -1
		for _, i := range candidates {
			if !paired[i] && modeKind(added[i].New.Mode) == modeKind(del.Old.Mode) {
				match = i
				break
			}
		}
		if match < 0 {
			out = append(out, del)
			continue
		}
		paired[match] = true
		out = append(out, Delta{Status: DeltaRenamed, Old: del.Old, New: added[match].New})
	}
	for i, d := range added {
		if !paired[i] {
			out = append(out, d)
		}
	}
	return out
}

// DiffIndexToWorkdir compares the stage-0 entries of idx with the work tree.
// Untracked files are not part of the result; see UntrackedFiles.
func DiffIndexToWorkdir(paths RepositoryPaths, idx *index.Index, opts DiffOptions) (*Diff, error) {
	var deltas []Delta
	for _, e := range idx.Entries {
		if e.Stage != stageNormal || e.Mode == filemode.Submodule || e.SkipWorktree {
			continue
		}
		oldFile := DiffFile{Path: e.Name, Mode: e.Mode, OID: e.Hash}
		stat, exists, err := workdirBlobHash(paths, e.Name)
		if err != nil {
			return nil, err
		}
		switch {
		case !exists:
			deltas = append(deltas, Delta{Status: DeltaDeleted, Old: oldFile, New: DiffFile{Path: e.Name}})
		case stat.hash == e.Hash && stat.mode == e.Mode:
		default:
			status := DeltaModified
			if modeKind(stat.mode) != modeKind(e.Mode) {
				status = DeltaTypeChange
			}
			deltas = append(deltas, Delta{
				Status: status,
				Old:    oldFile,
				New:    DiffFile{Path: e.Name, Mode: stat.mode, OID: stat.hash},
			})
		}
	}
	return newDiff(paths, EndpointIndex, EndpointWorkdir, opts, deltas), nil
}

// modeKind groups modes whose changes are a type change rather than a
// modification. Regular and executable files are the same kind.
func modeKind(m filemode.FileMode) filemode.FileMode {
	if m == filemode.Executable || m == filemode.Deprecated {
		return filemode.Regular
	}
	return m
}

func (d *Diff) From() Endpoint {
	return d.from
}

func (d *Diff) To() Endpoint {
	return d.to
}

func (d *Diff) ContextLines() int {
	return d.contextLines
}

func (d *Diff) NumDeltas() int {
	return len(d.deltas)
}

// Delta returns the i-th delta. The boolean is false when i is out of range.
func (d *Diff) Delta(i int) (Delta, bool) {
	if i < 0 || i >= len(d.deltas) {
		return Delta{}, false
	}
	return d.deltas[i], true
}

// Deltas returns a copy of all deltas in path order.
func (d *Diff) Deltas() []Delta {
	return append([]Delta(nil), d.deltas...)
}

// FindDelta returns the first delta that has path on either side.
func (d *Diff) FindDelta(path string) (int, Delta, bool) {
	for i, delta := range d.deltas {
		if delta.Matches(path) {
			return i, delta, true
		}
	}
	return -1, Delta{}, false
}

func (d *Diff) ContainsFile(path string) bool {
	_, _, ok := d.FindDelta(path)
	return ok
}

// PatchForDelta builds (or returns the memoized) patch of the i-th delta. It
// re-opens the repository, so it is comparatively expensive.
func (d *Diff) PatchForDelta(i int) (*Patch, error) {
	delta, ok := d.Delta(i)
	if !ok {
		return nil, ErrNotFound
	}
	d.mu.Lock()
	p, ok := d.patches[i]
	d.mu.Unlock()
	if ok {
		return p, nil
	}

	repo, err := d.paths.Open()
	if err != nil {
		return nil, err
	}
	p, err = LoadPatch(repo, d.paths, delta, d.to, d.contextLines)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.patches[i] = p
	d.mu.Unlock()
	return p, nil
}

// Stats counts changed files and lines over every delta of the diff.
func (d *Diff) Stats() (DiffStats, error) {
	stats := DiffStats{FilesChanged: len(d.deltas)}
	for i := range d.deltas {
		p, err := d.PatchForDelta(i)
		if err != nil {
			return DiffStats{}, err
		}
		ins, del := p.Stats()
		stats.Insertions += ins
		stats.Deletions += del
	}
	return stats, nil
}
