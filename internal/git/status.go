package git

import (
	"sort"
	"strings"
)

// StatusFlags describes how a path differs between the parent tree, the index
// and the work tree.
type StatusFlags uint32

const (
	IndexNew StatusFlags = 1 << iota
	IndexModified
	IndexDeleted
	IndexRenamed
	IndexTypeChange
	WorktreeNew
	WorktreeModified
	WorktreeDeleted
	WorktreeRenamed
	WorktreeTypeChange
)

const (
	// IndexChanged is any difference between the parent tree and the index.
	IndexChanged = IndexNew | IndexModified | IndexDeleted | IndexRenamed | IndexTypeChange
	// WorktreeChanged is any difference between the index and the work tree
	// of a tracked file.
	WorktreeChanged = WorktreeModified | WorktreeDeleted | WorktreeRenamed | WorktreeTypeChange
)

// Has reports whether any of the bits of o are set.
func (f StatusFlags) Has(o StatusFlags) bool {
	return f&o != 0
}

// Short renders the flags as the two-letter code of `git status --short`.
func (f StatusFlags) Short() string {
	x, y := byte(' '), byte(' ')
	switch {
	case f.Has(IndexNew):
		x = 'A'
	case f.Has(IndexModified):
		x = 'M'
	case f.Has(IndexDeleted):
		x = 'D'
	case f.Has(IndexRenamed):
		x = 'R'
	case f.Has(IndexTypeChange):
		x = 'T'
	}
	switch {
	case f.Has(WorktreeNew):
		if x == ' ' {
			return "??"
		}
	case f.Has(WorktreeModified):
		y = 'M'
	case f.Has(WorktreeDeleted):
		y = 'D'
	case f.Has(WorktreeRenamed):
		y = 'R'
	case f.Has(WorktreeTypeChange):
		y = 'T'
	}
	return string([]byte{x, y})
}

func (f StatusFlags) String() string {
	names := []struct {
		flag StatusFlags
		name string
	}{
		{IndexNew, "index-new"},
		{IndexModified, "index-modified"},
		{IndexDeleted, "index-deleted"},
		{IndexRenamed, "index-renamed"},
		{IndexTypeChange, "index-typechange"},
		{WorktreeNew, "worktree-new"},
		{WorktreeModified, "worktree-modified"},
		{WorktreeDeleted, "worktree-deleted"},
		{WorktreeRenamed, "worktree-renamed"},
		{WorktreeTypeChange, "worktree-typechange"},
	}
	var set []string
	for _, n := range names {
		if f.Has(n.flag) {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "current"
	}
	return strings.Join(set, "|")
}

// StatusEntry is a snapshot of the status of one path.
type StatusEntry struct {
	Path string
	// OldPath is the path in the parent tree when the file was renamed.
	OldPath string
	Flags   StatusFlags
	// HeadToIndex is the staged delta, if any.
	HeadToIndex *Delta
	// IndexToWorkdir is the unstaged delta, if any.
	IndexToWorkdir *Delta
}

// InParent reports whether the path existed in the parent tree.
func (e StatusEntry) InParent() bool {
	if e.HeadToIndex == nil {
		return !e.Flags.Has(WorktreeNew)
	}
	return e.HeadToIndex.Old.Exists()
}

func stagedFlag(s DeltaStatus) StatusFlags {
	switch s {
	case DeltaAdded:
		return IndexNew
	case DeltaModified:
		return IndexModified
	case DeltaDeleted:
		return IndexDeleted
	case DeltaRenamed:
		return IndexRenamed
	case DeltaTypeChange:
		return IndexTypeChange
	}
	return 0
}

func unstagedFlag(s DeltaStatus) StatusFlags {
	switch s {
	case DeltaAdded, DeltaUntracked:
		return WorktreeNew
	case DeltaModified:
		return WorktreeModified
	case DeltaDeleted:
		return WorktreeDeleted
	case DeltaRenamed:
		return WorktreeRenamed
	case DeltaTypeChange:
		return WorktreeTypeChange
	}
	return 0
}

// BuildStatus combines the staged diff, the unstaged diff and the untracked
// files into one entry per path, sorted by path.
func BuildStatus(staged, unstaged *Diff, untracked []string) []StatusEntry {
	byPath := make(map[string]*StatusEntry)
	entry := func(path string) *StatusEntry {
		e, ok := byPath[path]
		if !ok {
			e = &StatusEntry{Path: path}
			byPath[path] = e
		}
		return e
	}
	if staged != nil {
		for _, d := range staged.deltas {
			d := d
			e := entry(d.Path())
			e.Flags |= stagedFlag(d.Status)
			e.HeadToIndex = &d
			if d.Status == DeltaRenamed {
				e.OldPath = d.Old.Path
			}
		}
	}
	if unstaged != nil {
		for _, d := range unstaged.deltas {
			d := d
			e := entry(d.Path())
			e.Flags |= unstagedFlag(d.Status)
			e.IndexToWorkdir = &d
		}
	}
	for _, path := range untracked {
		entry(path).Flags |= WorktreeNew
	}

	entries := make([]StatusEntry, 0, len(byPath))
	for _, e := range byPath {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// StatusFor builds the entry for a single path from the two diffs. The
// boolean is false when the path is in neither diff.
func StatusFor(path string, staged, unstaged *Diff) (StatusEntry, bool) {
	e := StatusEntry{Path: path}
	if staged != nil {
		if _, d, ok := staged.FindDelta(path); ok {
			e.Path = d.Path()
			e.Flags |= stagedFlag(d.Status)
			e.HeadToIndex = &d
			if d.Status == DeltaRenamed {
				e.OldPath = d.Old.Path
			}
		}
	}
	if unstaged != nil {
		if _, d, ok := unstaged.FindDelta(path); ok {
			e.Flags |= unstagedFlag(d.Status)
			e.IndexToWorkdir = &d
		}
	}
	return e, e.Flags != 0
}
