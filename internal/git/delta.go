package git

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DiffFile is one side of a delta. A side that does not exist has an empty
// mode and a zero OID.
type DiffFile struct {
	Path string
	Mode filemode.FileMode
	OID  plumbing.Hash
}

func (f DiffFile) Exists() bool {
	return f.Mode != filemode.Empty
}

// Delta is a file-level change between two endpoints.
type Delta struct {
	Status DeltaStatus
	Old    DiffFile
	New    DiffFile
}

// Path is the path the change is displayed under: the new path, or the old
// one for deletions.
func (d Delta) Path() string {
	if d.New.Path != "" {
		return d.New.Path
	}
	return d.Old.Path
}

// Matches reports whether path is either side of the delta.
func (d Delta) Matches(path string) bool {
	return d.Old.Path == path || d.New.Path == path
}

// NewUntrackedDelta describes the untracked work-tree file rel as a change
// from nothing.
func NewUntrackedDelta(paths RepositoryPaths, rel string) (Delta, error) {
	stat, exists, err := workdirBlobHash(paths, rel)
	if err != nil {
		return Delta{}, err
	}
	if !exists {
		return Delta{}, errors.Wrapf(ErrNotFound, "%s does not exist in the work tree", rel)
	}
	return Delta{
		Status: DeltaUntracked,
		Old:    DiffFile{Path: rel},
		New:    DiffFile{Path: rel, Mode: stat.mode, OID: stat.hash},
	}, nil
}

type patchKey struct {
	delta        Delta
	contextLines int
}

// Patches are derived purely from the blob ids of a delta, so they can be
// shared between diffs and refreshes.
var patchCache, _ = lru.New[patchKey, *Patch](512)

// LoadPatch builds the patch for delta. When newSide is EndpointWorkdir the new
// content is read from the work tree; otherwise both sides are read from the
// object database.
func LoadPatch(repo *gogit.Repository, paths RepositoryPaths, delta Delta, newSide Endpoint, contextLines int) (*Patch, error) {
	key := patchKey{delta, effectiveContext(contextLines)}
	if p, ok := patchCache.Get(key); ok {
		return p, nil
	}

	var oldContent, newContent []byte
	var err error
	if delta.Old.Exists() {
		if oldContent, err = ReadBlob(repo, delta.Old.OID); err != nil {
			return nil, err
		}
	}
	cacheable := true
	if delta.New.Exists() {
		if newSide == EndpointWorkdir {
			if newContent, err = ReadWorkdirFile(paths, delta.New.Path); err != nil {
				return nil, err
			}
			// The file may have changed since the diff was computed.
			cacheable = plumbing.ComputeHash(plumbing.BlobObject, newContent) == delta.New.OID
		} else if newContent, err = ReadBlob(repo, delta.New.OID); err != nil {
			return nil, err
		}
	}

	p := BuildPatch(delta, oldContent, newContent, contextLines)
	if cacheable {
		patchCache.Add(key, p)
	}
	return p, nil
}

// Serialize renders the delta and its patch in `git diff` format.
func (d Delta) Serialize(p *Patch) string {
	var sb strings.Builder
	oldPath, newPath := d.Old.Path, d.New.Path
	if oldPath == "" {
		oldPath = newPath
	}
	if newPath == "" {
		newPath = oldPath
	}
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", oldPath, newPath)

	switch {
	case !d.Old.Exists():
		fmt.Fprintf(&sb, "new file mode %s\n", modeString(d.New.Mode))
	case !d.New.Exists():
		fmt.Fprintf(&sb, "deleted file mode %s\n", modeString(d.Old.Mode))
	case d.Old.Mode != d.New.Mode:
		fmt.Fprintf(&sb, "old mode %s\nnew mode %s\n", modeString(d.Old.Mode), modeString(d.New.Mode))
	}
	if d.Status == DeltaRenamed {
		fmt.Fprintf(&sb, "similarity index 100%%\nrename from %s\nrename to %s\n", d.Old.Path, d.New.Path)
	}
	if d.Old.OID != d.New.OID {
		fmt.Fprintf(&sb, "index %s..%s", ShortSha(d.Old.OID.String()), ShortSha(d.New.OID.String()))
		if d.Old.Exists() && d.Old.Mode == d.New.Mode {
			fmt.Fprintf(&sb, " %s", modeString(d.Old.Mode))
		}
		sb.WriteString("\n")
	}
	if p == nil || (len(p.Hunks) == 0 && !p.Binary) {
		return sb.String()
	}

	from, to := "a/"+oldPath, "b/"+newPath
	if !d.Old.Exists() {
		from = "/dev/null"
	}
	if !d.New.Exists() {
		to = "/dev/null"
	}
	if p.Binary {
		fmt.Fprintf(&sb, "Binary files %s and %s differ\n", from, to)
		return sb.String()
	}
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", from, to)
	for _, h := range p.Hunks {
		sb.WriteString(h.Header)
		for _, l := range h.Lines {
			if l.Origin.IsEOFMarker() {
				// The marker starts with the newline the previous line lacked.
				sb.Write(l.Content)
				continue
			}
			sb.WriteByte(byte(l.Origin))
			sb.Write(l.Content)
			if l.HasNewline {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

func modeString(m filemode.FileMode) string {
	return fmt.Sprintf("%06o", uint32(m))
}
