package git

import "github.com/go-git/go-git/v5/plumbing/format/index"

// DefaultContextLines is the number of unchanged lines shown around each hunk
// unless configured otherwise (git's -U3).
const DefaultContextLines = 3

// NoContext requests hunks without any context lines (git's -U0). A zero
// context line setting selects DefaultContextLines instead.
const NoContext = -1

// stageNormal is the stage of an index entry that is not part of a merge
// conflict. go-git's index.Merged constant does not match the on-disk value.
const stageNormal index.Stage = 0

// Endpoint is one side of a diff.
type Endpoint int

const (
	EndpointTree Endpoint = iota
	EndpointIndex
	EndpointWorkdir
)

func (e Endpoint) String() string {
	switch e {
	case EndpointTree:
		return "tree"
	case EndpointIndex:
		return "index"
	case EndpointWorkdir:
		return "workdir"
	}
	return "unknown"
}

// DeltaStatus is the kind of change a delta describes.
type DeltaStatus int

const (
	DeltaUnmodified DeltaStatus = iota
	DeltaAdded
	DeltaDeleted
	DeltaModified
	DeltaRenamed
	DeltaTypeChange
	DeltaUntracked
)

func (s DeltaStatus) String() string {
	switch s {
	case DeltaUnmodified:
		return "unmodified"
	case DeltaAdded:
		return "added"
	case DeltaDeleted:
		return "deleted"
	case DeltaModified:
		return "modified"
	case DeltaRenamed:
		return "renamed"
	case DeltaTypeChange:
		return "typechange"
	case DeltaUntracked:
		return "untracked"
	}
	return "unknown"
}

// Char returns the single-letter code git uses for the status (as in
// `git diff --name-status`).
func (s DeltaStatus) Char() byte {
	switch s {
	case DeltaAdded:
		return 'A'
	case DeltaDeleted:
		return 'D'
	case DeltaModified:
		return 'M'
	case DeltaRenamed:
		return 'R'
	case DeltaTypeChange:
		return 'T'
	case DeltaUntracked:
		return '?'
	}
	return ' '
}

// LineOrigin classifies a line within a hunk. The values are the characters
// git prints in front of each line of a unified diff; the three EOF variants
// mark that the preceding line has no trailing newline.
type LineOrigin byte

const (
	OriginContext      LineOrigin = ' '
	OriginAdded        LineOrigin = '+'
	OriginDeleted      LineOrigin = '-'
	OriginContextEOFNL LineOrigin = '='
	OriginAddEOFNL     LineOrigin = '>'
	OriginDelEOFNL     LineOrigin = '<'
)

func (o LineOrigin) String() string {
	switch o {
	case OriginContext:
		return "context"
	case OriginAdded:
		return "added"
	case OriginDeleted:
		return "deleted"
	case OriginContextEOFNL:
		return "context-eofnl"
	case OriginAddEOFNL:
		return "add-eofnl"
	case OriginDelEOFNL:
		return "del-eofnl"
	}
	return "unknown"
}

// IsEOFMarker reports whether the line only marks a missing trailing newline.
func (o LineOrigin) IsEOFMarker() bool {
	return o == OriginContextEOFNL || o == OriginAddEOFNL || o == OriginDelEOFNL
}

func eofMarkerFor(o LineOrigin) LineOrigin {
	switch o {
	case OriginAdded:
		return OriginAddEOFNL
	case OriginDeleted:
		return OriginDelEOFNL
	}
	return OriginContextEOFNL
}
