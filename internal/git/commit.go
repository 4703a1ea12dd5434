package git

import (
	"io"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/utils/stringutils"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit is a read-only view of a commit object.
type Commit struct {
	obj *object.Commit
}

func (c *Commit) Hash() plumbing.Hash {
	return c.obj.Hash
}

func (c *Commit) TreeHash() plumbing.Hash {
	return c.obj.TreeHash
}

func (c *Commit) ParentHashes() []plumbing.Hash {
	return c.obj.ParentHashes
}

func (c *Commit) Message() string {
	return c.obj.Message
}

func (c *Commit) Author() object.Signature {
	return c.obj.Author
}

func (c *Commit) Committer() object.Signature {
	return c.obj.Committer
}

// Signature is the detached signature stored in the gpgsig header, if any.
func (c *Commit) Signature() string {
	return c.obj.PGPSignature
}

// Subject is the first line of the commit message.
func (c *Commit) Subject() string {
	subject, _ := stringutils.ParseSubjectBody(c.obj.Message)
	return subject
}

// Body is the commit message without its subject line.
func (c *Commit) Body() string {
	_, body := stringutils.ParseSubjectBody(c.obj.Message)
	return body
}

// HeadCommit returns the commit HEAD resolves to. An unborn HEAD (a
// repository without commits) is not an error; the commit is nil.
func HeadCommit(repo *gogit.Repository) (*Commit, error) {
	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, WrapVCS(err, "rev-parse HEAD")
	}
	return LookupCommit(repo, ref.Hash())
}

// LookupCommit reads the commit object hash.
func LookupCommit(repo *gogit.Repository, hash plumbing.Hash) (*Commit, error) {
	obj, err := repo.CommitObject(hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "commit %s", hash)
	} else if err != nil {
		return nil, WrapVCS(err, "cat-file commit")
	}
	return &Commit{obj}, nil
}

// ResolveCommit resolves a revision such as "HEAD~1" or a branch name.
func ResolveCommit(repo *gogit.Repository, rev string) (*Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "revision %q", rev)
	} else if err != nil {
		return nil, WrapVCS(err, "rev-parse")
	}
	return LookupCommit(repo, *hash)
}

// CommitPayload returns the bytes a signature for c is computed over: the
// encoded commit without a gpgsig header.
func CommitPayload(c *object.Commit) ([]byte, error) {
	obj := &plumbing.MemoryObject{}
	if err := c.EncodeWithoutSignature(obj); err != nil {
		return nil, WrapVCS(err, "commit-tree")
	}
	rd, err := obj.Reader()
	if err != nil {
		return nil, WrapVCS(err, "commit-tree")
	}
	defer rd.Close()
	payload, err := io.ReadAll(rd)
	if err != nil {
		return nil, WrapVCS(err, "commit-tree")
	}
	return payload, nil
}

// StoreCommit writes c (including its signature, if set) to the object
// database without touching any reference.
func StoreCommit(repo *gogit.Repository, c *object.Commit) (*Commit, error) {
	obj := repo.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return nil, WrapVCS(err, "commit-tree")
	}
	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return nil, WrapVCS(err, "commit-tree")
	}
	return LookupCommit(repo, hash)
}

// AdvanceHead moves HEAD to hash. A symbolic HEAD moves the branch it points
// to; a detached HEAD is moved itself. When HEAD does not exist at all,
// refs/heads/main (or refs/heads/master, if main cannot be created) is created
// and HEAD is pointed at it.
func AdvanceHead(repo *gogit.Repository, hash plumbing.Hash) error {
	head, err := repo.Storer.Reference(plumbing.HEAD)
	switch {
	case err == nil && head.Type() == plumbing.SymbolicReference:
		return WrapVCS(
			repo.Storer.SetReference(plumbing.NewHashReference(head.Target(), hash)),
			"update-ref",
		)
	case err == nil:
		return WrapVCS(
			repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, hash)),
			"update-ref",
		)
	case !errors.Is(err, plumbing.ErrReferenceNotFound):
		return WrapVCS(err, "symbolic-ref HEAD")
	}

	var lastErr error
	for _, branch := range []plumbing.ReferenceName{plumbing.Main, plumbing.Master} {
		if lastErr = repo.Storer.SetReference(plumbing.NewHashReference(branch, hash)); lastErr != nil {
			continue
		}
		return WrapVCS(
			repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)),
			"symbolic-ref",
		)
	}
	return WrapVCS(lastErr, "update-ref")
}
