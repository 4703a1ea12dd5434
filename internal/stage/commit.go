package stage

import (
	"context"
	"os/user"
	"time"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotEnoughInformation is returned by Commit when there is no message or
// nothing is staged.
const ErrNotEnoughInformation = errors.Sentinel("Not enough information to commit")

// Commit creates a commit from the index and moves HEAD (or the branch it
// points to) to it. When a signing key is set the commit is signed.
//
// A signed commit is written before HEAD is moved. If moving HEAD fails the
// returned error is a *git.HeadUpdateError and the returned commit is the
// (valid, but unreferenced) commit object.
func (b *Builder) Commit(ctx context.Context) (*git.Commit, error) {
	if !b.CanCommit() {
		return nil, errors.WithStack(ErrNotEnoughInformation)
	}
	b.mutateMu.Lock()
	defer b.mutateMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := b.paths.Open()
	if err != nil {
		return nil, err
	}

	b.metaMu.Lock()
	name, email := b.authorName, b.authorEmail
	when, message := b.when, b.message
	key, format := b.signingKey, b.signingFormat
	parent, explicit := b.parent, b.explicitParent
	b.metaMu.Unlock()

	name, email = resolveIdentity(r, name, email)
	if when.IsZero() {
		when = time.Now()
	}
	sig := object.Signature{Name: name, Email: email, When: when}

	if !explicit {
		if parent, err = git.HeadCommit(r); err != nil {
			return nil, err
		}
	}
	var parents []plumbing.Hash
	if parent != nil {
		parents = []plumbing.Hash{parent.Hash()}
	}
	log := b.log.WithField("author", name).WithField("parents", len(parents))

	if key == "" {
		wt, err := r.Worktree()
		if err != nil {
			return nil, git.WrapVCS(err, "worktree")
		}
		hash, err := wt.Commit(message, &gogit.CommitOptions{
			Author:            &sig,
			Committer:         &sig,
			Parents:           parents,
			AllowEmptyCommits: true,
		})
		if err != nil {
			return nil, git.WrapVCS(err, "commit")
		}
		log.WithField("commit", hash).Debug("created commit")
		return git.LookupCommit(r, hash)
	}

	idx, err := git.ReadIndex(r)
	if err != nil {
		return nil, err
	}
	tree, err := git.WriteTree(r, idx)
	if err != nil {
		return nil, err
	}
	c := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	payload, err := git.CommitPayload(c)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = defaultSigningFormat
	}
	signature, err := b.signer.Sign(ctx, format, key, payload)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to sign commit")
	}
	c.PGPSignature = signature

	commit, err := git.StoreCommit(r, c)
	if err != nil {
		return nil, err
	}
	log = log.WithField("commit", commit.Hash())
	if err := git.AdvanceHead(r, commit.Hash()); err != nil {
		log.WithError(err).Warn("signed commit was created but HEAD was not updated")
		return commit, errors.WithStack(&git.HeadUpdateError{Commit: commit.Hash().String(), Err: err})
	}
	log.Debug("created signed commit")
	return commit, nil
}

// resolveIdentity fills in a missing name or email from the git
// configuration and then from the operating system account.
func resolveIdentity(r *gogit.Repository, name, email string) (string, string) {
	if name == "" {
		name, _ = git.ConfigValue(r, "user.name")
	}
	if email == "" {
		email, _ = git.ConfigValue(r, "user.email")
	}
	if name != "" && email != "" {
		return name, email
	}
	username := "user"
	if u, err := user.Current(); err == nil {
		if u.Username != "" {
			username = u.Username
		}
		if name == "" {
			name = u.Name
		}
	}
	if name == "" {
		name = username
	}
	if email == "" {
		email = username + "@localhost"
	}
	return name, email
}
