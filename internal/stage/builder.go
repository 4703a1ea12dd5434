// Package stage builds commits from a work tree: it keeps the staged,
// unstaged and untracked file lists of a repository up to date and moves
// whole files, hunks or single lines between the index and the work tree.
package stage

import (
	"context"
	"slices"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/signing"
	"github.com/sirupsen/logrus"
)

// MaxInitiallyUntracked caps how many paths are remembered as having been
// untracked when the builder was created.
const MaxInitiallyUntracked = git.MaxUntrackedFiles

var maxInitiallyUntracked = MaxInitiallyUntracked

const defaultSigningFormat = "gpg"

type Options struct {
	// ContextLines is the number of context lines of the staged and unstaged
	// diffs. Zero means git.DefaultContextLines.
	ContextLines int
	// Signer signs commits when a signing key is configured. Defaults to a
	// signing.CommandSigner for the repository.
	Signer signing.Signer
}

// Builder is one commit in preparation. It is safe for concurrent use, but
// mutations of the same builder are applied one at a time.
type Builder struct {
	repo   *git.Repo
	paths  git.RepositoryPaths
	log    logrus.FieldLogger
	opts   Options
	signer signing.Signer

	metaMu         sync.Mutex
	authorName     string
	authorEmail    string
	signingKey     string
	signingFormat  string
	when           time.Time
	message        string
	parent         *git.Commit
	explicitParent bool

	// mutateMu serializes index mutations.
	mutateMu sync.Mutex

	// diffMu guards the staged/unstaged pair, which is always replaced as a
	// whole.
	diffMu       sync.Mutex
	stagedDiff   *git.Diff
	unstagedDiff *git.Diff
	// betweenDiffs is called after the staged diff of a refresh is computed.
	betweenDiffs func()

	staged    *EntryList
	unstaged  *EntryList
	untracked *EntryList

	untrackedMu        sync.Mutex
	initiallyUntracked map[string]struct{}
	truncated          bool

	canCommitMu   sync.Mutex
	canCommit     bool
	canCommitSubs []func(bool)
}

// New creates a builder for a commit on top of parent. A nil parent means the
// current HEAD, or no parent at all in a repository without commits.
func New(ctx context.Context, repo *git.Repo, parent *git.Commit, opts Options) (*Builder, error) {
	b := newBuilder(repo, opts)
	b.parent = parent
	b.explicitParent = parent != nil

	r, err := b.paths.Open()
	if err != nil {
		return nil, err
	}
	if b.parent == nil {
		b.parent, err = git.HeadCommit(r)
		if err != nil {
			return nil, err
		}
	}
	for key, dst := range map[string]*string{
		"user.name":       &b.authorName,
		"user.email":      &b.authorEmail,
		"user.signingKey": &b.signingKey,
		"gpg.format":      &b.signingFormat,
	} {
		if v, ok := git.ConfigValue(r, key); ok {
			*dst = v
		}
	}
	if b.signingFormat == "" {
		b.signingFormat = defaultSigningFormat
	}
	if b.signer == nil {
		b.signer = signing.NewCommandSigner(r)
	}

	if err := b.scan(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// NewSimilar creates a fresh builder with the same identity, message and
// parent rule as b. Diffs and file lists are computed anew.
func (b *Builder) NewSimilar(ctx context.Context) (*Builder, error) {
	nb := newBuilder(b.repo, b.opts)
	nb.signer = b.signer

	b.metaMu.Lock()
	nb.authorName = b.authorName
	nb.authorEmail = b.authorEmail
	nb.signingKey = b.signingKey
	nb.signingFormat = b.signingFormat
	nb.when = b.when
	nb.message = b.message
	nb.explicitParent = b.explicitParent
	if b.explicitParent {
		nb.parent = b.parent
	}
	b.metaMu.Unlock()

	if !nb.explicitParent {
		r, err := nb.paths.Open()
		if err != nil {
			return nil, err
		}
		if nb.parent, err = git.HeadCommit(r); err != nil {
			return nil, err
		}
	}
	if err := nb.scan(ctx); err != nil {
		return nil, err
	}
	return nb, nil
}

func newBuilder(repo *git.Repo, opts Options) *Builder {
	return &Builder{
		repo:               repo,
		paths:              repo.Paths(),
		log:                repo.Log().WithField("component", "stage"),
		opts:               opts,
		signer:             opts.Signer,
		staged:             newEntryList("staged"),
		unstaged:           newEntryList("unstaged"),
		untracked:          newEntryList("untracked"),
		initiallyUntracked: make(map[string]struct{}),
	}
}

func (b *Builder) Paths() git.RepositoryPaths {
	return b.paths
}

// Parent is the commit the staged diff is computed against; nil in a
// repository without commits.
func (b *Builder) Parent() *git.Commit {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.parent
}

func (b *Builder) ContextLines() int {
	return b.opts.ContextLines
}

func (b *Builder) Staged() *EntryList {
	return b.staged
}

func (b *Builder) Unstaged() *EntryList {
	return b.unstaged
}

func (b *Builder) Untracked() *EntryList {
	return b.untracked
}

func (b *Builder) AuthorName() string {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.authorName
}

func (b *Builder) SetAuthorName(name string) {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	b.authorName = name
}

func (b *Builder) AuthorEmail() string {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.authorEmail
}

func (b *Builder) SetAuthorEmail(email string) {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	b.authorEmail = email
}

func (b *Builder) SigningKey() string {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.signingKey
}

// SetSigningKey sets the key commits are signed with. An empty key disables
// signing.
func (b *Builder) SetSigningKey(key string) {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	b.signingKey = key
}

func (b *Builder) SigningFormat() string {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.signingFormat
}

func (b *Builder) SetSigningFormat(format string) {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	b.signingFormat = format
}

// When is the author and committer time; the zero time means "now".
func (b *Builder) When() time.Time {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.when
}

func (b *Builder) SetWhen(when time.Time) {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	b.when = when
}

func (b *Builder) Message() string {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	return b.message
}

func (b *Builder) SetMessage(message string) {
	b.metaMu.Lock()
	b.message = message
	b.metaMu.Unlock()
	b.updateCanCommit()
}

// CanCommit reports whether there is a message and at least one staged file.
func (b *Builder) CanCommit() bool {
	return b.Message() != "" && b.staged.Len() > 0
}

// OnCanCommitChanged registers fn to be called whenever CanCommit changes.
func (b *Builder) OnCanCommitChanged(fn func(canCommit bool)) {
	b.canCommitMu.Lock()
	defer b.canCommitMu.Unlock()
	b.canCommitSubs = append(b.canCommitSubs, fn)
}

func (b *Builder) updateCanCommit() {
	now := b.CanCommit()
	b.canCommitMu.Lock()
	if now == b.canCommit {
		b.canCommitMu.Unlock()
		return
	}
	b.canCommit = now
	subs := slices.Clone(b.canCommitSubs)
	b.canCommitMu.Unlock()

	b.log.WithField("can_commit", now).Debug("commit readiness changed")
	for _, fn := range subs {
		fn(now)
	}
}

// Diffs returns the current staged (parent tree to index) and unstaged (index
// to work tree) diffs. Both are from the same refresh.
func (b *Builder) Diffs() (staged, unstaged *git.Diff) {
	b.diffMu.Lock()
	defer b.diffMu.Unlock()
	return b.stagedDiff, b.unstagedDiff
}

func (b *Builder) setDiffs(staged, unstaged *git.Diff) {
	b.diffMu.Lock()
	defer b.diffMu.Unlock()
	b.stagedDiff, b.unstagedDiff = staged, unstaged
}

func (b *Builder) initializedDiffs() (staged, unstaged *git.Diff, err error) {
	staged, unstaged = b.Diffs()
	if staged == nil || unstaged == nil {
		return nil, nil, errors.WithStack(git.ErrNotInitialized)
	}
	return staged, unstaged, nil
}

// IsUntracked reports whether file was untracked when it was first seen by
// the builder, regardless of its current status.
func (b *Builder) IsUntracked(file string) bool {
	rel, ok := b.paths.WorkdirRelativePath(file)
	if !ok {
		return false
	}
	return b.wasUntracked(rel)
}

func (b *Builder) wasUntracked(rel string) bool {
	b.untrackedMu.Lock()
	defer b.untrackedMu.Unlock()
	_, ok := b.initiallyUntracked[rel]
	return ok
}

// Truncated reports whether the work tree had more untracked files than are
// tracked by the builder.
func (b *Builder) Truncated() bool {
	b.untrackedMu.Lock()
	defer b.untrackedMu.Unlock()
	return b.truncated
}

func (b *Builder) recordUntracked(rel string) {
	b.untrackedMu.Lock()
	defer b.untrackedMu.Unlock()
	if _, ok := b.initiallyUntracked[rel]; ok {
		return
	}
	if len(b.initiallyUntracked) >= maxInitiallyUntracked {
		b.truncated = true
		return
	}
	b.initiallyUntracked[rel] = struct{}{}
}

func (b *Builder) relativePath(file string) (string, error) {
	rel, ok := b.paths.WorkdirRelativePath(file)
	if !ok {
		return "", errors.Wrapf(git.ErrNotFound, "%s is outside the work tree", file)
	}
	return rel, nil
}
