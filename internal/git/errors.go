package git

import (
	"fmt"

	"emperror.dev/errors"
)

const (
	// ErrNotFound is returned when a file, path or delta does not exist in the
	// diff, tree or work tree that was consulted.
	ErrNotFound = errors.Sentinel("not found")
	// ErrNotInitialized is returned when an operation needs state that has not
	// been computed yet.
	ErrNotInitialized = errors.Sentinel("not initialized")
	// ErrInvalidArgument is returned when an argument is the wrong kind of
	// thing for the operation (e.g., a tracked file where an untracked one is
	// required).
	ErrInvalidArgument = errors.Sentinel("invalid argument")
)

// VCSError is a failure reported by the underlying git implementation.
// The original error is kept so that errors.Is works against go-git's own
// sentinels.
type VCSError struct {
	Op  string
	Err error
}

func (e *VCSError) Error() string {
	return fmt.Sprintf("git %s: %s", e.Op, e.Err)
}

func (e *VCSError) Unwrap() error {
	return e.Err
}

// WrapVCS wraps err in a VCSError. Errors that already went through WrapVCS
// are returned as-is.
func WrapVCS(err error, op string) error {
	if err == nil {
		return nil
	}
	var vcsErr *VCSError
	if errors.As(err, &vcsErr) {
		return err
	}
	return errors.WithStack(&VCSError{Op: op, Err: err})
}

// HeadUpdateError is returned when a commit object was written but HEAD could
// not be moved to it. The commit is valid and reachable through Commit.
type HeadUpdateError struct {
	Commit string
	Err    error
}

func (e *HeadUpdateError) Error() string {
	return fmt.Sprintf("created commit %s but failed to update HEAD: %s", ShortSha(e.Commit), e.Err)
}

func (e *HeadUpdateError) Unwrap() error {
	return e.Err
}
