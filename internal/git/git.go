package git

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/sirupsen/logrus"
)

type Repo struct {
	paths RepositoryPaths
	log   logrus.FieldLogger
}

// OpenRepo opens the repository that contains dir. Like git itself, the
// control directory is discovered by walking up from dir until a .git entry
// is found.
func OpenRepo(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapIff(err, "failed to resolve %q", dir)
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, WrapVCS(err, "open")
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, WrapVCS(err, "worktree")
	}
	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil, errors.Errorf("repository at %q is not backed by a filesystem", abs)
	}

	paths := RepositoryPaths{
		ControlDir: canonicalPath(storage.Filesystem().Root()),
		WorkDir:    canonicalPath(wt.Filesystem.Root()),
	}
	r := &Repo{
		paths,
		logrus.WithFields(logrus.Fields{"repo": filepath.Base(paths.WorkDir)}),
	}
	return r, nil
}

func (r *Repo) Dir() string {
	return r.paths.WorkDir
}

func (r *Repo) GitDir() string {
	return r.paths.ControlDir
}

func (r *Repo) Paths() RepositoryPaths {
	return r.paths
}

func (r *Repo) Log() logrus.FieldLogger {
	return r.log
}

// Git runs the git CLI inside the work tree and returns its trimmed stdout.
func (r *Repo) Git(args ...string) (string, error) {
	startTime := time.Now()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.paths.WorkDir
	out, err := cmd.Output()
	log := r.log.WithField("duration", time.Since(startTime))
	if err != nil {
		stderr := "<no output>"
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			stderr = string(exitError.Stderr)
		}
		log.Debugf("git %s failed: %s: %s", args, err, stderr)
		return strings.TrimSpace(string(out)), errors.Wrapf(err, "git %s", args[0])
	}

	log.Debugf("git %s", args)
	return strings.TrimSpace(string(out)), nil
}

type RunOpts struct {
	Args []string
	Env  []string
	// If true, return a non-nil error if the command exited with a non-zero
	// exit code.
	ExitError bool
}

type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (r *Repo) Run(opts *RunOpts) (*Output, error) {
	cmd := exec.Command("git", opts.Args...)
	cmd.Dir = r.paths.WorkDir
	r.log.Debugf("git %s", opts.Args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), opts.Env...)
	err := cmd.Run()
	var exitError *exec.ExitError
	if err != nil && !errors.As(err, &exitError) {
		return nil, errors.Wrapf(err, "git %s", opts.Args)
	}
	if err != nil && opts.ExitError && exitError.ExitCode() != 0 {
		return nil, errors.Errorf("git %s: %s: %s", opts.Args, err, stderr.String())
	}
	return &Output{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

// CurrentBranchName returns the short name of the branch HEAD points to.
// Unborn branches are reported too, since HEAD is still a symbolic ref.
func (r *Repo) CurrentBranchName() (string, error) {
	repo, err := r.paths.Open()
	if err != nil {
		return "", err
	}
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", WrapVCS(err, "symbolic-ref HEAD")
	}
	if head.Target() == "" {
		return "", errors.New("HEAD is detached")
	}
	return head.Target().Short(), nil
}
