package editor

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/utils/executils"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// The text to be edited.
	// After the editor is closed, the contents will be written back to this field.
	Text string
	// The file pattern to use when creating the temporary file for the editor.
	TmpFilePattern string
	// The prefix used to identify comments in the text.
	CommentPrefix string
	// The editor command to be used.
	// If empty, the git default editor will be used.
	Command string
}

// CommandNoOp is a special command that indicates that no editor should be
// launched and the text should be returned as-is.
// This behavior is copied from git's GIT_EDITOR.
// https://github.com/git/git/blob/5699ec1b0aec51b9e9ba5a2785f65970c5a95d84/editor.c#L57
const CommandNoOp = ":"

// Launch opens the text in an editor and returns the edited text with comment
// lines and surrounding blank lines removed, the way `git commit` cleans up
// messages.
func Launch(repo *git.Repo, config Config) (string, error) {
	if config.Command == "" {
		config.Command = DefaultCommand(repo)
	}
	if config.TmpFilePattern == "" {
		config.TmpFilePattern = "gitstage-message-*"
	}

	if config.Command == CommandNoOp {
		return config.Text, nil
	}

	tmp, err := os.CreateTemp("", config.TmpFilePattern)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			logrus.WithError(err).Warn("failed to remove temporary file")
		}
	}()
	if _, err := tmp.WriteString(config.Text); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	// Launch the editor as a subprocess.
	// We interpret the command with shell syntax to allow users to specify
	// both flags and use editor executables with spaces.
	// e.g., EDITOR="'/path/with spaces/editor'" or
	// EDITOR="code --wait" work.
	args, err := shellquote.Split(config.Command)
	if err != nil {
		return "", errors.Wrapf(err, "invalid editor command: %q", config.Command)
	}
	if len(args) == 0 {
		return "", errors.Errorf("invalid editor command: %q", config.Command)
	}
	args = append(args, tmp.Name())
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr
	logrus.WithField("cmd", executils.FormatCommandLine(args)).Debug("launching editor")
	if err := cmd.Run(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"cmd": executils.FormatCommandLine(args),
			"out": stderr.String(),
		}).Warn("editor exited with error")
		return "", err
	}

	return parseResult(tmp.Name(), config)
}

// DefaultCommand asks git which editor to use; it honors GIT_EDITOR,
// core.editor, VISUAL and EDITOR.
func DefaultCommand(repo *git.Repo) string {
	if repo == nil {
		return "vi"
	}
	editor, err := repo.Git("var", "GIT_EDITOR")
	if err != nil {
		logrus.WithError(err).Warn("failed to determine desired editor from git config")
		// This is the default hard-coded into git
		return "vi"
	}
	return editor
}

func parseResult(path string, config Config) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	scan := bufio.NewScanner(f)
	var lines []string
	for scan.Scan() {
		line := scan.Text()
		if config.CommentPrefix != "" && strings.HasPrefix(line, config.CommentPrefix) {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	if err := scan.Err(); err != nil {
		return "", err
	}
	return Cleanup(lines), nil
}

// Cleanup joins lines into a message without leading or trailing blank lines
// and with runs of blank lines collapsed into one.
func Cleanup(lines []string) string {
	res := bytes.NewBuffer(nil)
	blank := false
	for _, line := range lines {
		if line == "" {
			blank = res.Len() > 0
			continue
		}
		if blank {
			res.WriteString("\n")
			blank = false
		}
		res.WriteString(line)
		res.WriteString("\n")
	}
	return res.String()
}
