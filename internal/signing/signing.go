// Package signing produces detached commit signatures by running the same
// external programs git uses (gpg, gpgsm and ssh-keygen).
package signing

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/utils/cleanup"
	"github.com/aviator-co/gitstage/internal/utils/executils"
	gogit "github.com/go-git/go-git/v5"
	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// ErrSigning is returned when no signature could be produced.
const ErrSigning = errors.Sentinel("signing failed")

// Signer produces a detached signature over payload.
type Signer interface {
	Sign(ctx context.Context, format string, keyID string, payload []byte) (string, error)
}

const (
	FormatOpenPGP = "openpgp"
	FormatX509    = "x509"
	FormatSSH     = "ssh"
)

// NormalizeFormat maps the values accepted for gpg.format to one of the Format
// constants. "gpg" and the empty string are OpenPGP.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "gpg", FormatOpenPGP:
		return FormatOpenPGP, nil
	case FormatX509:
		return FormatX509, nil
	case FormatSSH:
		return FormatSSH, nil
	}
	return "", errors.Wrapf(ErrSigning, "unsupported signing format %q", format)
}

// Programs are the command lines used for each signing format. They may
// contain arguments and are split with shell-like quoting rules.
type Programs struct {
	OpenPGP string
	X509    string
	SSH     string
}

var DefaultPrograms = Programs{
	OpenPGP: "gpg",
	X509:    "gpgsm",
	SSH:     "ssh-keygen",
}

// CommandSigner signs by running external programs.
type CommandSigner struct {
	Programs Programs
}

// NewCommandSigner returns a signer that honors gpg.program,
// gpg.openpgp.program, gpg.x509.program and gpg.ssh.program from the
// repository configuration.
func NewCommandSigner(repo *gogit.Repository) *CommandSigner {
	programs := DefaultPrograms
	if v, ok := git.ConfigValue(repo, "gpg.program"); ok && v != "" {
		programs.OpenPGP = v
	}
	if v, ok := git.ConfigValue(repo, "gpg.openpgp.program"); ok && v != "" {
		programs.OpenPGP = v
	}
	if v, ok := git.ConfigValue(repo, "gpg.x509.program"); ok && v != "" {
		programs.X509 = v
	}
	if v, ok := git.ConfigValue(repo, "gpg.ssh.program"); ok && v != "" {
		programs.SSH = v
	}
	return &CommandSigner{Programs: programs}
}

func (s *CommandSigner) Sign(ctx context.Context, format string, keyID string, payload []byte) (string, error) {
	if keyID == "" {
		return "", errors.Wrap(ErrSigning, "no signing key configured")
	}
	format, err := NormalizeFormat(format)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatX509:
		return s.signGPG(ctx, s.Programs.X509, keyID, payload)
	case FormatSSH:
		return s.signSSH(ctx, keyID, payload)
	default:
		return s.signGPG(ctx, s.Programs.OpenPGP, keyID, payload)
	}
}

func (s *CommandSigner) signGPG(ctx context.Context, program string, keyID string, payload []byte) (string, error) {
	args, err := programArgs(program)
	if err != nil {
		return "", err
	}
	args = append(args, "--status-fd=2", "-bsau", keyID)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logrus.WithField("cmd", executils.FormatCommandLine(args)).Debug("signing commit")
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(ErrSigning, "%s: %s: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	// Like git, require the status line rather than trusting the exit code
	// alone.
	if !strings.Contains(stderr.String(), "[GNUPG:] SIG_CREATED ") {
		return "", errors.Wrapf(ErrSigning, "%s did not create a signature: %s", args[0], strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (s *CommandSigner) signSSH(ctx context.Context, keyID string, payload []byte) (string, error) {
	args, err := programArgs(s.Programs.SSH)
	if err != nil {
		return "", err
	}

	var cu cleanup.Cleanup
	defer cu.Cleanup()

	// A literal public key means the private key lives in an agent.
	keyFile := keyID
	useAgent := false
	if literal, ok := literalSSHKey(keyID); ok {
		f, err := writeTemp("gitstage-ssh-key-*", []byte(literal+"\n"), &cu)
		if err != nil {
			return "", err
		}
		keyFile = f
		useAgent = true
	} else {
		keyFile = expandHome(keyFile)
	}

	bufferFile, err := writeTemp("gitstage-ssh-payload-*", payload, &cu)
	if err != nil {
		return "", err
	}
	sigFile := bufferFile + ".sig"
	cu.Add(func() { _ = os.Remove(sigFile) })

	args = append(args, "-Y", "sign", "-n", "git", "-f", keyFile)
	if useAgent {
		args = append(args, "-U")
	}
	args = append(args, bufferFile)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr
	logrus.WithField("cmd", executils.FormatCommandLine(args)).Debug("signing commit")
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(ErrSigning, "%s: %s: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	sig, err := os.ReadFile(sigFile)
	if err != nil {
		return "", errors.Wrapf(ErrSigning, "failed to read ssh signature: %s", err)
	}
	return string(sig), nil
}

func literalSSHKey(keyID string) (string, bool) {
	if key, ok := strings.CutPrefix(keyID, "key::"); ok {
		return key, true
	}
	if strings.HasPrefix(keyID, "ssh-") || strings.HasPrefix(keyID, "ecdsa-") ||
		strings.HasPrefix(keyID, "sk-") {
		return keyID, true
	}
	return "", false
}

func programArgs(program string) ([]string, error) {
	args, err := shlex.Split(program)
	if err != nil {
		return nil, errors.Wrapf(ErrSigning, "invalid signing program %q: %s", program, err)
	}
	if len(args) == 0 {
		return nil, errors.Wrap(ErrSigning, "empty signing program")
	}
	return args, nil
}

func writeTemp(pattern string, content []byte, cu *cleanup.Cleanup) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", errors.WrapIf(err, "failed to create temporary file")
	}
	cu.Add(func() { _ = os.Remove(f.Name()) })
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", errors.WrapIf(err, "failed to write temporary file")
	}
	if err := f.Close(); err != nil {
		return "", errors.WrapIf(err, "failed to write temporary file")
	}
	return f.Name(), nil
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
