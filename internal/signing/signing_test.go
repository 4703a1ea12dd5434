package signing_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/aviator-co/gitstage/internal/signing"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, name, body string) string {
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0755))
	return p
}

func TestSignOpenPGP(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	payloadFile := filepath.Join(dir, "payload")
	gpg := writeScript(t, "gpg", `
echo "$@" > `+argsFile+`
cat > `+payloadFile+`
echo "[GNUPG:] SIG_CREATED D 1 8 00 1700000000 ABCDEF" >&2
echo "-----BEGIN PGP SIGNATURE-----"
echo fake
echo "-----END PGP SIGNATURE-----"
`)

	s := &signing.CommandSigner{Programs: signing.Programs{OpenPGP: gpg}}
	sig, err := s.Sign(context.Background(), "gpg", "ABCDEF", []byte("tree 123\n"))
	require.NoError(t, err)
	require.Equal(t, "-----BEGIN PGP SIGNATURE-----\nfake\n-----END PGP SIGNATURE-----\n", sig)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--status-fd=2 -bsau ABCDEF\n", string(args))
	payload, err := os.ReadFile(payloadFile)
	require.NoError(t, err)
	require.Equal(t, "tree 123\n", string(payload))
}

func TestSignX509UsesItsOwnProgram(t *testing.T) {
	gpgsm := writeScript(t, "gpgsm", `
cat > /dev/null
echo "[GNUPG:] SIG_CREATED D 1 8 00 1700000000 ABCDEF" >&2
echo x509-signature
`)
	s := &signing.CommandSigner{Programs: signing.Programs{OpenPGP: "false", X509: gpgsm}}
	sig, err := s.Sign(context.Background(), "x509", "key", []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, "x509-signature\n", sig)
}

func TestSignOpenPGPWithoutStatus(t *testing.T) {
	gpg := writeScript(t, "gpg", "cat > /dev/null\necho signature\n")
	s := &signing.CommandSigner{Programs: signing.Programs{OpenPGP: gpg}}
	_, err := s.Sign(context.Background(), "openpgp", "key", []byte("payload"))
	require.True(t, errors.Is(err, signing.ErrSigning), "unexpected error: %v", err)
}

func TestSignProgramFailure(t *testing.T) {
	gpg := writeScript(t, "gpg", "cat > /dev/null\necho 'no secret key' >&2\nexit 2\n")
	s := &signing.CommandSigner{Programs: signing.Programs{OpenPGP: gpg}}
	_, err := s.Sign(context.Background(), "", "key", []byte("payload"))
	require.True(t, errors.Is(err, signing.ErrSigning), "unexpected error: %v", err)
	require.Contains(t, err.Error(), "no secret key")
}

func TestSignSSH(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	sshKeygen := writeScript(t, "ssh-keygen", `
echo "$@" > `+argsFile+`
for last; do :; done
printf 'SSHSIG:' > "$last.sig"
cat "$last" >> "$last.sig"
`)

	s := &signing.CommandSigner{Programs: signing.Programs{SSH: sshKeygen}}
	sig, err := s.Sign(context.Background(), "ssh", "/keys/id_ed25519", []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, "SSHSIG:payload", sig)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(args), "-Y sign -n git -f /keys/id_ed25519 /"), string(args))

	// A literal public key is handed over through a temporary file and the
	// agent is used for the private half.
	_, err = s.Sign(context.Background(), "ssh", "key::ssh-ed25519 AAAAC3Nza test", []byte("payload"))
	require.NoError(t, err)
	args, err = os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Contains(t, string(args), " -U ")
	require.NotContains(t, string(args), "key::")
}

func TestSignErrors(t *testing.T) {
	s := &signing.CommandSigner{Programs: signing.DefaultPrograms}
	_, err := s.Sign(context.Background(), "gpg", "", []byte("payload"))
	require.True(t, errors.Is(err, signing.ErrSigning), "unexpected error: %v", err)

	_, err = s.Sign(context.Background(), "pgp2", "key", []byte("payload"))
	require.True(t, errors.Is(err, signing.ErrSigning), "unexpected error: %v", err)

	s.Programs.OpenPGP = `"unterminated`
	_, err = s.Sign(context.Background(), "gpg", "key", []byte("payload"))
	require.True(t, errors.Is(err, signing.ErrSigning), "unexpected error: %v", err)
}

func TestNormalizeFormat(t *testing.T) {
	for in, want := range map[string]string{
		"":        signing.FormatOpenPGP,
		"gpg":     signing.FormatOpenPGP,
		"OpenPGP": signing.FormatOpenPGP,
		"x509":    signing.FormatX509,
		"ssh":     signing.FormatSSH,
	} {
		got, err := signing.NormalizeFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got, "format %q", in)
	}
}

func TestNewCommandSignerReadsConfig(t *testing.T) {
	repo := gittest.NewEmptyRepo(t)
	_, err := repo.Git("config", "gpg.program", "gpg2 --batch")
	require.NoError(t, err)
	_, err = repo.Git("config", "gpg.ssh.program", "/opt/ssh-keygen")
	require.NoError(t, err)

	r, err := repo.Paths().Open()
	require.NoError(t, err)
	s := signing.NewCommandSigner(r)
	require.Equal(t, "gpg2 --batch", s.Programs.OpenPGP)
	require.Equal(t, "gpgsm", s.Programs.X509)
	require.Equal(t, "/opt/ssh-keygen", s.Programs.SSH)
}
