package e2e_tests

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"emperror.dev/errors"
	"github.com/kr/text"
	"github.com/stretchr/testify/require"
)

var gitstageCmdPath string

func init() {
	cmd := exec.Command("go", "build", "-o", "gitstage", "../cmd/gitstage")
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic(err)
	}
	var err error
	gitstageCmdPath, err = filepath.Abs("./gitstage")
	if err != nil {
		panic(err)
	}
}

type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func Cmd(t *testing.T, exe string, args ...string) Output {
	t.Helper()
	cmd := exec.Command(exe, args...)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitError *exec.ExitError
	if err != nil && !errors.As(err, &exitError) {
		t.Fatal(err)
	}

	output := Output{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	t.Logf("Running %s\n"+
		"args: %v\n"+
		"exit code: %v\n"+
		"stdout:\n"+
		"%s"+
		"stderr:\n"+
		"%s",
		filepath.Base(exe),
		args,
		cmd.ProcessState.ExitCode(),
		text.Indent(stdout.String(), "  "),
		text.Indent(stderr.String(), "  "),
	)
	return output
}

func RequireCmd(t *testing.T, exe string, args ...string) Output {
	t.Helper()
	output := Cmd(t, exe, args...)
	require.Equal(t, 0, output.ExitCode, "%s %s: exited with %v", exe, args, output.ExitCode)
	return output
}

func Gitstage(t *testing.T, args ...string) Output {
	t.Helper()
	args = append([]string{"--debug", "--color=never"}, args...)
	return Cmd(t, gitstageCmdPath, args...)
}

func RequireGitstage(t *testing.T, args ...string) Output {
	t.Helper()
	output := Gitstage(t, args...)
	require.Equal(t, 0, output.ExitCode, "gitstage %s: exited with %v", args, output.ExitCode)
	return output
}

func Chdir(t *testing.T, dir string) {
	t.Helper()
	t.Chdir(dir)
}
