package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/config"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/aviator-co/gitstage/internal/utils/stringutils"
	"github.com/aviator-co/gitstage/internal/utils/uiutils"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	Debug     bool
	Directory string
	Color     string
}

var rootCmd = &cobra.Command{
	Use:   "gitstage",
	Short: "stage, unstage and commit changes down to single lines",

	// Don't automatically print errors or usage information (we handle that ourselves).
	// Cobra still prints usage if you return cmd.Usage() from RunE.
	SilenceErrors: true,
	SilenceUsage:  true,

	// Don't show "completion" command in help menu
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},

	// Run setup before invoking any child commands.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		colors.SetupBackgroundColorTypeFromEnv()
		if err := setupColor(rootFlags.Color); err != nil {
			return err
		}
		if rootFlags.Debug {
			logrus.SetLevel(logrus.DebugLevel)
			logrus.WithField("gitstage_version", config.Version).Debug("enabled debug logging")
		}

		var configDirs []string
		repo, err := getRepo()
		// If we weren't able to load the Git repo, that probably just means the
		// command isn't being run from inside a repo. That's fine, we just
		// don't need to bother reading repo-local config.
		if err != nil {
			logrus.WithError(err).Debug("unable to load Git repo (probably not inside a repo)")
		} else {
			configDirs = append(configDirs, repo.StateDir())
			logrus.WithField("git_dir", repo.GitDir()).Debug("loaded Git repo")
		}

		// Note: this only returns an error if config exists and it can't be
		// read/parsed. It doesn't return an error if no config file exists.
		didLoadConfig, err := config.Load(configDirs)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		if didLoadConfig {
			logrus.Debug("loaded configuration")
		} else {
			logrus.Debug("no configuration found")
		}
		if err := config.LoadUserState(); err != nil {
			logrus.WithError(err).Debug("failed to load user state")
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(
		&rootFlags.Debug, "debug", false,
		"enable verbose debug logging",
	)
	rootCmd.PersistentFlags().StringVarP(
		&rootFlags.Directory, "repo", "C", "",
		"directory to use for git repository",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootFlags.Color, "color", "auto",
		"when to color the output (auto, always or never)",
	)
	rootCmd.AddCommand(
		commitCmd,
		diffCmd,
		stageCmd,
		statusCmd,
		unstageCmd,
		versionCmd,
		watchCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(errExitSilently); ok {
			os.Exit(exitErr.exitCode)
		}

		// In debug mode, show more detailed information about the error
		// (including the stack trace if using pkg/errors).
		if rootFlags.Debug {
			stackTrace := fmt.Sprintf("%+v", err)
			_, _ = fmt.Fprint(os.Stderr, uiutils.RenderError(err), stringutils.Indent(stackTrace, "\t"), "\n")
		} else {
			_, _ = fmt.Fprint(os.Stderr, uiutils.RenderError(err))
		}

		os.Exit(1)
	}
}

// errExitSilently exits with the code without printing anything. The command
// already told the user what went wrong.
type errExitSilently struct {
	exitCode int
}

func (e errExitSilently) Error() string {
	return fmt.Sprintf("exit %d", e.exitCode)
}

func setupColor(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		color.NoColor = os.Getenv("NO_COLOR") != "" ||
			!(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	default:
		return errors.Errorf("invalid --color value %q (expected auto, always or never)", mode)
	}
	return nil
}

var cachedRepo *git.Repo

func getRepo() (*git.Repo, error) {
	if cachedRepo == nil {
		cmd := exec.Command("git", "rev-parse", "--show-toplevel")
		if rootFlags.Directory != "" {
			cmd.Dir = rootFlags.Directory
		}
		toplevel, err := cmd.Output()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine repo toplevel (are you running inside a Git repo?)")
		}
		cachedRepo, err = git.OpenRepo(strings.TrimSpace(string(toplevel)))
		if err != nil {
			return nil, errors.Wrap(err, "failed to open git repo")
		}
	}
	return cachedRepo, nil
}

// getBuilder opens the repository and scans it into a fresh builder.
func getBuilder(ctx context.Context) (*stage.Builder, error) {
	repo, err := getRepo()
	if err != nil {
		return nil, err
	}
	return stage.New(ctx, repo, nil, stage.Options{
		ContextLines: contextLines(config.Gitstage.Stage.ContextLines),
	})
}

// contextLines maps the configured number of context lines to the builder
// option, where zero selects the default.
func contextLines(n int) int {
	if n == 0 {
		return git.NoContext
	}
	return n
}

// resolveArg maps a command line path argument, which is relative to the
// process working directory (or -C), to an absolute path.
func resolveArg(arg string) string {
	if rootFlags.Directory != "" && !filepath.IsAbs(arg) {
		return filepath.Join(rootFlags.Directory, arg)
	}
	return arg
}
