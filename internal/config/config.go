package config

import (
	"os"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/spf13/viper"
)

type Stage struct {
	// ContextLines is the number of unchanged lines shown around each hunk.
	ContextLines int
}

type Watch struct {
	// Debounce is how long to wait for the work tree to settle before
	// rescanning it.
	Debounce time.Duration
}

type Commit struct {
	// SigningFormat overrides gpg.format from the git configuration.
	SigningFormat string
	// Editor is the command used to edit commit messages. If empty, the git
	// default editor is used.
	Editor string
	// KeepDraft keeps the message of a failed commit so that it can be
	// reused by the next one.
	KeepDraft bool
}

var Gitstage = struct {
	Stage  Stage
	Watch  Watch
	Commit Commit
}{
	Stage: Stage{
		ContextLines: 3,
	},
	Watch: Watch{
		Debounce: 300 * time.Millisecond,
	},
	Commit: Commit{
		KeepDraft: true,
	},
}

// Load initializes the configuration values.
// It may optionally be called with a list of additional paths to check for the
// config file.
// Returns a boolean indicating whether or not a config file was loaded and an
// error if one occurred.
func Load(paths []string) (bool, error) {
	loaded, err := loadFromFile(paths)
	if err != nil {
		return loaded, err
	}
	return loaded, loadFromEnv()
}

func loadFromFile(paths []string) (bool, error) {
	config := viper.New()

	// Viper has support for various formats, so it supports json, toml, yaml,
	// and more (https://github.com/spf13/viper#reading-config-files).
	config.SetConfigName("config")

	// Reasonable places to look for config files.
	config.AddConfigPath("$XDG_CONFIG_HOME/gitstage")
	config.AddConfigPath("$HOME/.config/gitstage")
	config.AddConfigPath("$GITSTAGE_HOME")
	// Add additional custom paths.
	// The primary use case for this is adding repository-specific
	// configuration (e.g., $REPO/.git/gitstage/config.yaml).
	for _, path := range paths {
		config.AddConfigPath(path)
	}

	if err := config.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return false, nil
		}
		return false, err
	}

	if err := config.Unmarshal(&Gitstage); err != nil {
		return true, errors.Wrap(err, "failed to read gitstage configs")
	}

	return true, nil
}

func loadFromEnv() error {
	if editor := os.Getenv("GITSTAGE_EDITOR"); editor != "" {
		Gitstage.Commit.Editor = editor
	}
	if lines := os.Getenv("GITSTAGE_CONTEXT_LINES"); lines != "" {
		n, err := strconv.Atoi(lines)
		if err != nil {
			return errors.WrapIff(err, "invalid GITSTAGE_CONTEXT_LINES %q", lines)
		}
		Gitstage.Stage.ContextLines = n
	}
	return nil
}
