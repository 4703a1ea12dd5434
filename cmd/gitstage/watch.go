package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aviator-co/gitstage/internal/config"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	Debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "print changes to the staged, unstaged and untracked files as they happen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := getBuilder(ctx)
		if err != nil {
			return err
		}
		for _, list := range []*stage.EntryList{b.Staged(), b.Unstaged(), b.Untracked()} {
			list.Subscribe(func(c stage.EntryChange) {
				printEntryChange(list.Name(), c)
			})
		}
		b.OnCanCommitChanged(func(canCommit bool) {
			logrus.WithField("can_commit", canCommit).Debug("commit readiness changed")
		})

		debounce := watchFlags.Debounce
		if debounce == 0 {
			debounce = config.Gitstage.Watch.Debounce
		}
		fmt.Printf("Watching %s (%d staged, %d unstaged, %d untracked). Press Ctrl-C to stop.\n",
			colors.UserInput(b.Paths().WorkDir), b.Staged().Len(), b.Unstaged().Len(), b.Untracked().Len())
		err = b.Watch(ctx, debounce, func(err error) {
			if err != nil {
				_, _ = fmt.Fprintln(os.Stderr, colors.Failure("refresh failed: ", err))
			}
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlags.Debounce, "debounce", 0,
		"how long the work tree must be quiet before it is rescanned (default from config)")
}

func printEntryChange(list string, c stage.EntryChange) {
	var mark string
	switch c.Kind {
	case stage.EntryAdded:
		mark = colors.Success("+")
	case stage.EntryRemoved:
		mark = colors.Failure("-")
	default:
		mark = colors.Warning("~")
	}
	fmt.Printf("%s %-9s %s %s\n",
		mark, list, c.Entry.Path, colors.Faint(c.Entry.Flags.Short()))
}
