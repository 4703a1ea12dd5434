package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/spf13/cobra"
)

var diffFlags struct {
	Staged    bool
	Untracked bool
}

var diffCmd = &cobra.Command{
	Use:   "diff [flags] [<file>...]",
	Short: "show the unstaged, staged or untracked changes",
	Long: strings.TrimSpace(`
Show changes in the 'git diff' format.

Without flags, the changes between the index and the work tree are shown. With
--staged, the changes between HEAD and the index are shown instead, and with
--untracked every untracked file is shown as a new file.
`),
	RunE: func(cmd *cobra.Command, args []string) error {
		if diffFlags.Staged && diffFlags.Untracked {
			return fmt.Errorf("--staged and --untracked cannot be used together")
		}
		ctx := cmd.Context()
		b, err := getBuilder(ctx)
		if err != nil {
			return err
		}
		views, err := loadDiffViews(ctx, b, args)
		if err != nil {
			return err
		}
		for _, v := range views {
			text, err := v.Serialize()
			if err != nil {
				return err
			}
			printPatch(text)
		}
		return nil
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffFlags.Staged, "staged", false, "show the changes that are staged for the next commit")
	diffCmd.Flags().BoolVar(&diffFlags.Untracked, "untracked", false, "show untracked files as new files")
}

func loadDiffViews(ctx context.Context, b *stage.Builder, args []string) ([]*stage.DeltaView, error) {
	load := b.LoadUnstagedDelta
	list := b.Unstaged()
	switch {
	case diffFlags.Staged:
		load, list = b.LoadStagedDelta, b.Staged()
	case diffFlags.Untracked:
		load, list = b.LoadUntrackedDelta, b.Untracked()
	}

	var files []string
	if len(args) > 0 {
		for _, arg := range args {
			files = append(files, resolveArg(arg))
		}
	} else {
		for _, path := range list.Paths() {
			files = append(files, b.Paths().WorkdirFile(path))
		}
	}

	var views []*stage.DeltaView
	for _, file := range files {
		v, err := load(ctx, file)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// printPatch prints a patch in `git diff` format, colored the way git colors
// it.
func printPatch(text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "diff --git "),
			strings.HasPrefix(line, "--- "),
			strings.HasPrefix(line, "+++ "),
			strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, "new file mode "),
			strings.HasPrefix(line, "deleted file mode "):
			body = colors.Bold(body)
		case strings.HasPrefix(line, "@@"):
			body = colors.UserInput(body)
		case strings.HasPrefix(line, "+"):
			body = colors.Success(body)
		case strings.HasPrefix(line, "-"):
			body = colors.Failure(body)
		case strings.HasPrefix(line, "\\"):
			body = colors.Faint(body)
		}
		fmt.Print(body)
		if strings.HasSuffix(line, "\n") {
			fmt.Println()
		}
	}
}
