package main

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusFlags struct {
	Short bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the staged, unstaged and untracked files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := getBuilder(cmd.Context())
		if err != nil {
			return err
		}
		if statusFlags.Short {
			return printShortStatus(b)
		}
		return printStatus(b)
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusFlags.Short, "short", "s", false, "give the output in the short format")
}

func printShortStatus(b *stage.Builder) error {
	staged, unstaged := b.Diffs()
	for _, e := range git.BuildStatus(staged, unstaged, b.Untracked().Paths()) {
		path := e.Path
		if e.OldPath != "" {
			path = e.OldPath + " -> " + e.Path
		}
		fmt.Printf("%s %s\n", e.Flags.Short(), path)
	}
	return nil
}

func printStatus(b *stage.Builder) error {
	if err := printHead(b); err != nil {
		return err
	}
	staged, unstaged := b.Diffs()

	if b.Staged().Len() > 0 {
		fmt.Println()
		fmt.Println("Changes to be committed:")
		for _, e := range b.Staged().Entries() {
			if err := printDeltaLine(staged, e.HeadToIndex, colors.Success); err != nil {
				return err
			}
		}
	}
	if b.Unstaged().Len() > 0 {
		fmt.Println()
		fmt.Println("Changes not staged for commit:")
		for _, e := range b.Unstaged().Entries() {
			if err := printDeltaLine(unstaged, e.IndexToWorkdir, colors.Failure); err != nil {
				return err
			}
		}
	}
	if b.Untracked().Len() > 0 {
		fmt.Println()
		fmt.Println("Untracked files:")
		for _, path := range b.Untracked().Paths() {
			size := ""
			if info, err := os.Stat(b.Paths().WorkdirFile(path)); err == nil {
				size = colors.Faint(" (", humanize.IBytes(uint64(info.Size())), ")")
			}
			fmt.Printf("\t%s%s\n", colors.Failure(path), size)
		}
		if b.Truncated() {
			fmt.Println(colors.Warning(fmt.Sprintf(
				"\t... more untracked files not shown (only the first %s are listed)",
				humanize.Comma(stage.MaxInitiallyUntracked),
			)))
		}
	}

	if b.Staged().Len() == 0 {
		fmt.Println()
		if b.Unstaged().Len() == 0 && b.Untracked().Len() == 0 {
			fmt.Println("nothing to commit, working tree clean")
		} else {
			fmt.Println("no changes added to commit (use " + colors.CliCmd("gitstage stage") + ")")
		}
	}
	return nil
}

func printHead(b *stage.Builder) error {
	repo, err := getRepo()
	if err != nil {
		return err
	}
	branch, err := repo.CurrentBranchName()
	if err != nil {
		fmt.Println("HEAD detached")
	} else {
		fmt.Printf("On branch %s\n", colors.Bold(branch))
	}
	parent := b.Parent()
	if parent == nil {
		fmt.Println()
		fmt.Println("No commits yet")
		return nil
	}
	fmt.Printf("%s %s %s\n",
		colors.Faint(git.ShortSha(parent.Hash().String())),
		parent.Subject(),
		colors.Faint("(", humanize.Time(parent.Author().When), ")"),
	)
	return nil
}

func printDeltaLine(diff *git.Diff, delta *git.Delta, paint func(...any) string) error {
	if delta == nil {
		return errors.New("status entry without a delta")
	}
	path := delta.Path()
	if delta.Status == git.DeltaRenamed {
		path = delta.Old.Path + " -> " + delta.New.Path
	}
	stats := ""
	if i, _, ok := diff.FindDelta(delta.Path()); ok {
		p, err := diff.PatchForDelta(i)
		if err != nil {
			return err
		}
		switch {
		case p.Binary:
			stats = colors.Faint(" (binary)")
		default:
			ins, del := p.Stats()
			stats = fmt.Sprintf(" %s %s", colors.Success("+", ins), colors.Failure("-", del))
		}
	}
	fmt.Printf("\t%s %s%s\n", paint(fmt.Sprintf("%-10s", delta.Status.String()+":")), paint(path), stats)
	return nil
}
