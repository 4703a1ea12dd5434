package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/aviator-co/gitstage/internal/stage/stageui"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/aviator-co/gitstage/internal/utils/uiutils"
	"github.com/spf13/cobra"
)

var fragmentFlags struct {
	Hunks       []int
	Lines       []string
	Interactive bool
}

var stageCmd = &cobra.Command{
	Use:   "stage [flags] <file>...",
	Short: "stage whole files, hunks or single lines",
	Long: strings.TrimSpace(`
Stage changes for the next commit.

Without flags, every change of the given files is staged, including new and
deleted files. With --hunk or --line only the selected part of the changes of a
single file is staged; run 'gitstage diff <file>' to see the hunk numbers.
Untracked files can be staged partially too.
`),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), args, false)
	},
}

var unstageCmd = &cobra.Command{
	Use:   "unstage [flags] <file>...",
	Short: "unstage whole files, hunks or single lines",
	Long: strings.TrimSpace(`
Remove changes from the index, leaving the work tree alone.

Without flags, the index entries of the given files are reset to the parent
commit. With --hunk or --line only the selected part of the staged changes of a
single file is removed; run 'gitstage diff --staged <file>' to see the hunk
numbers.
`),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), args, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{stageCmd, unstageCmd} {
		cmd.Flags().IntSliceVar(&fragmentFlags.Hunks, "hunk", nil,
			"only the given hunks (1-based, may be repeated)")
		cmd.Flags().StringSliceVar(&fragmentFlags.Lines, "line", nil,
			"only the given lines as <hunk>:<line> or <hunk>:<first>-<last> (1-based, may be repeated)")
		cmd.Flags().BoolVarP(&fragmentFlags.Interactive, "interactive", "i", false,
			"choose the hunks interactively")
		cmd.MarkFlagsMutuallyExclusive("hunk", "line", "interactive")
	}
}

func runStage(ctx context.Context, args []string, unstage bool) error {
	b, err := getBuilder(ctx)
	if err != nil {
		return err
	}
	verb := "Stage"
	if unstage {
		verb = "Unstage"
	}

	if len(fragmentFlags.Hunks) == 0 && len(fragmentFlags.Lines) == 0 && !fragmentFlags.Interactive {
		for _, arg := range args {
			file := resolveArg(arg)
			if unstage {
				err = b.UnstageFile(ctx, file)
			} else {
				err = b.StageFile(ctx, file)
			}
			if err != nil {
				return errors.WrapIff(err, "failed to %s %s", strings.ToLower(verb), arg)
			}
			fmt.Printf("%sd %s\n", verb, colors.UserInput(arg))
		}
		return nil
	}

	if len(args) != 1 {
		return errors.New("--hunk, --line and --interactive take exactly one file")
	}
	file := resolveArg(args[0])
	view, err := loadFragmentView(ctx, b, file, unstage)
	if err != nil {
		return err
	}
	patch, err := view.Patch()
	if err != nil {
		return err
	}
	if patch.Binary {
		return errors.Errorf("%s is a binary file; %s it as a whole", args[0], strings.ToLower(verb))
	}

	if len(fragmentFlags.Lines) > 0 {
		lines, err := selectLines(patch, fragmentFlags.Lines)
		if err != nil {
			return err
		}
		if unstage {
			err = b.UnstageLines(ctx, file, lines)
		} else {
			err = b.StageLines(ctx, file, lines)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%sd %s of %s\n", verb, plural(len(lines), "line"), colors.UserInput(args[0]))
		return nil
	}

	var hunks []git.Hunk
	if fragmentFlags.Interactive {
		picker := stageui.NewHunkPicker(verb, patch)
		if err := uiutils.RunBubbleTea(picker, true); err != nil {
			return err
		}
		if !picker.Done() {
			return errExitSilently{exitCode: 130}
		}
		hunks = picker.Chosen()
	} else {
		hunks, err = selectHunks(patch, fragmentFlags.Hunks)
		if err != nil {
			return err
		}
	}
	if len(hunks) == 0 {
		fmt.Println("Nothing selected.")
		return nil
	}
	if unstage {
		err = b.UnstageHunks(ctx, file, hunks)
	} else {
		err = b.StageHunks(ctx, file, hunks)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%sd %s of %s\n", verb, plural(len(hunks), "hunk"), colors.UserInput(args[0]))
	return nil
}

// loadFragmentView finds the change of file that fragments are picked from:
// the staged change when unstaging, otherwise the unstaged change of a
// tracked file or the contents of an untracked one.
func loadFragmentView(ctx context.Context, b *stage.Builder, file string, unstage bool) (*stage.DeltaView, error) {
	if unstage {
		return b.LoadStagedDelta(ctx, file)
	}
	view, err := b.LoadUnstagedDelta(ctx, file)
	if errors.Is(err, git.ErrNotFound) {
		if untracked, uerr := b.LoadUntrackedDelta(ctx, file); uerr == nil {
			return untracked, nil
		}
	}
	return view, err
}

func selectHunks(patch *git.Patch, numbers []int) ([]git.Hunk, error) {
	var hunks []git.Hunk
	for _, n := range numbers {
		if n < 1 || n > len(patch.Hunks) {
			return nil, errors.Errorf("hunk %d does not exist (the change has %s)", n, plural(len(patch.Hunks), "hunk"))
		}
		hunks = append(hunks, patch.Hunks[n-1])
	}
	return hunks, nil
}

// selectLines resolves <hunk>:<line> and <hunk>:<first>-<last> selectors. Line
// numbers count the lines of the hunk as printed below its header.
func selectLines(patch *git.Patch, selectors []string) ([]git.Line, error) {
	var lines []git.Line
	for _, sel := range selectors {
		hunkPart, linePart, ok := strings.Cut(sel, ":")
		if !ok {
			return nil, errors.Errorf("invalid line selector %q (expected <hunk>:<line>)", sel)
		}
		hunkNo, err := strconv.Atoi(hunkPart)
		if err != nil {
			return nil, errors.WrapIff(err, "invalid hunk number in %q", sel)
		}
		hunks, err := selectHunks(patch, []int{hunkNo})
		if err != nil {
			return nil, err
		}
		first, last, err := parseRange(linePart)
		if err != nil {
			return nil, errors.WrapIff(err, "invalid line range in %q", sel)
		}
		h := hunks[0]
		if first < 1 || last > len(h.Lines) || first > last {
			return nil, errors.Errorf("%q is out of range (hunk %d has %s)", sel, hunkNo, plural(len(h.Lines), "line"))
		}
		for _, l := range h.Lines[first-1 : last] {
			if l.Origin != git.OriginAdded && l.Origin != git.OriginDeleted {
				continue
			}
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, errors.New("the selected lines contain no changes")
	}
	return lines, nil
}

func parseRange(s string) (int, int, error) {
	from, to, isRange := strings.Cut(s, "-")
	first, err := strconv.Atoi(from)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return first, first, nil
	}
	last, err := strconv.Atoi(to)
	if err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
