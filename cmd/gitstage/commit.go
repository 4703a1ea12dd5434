package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/config"
	"github.com/aviator-co/gitstage/internal/editor"
	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/aviator-co/gitstage/internal/utils/errutils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var commitFlags struct {
	Message    string
	Author     string
	Sign       bool
	NoSign     bool
	SigningKey string
	Format     string
}

// messageDraft is the message of a commit that could not be created.
type messageDraft struct {
	Message string
	SavedAt time.Time
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "commit the staged changes",
	Long: strings.TrimSpace(`
Create a commit from the staged changes and move the current branch to it.

Without --message, the message is written in an editor. If a commit fails, its
message is kept and offered again by the next commit.

The commit is signed when --sign is given or commit.gpgSign is set. The key is
read from user.signingKey and the kind of signature from gpg.format, like git
does.
`),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := getRepo()
		if err != nil {
			return err
		}
		b, err := getBuilder(ctx)
		if err != nil {
			return err
		}
		if b.Staged().Len() == 0 {
			_, _ = fmt.Fprintln(os.Stderr, "nothing to commit (use", colors.CliCmd("gitstage stage"), "first)")
			return errExitSilently{exitCode: 1}
		}
		if err := applyCommitFlags(repo, b); err != nil {
			return err
		}

		message := commitFlags.Message
		if message == "" {
			message, err = editMessage(repo, b)
			if err != nil {
				return err
			}
			if message == "" {
				return errors.New("aborting commit due to empty commit message")
			}
		}
		b.SetMessage(message)

		return createCommit(ctx, repo, b)
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitFlags.Message, "message", "m", "", "the commit message")
	commitCmd.Flags().StringVar(&commitFlags.Author, "author", "", "override the author (\"Name <email>\")")
	commitCmd.Flags().BoolVarP(&commitFlags.Sign, "sign", "S", false, "sign the commit")
	commitCmd.Flags().BoolVar(&commitFlags.NoSign, "no-sign", false, "do not sign the commit even if commit.gpgSign is set")
	commitCmd.Flags().StringVar(&commitFlags.SigningKey, "signing-key", "", "the key to sign with (defaults to user.signingKey)")
	commitCmd.Flags().StringVar(&commitFlags.Format, "format", "", "the kind of signature: openpgp, x509 or ssh (defaults to gpg.format)")
	commitCmd.MarkFlagsMutuallyExclusive("sign", "no-sign")
}

func applyCommitFlags(repo *git.Repo, b *stage.Builder) error {
	if commitFlags.Author != "" {
		name, email, err := parseAuthor(commitFlags.Author)
		if err != nil {
			return err
		}
		b.SetAuthorName(name)
		b.SetAuthorEmail(email)
	}

	sign := commitFlags.Sign || commitFlags.SigningKey != ""
	if !sign && !commitFlags.NoSign {
		r, err := repo.Paths().Open()
		if err != nil {
			return err
		}
		v, _ := git.ConfigValue(r, "commit.gpgSign")
		sign = strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
	}
	if !sign {
		b.SetSigningKey("")
		return nil
	}
	if commitFlags.SigningKey != "" {
		b.SetSigningKey(commitFlags.SigningKey)
	}
	if b.SigningKey() == "" {
		return errors.New("cannot sign the commit: user.signingKey is not set (use --signing-key)")
	}
	format := commitFlags.Format
	if format == "" {
		format = config.Gitstage.Commit.SigningFormat
	}
	if format != "" {
		b.SetSigningFormat(format)
	}
	return nil
}

// parseAuthor splits "Name <email>".
func parseAuthor(author string) (name string, email string, err error) {
	open := strings.LastIndex(author, "<")
	if open < 0 || !strings.HasSuffix(author, ">") {
		return "", "", errors.Errorf("invalid author %q (expected \"Name <email>\")", author)
	}
	name = strings.TrimSpace(author[:open])
	email = strings.TrimSpace(author[open+1 : len(author)-1])
	if name == "" || email == "" {
		return "", "", errors.Errorf("invalid author %q (expected \"Name <email>\")", author)
	}
	return name, email, nil
}

func editMessage(repo *git.Repo, b *stage.Builder) (string, error) {
	var draft messageDraft
	text := ""
	if config.Gitstage.Commit.KeepDraft {
		if err := repo.ReadStateFile(git.StateFileKindMessageDraft, &draft); err == nil {
			text = draft.Message
			logrus.WithField("saved_at", draft.SavedAt).Debug("restoring message draft")
		} else if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("failed to read the message draft")
		}
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += "\n" + messageTemplate(b)

	return editor.Launch(repo, editor.Config{
		Text:           text,
		TmpFilePattern: "COMMIT_EDITMSG-*",
		CommentPrefix:  "#",
		Command:        config.Gitstage.Commit.Editor,
	})
}

func messageTemplate(b *stage.Builder) string {
	sb := strings.Builder{}
	sb.WriteString("# Please enter the commit message for your changes. Lines starting\n")
	sb.WriteString("# with '#' will be ignored, and an empty message aborts the commit.\n")
	sb.WriteString("#\n# Changes to be committed:\n")
	for _, e := range b.Staged().Entries() {
		if e.HeadToIndex == nil {
			continue
		}
		path := e.Path
		if e.OldPath != "" {
			path = e.OldPath + " -> " + e.Path
		}
		fmt.Fprintf(&sb, "#\t%-11s %s\n", e.HeadToIndex.Status.String()+":", path)
	}
	return sb.String()
}

func createCommit(ctx context.Context, repo *git.Repo, b *stage.Builder) error {
	staged, _ := b.Diffs()
	stats, err := staged.Stats()
	if err != nil {
		logrus.WithError(err).Debug("failed to compute the commit stats")
	}

	commit, err := b.Commit(ctx)
	if err != nil {
		if headErr, ok := errutils.As[*git.HeadUpdateError](err); ok {
			_, _ = fmt.Fprint(os.Stderr,
				colors.Warning("Created commit "+git.ShortSha(headErr.Commit)+" but could not move the branch to it."), "\n",
				colors.Troubleshooting("Run "), colors.CliCmd("git reset --soft "+headErr.Commit),
				colors.Troubleshooting(" once the problem is fixed to use it."), "\n",
			)
			return err
		}
		saveDraft(repo, b.Message())
		return err
	}
	if err := repo.WriteStateFile(git.StateFileKindMessageDraft, nil); err != nil {
		logrus.WithError(err).Warn("failed to remove the message draft")
	}

	branch, err := repo.CurrentBranchName()
	if err != nil {
		branch = "detached HEAD"
	}
	root := ""
	if len(commit.ParentHashes()) == 0 {
		root = " (root-commit)"
	}
	fmt.Printf("[%s%s %s] %s\n", branch, root, git.ShortSha(commit.Hash().String()), commit.Subject())
	fmt.Printf(" %s changed, %s(+), %s(-)\n",
		plural(stats.FilesChanged, "file"),
		plural(stats.Insertions, "insertion"),
		plural(stats.Deletions, "deletion"),
	)
	if commit.Signature() != "" {
		fmt.Println(colors.Faint(" signed with ", b.SigningKey()))
	}
	return nil
}

func saveDraft(repo *git.Repo, message string) {
	if !config.Gitstage.Commit.KeepDraft || message == "" {
		return
	}
	draft := messageDraft{Message: message, SavedAt: time.Now()}
	if err := repo.WriteStateFile(git.StateFileKindMessageDraft, &draft); err != nil {
		logrus.WithError(err).Warn("failed to save the message draft")
		return
	}
	if config.UserState.NotifiedDraftRestore {
		return
	}
	_, _ = fmt.Fprint(os.Stderr,
		colors.Troubleshooting("The commit message was saved and will be offered by the next "),
		colors.CliCmd("gitstage commit"), colors.Troubleshooting("."), "\n",
	)
	config.UserState.NotifiedDraftRestore = true
	if err := config.SaveUserState(); err != nil {
		logrus.WithError(err).Debug("failed to save user state")
	}
}
