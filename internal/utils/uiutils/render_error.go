package uiutils

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/signing"
	"github.com/aviator-co/gitstage/internal/stage"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

const notEnoughInformation = `# ERROR: Not enough information to commit

A commit needs a message and an author. ` + "`gitstage`" + ` reads the author from
the ` + "`user.name`" + ` and ` + "`user.email`" + ` git settings, and falls back to your
login name when they are not set.

* Pass a message with ` + "`gitstage commit -m <message>`" + `, or leave out ` + "`-m`" + ` to
  write one in your editor.
* Set the author with ` + "`git config user.name <name>`" + ` and
  ` + "`git config user.email <email>`" + `, or pass ` + "`--author 'Name <email>'`" + `.
`

const signingFailed = `# ERROR: Could not sign the commit

The staged changes are untouched and no commit was created. Check that
` + "`user.signingKey`" + ` names a key your signing program can use, and that
` + "`gpg.format`" + ` matches the kind of key (` + "`openpgp`" + `, ` + "`x509`" + ` or ` + "`ssh`" + `).
Run the command again with ` + "`--debug`" + ` to see the signing program's output.
`

func RenderError(err error) string {
	var style string
	if lipgloss.HasDarkBackground() {
		style = styles.DarkStyle
	} else {
		style = styles.LightStyle
	}
	var markdownText string
	if errors.Is(err, stage.ErrNotEnoughInformation) {
		markdownText = notEnoughInformation
	} else if errors.Is(err, signing.ErrSigning) {
		markdownText = signingFailed
	}

	if markdownText != "" {
		if out, rerr := glamour.Render(markdownText, style); rerr == nil {
			return out + fmt.Sprintf("error: %s\n", err)
		}
		// If there's an error, fallback to the plaintext message.
	}
	return fmt.Sprintf("error: %s\n", err)
}
