package md2man

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/russross/blackfriday/v2"
)

// RoffRenderer renders a blackfriday AST as a man page.
type RoffRenderer struct {
	section int
	version string
	source  string
	volume  string
	date    time.Time

	// counters of the enclosing ordered lists; zero for unordered ones.
	lists []int
}

func NewRoffRenderer(section int, version, source, volume string) *RoffRenderer {
	return &RoffRenderer{
		section: section,
		version: version,
		source:  source,
		volume:  volume,
		date:    time.Now(),
	}
}

func (r *RoffRenderer) GetExtensions() blackfriday.Extensions {
	return blackfriday.NoIntraEmphasis |
		blackfriday.FencedCode |
		blackfriday.Autolink |
		blackfriday.SpaceHeadings |
		blackfriday.Strikethrough |
		blackfriday.DefinitionLists
}

// RenderHeader writes the title line. The title is the first word of the
// first heading (e.g., "# gitstage-stage - stage changes").
func (r *RoffRenderer) RenderHeader(w io.Writer, ast *blackfriday.Node) {
	title := "UNTITLED"
	for n := ast.FirstChild; n != nil; n = n.Next {
		if n.Type != blackfriday.Heading {
			continue
		}
		if fields := strings.Fields(nodeText(n)); len(fields) > 0 {
			title = fields[0]
		}
		break
	}
	source := strings.TrimSpace(r.source + " " + r.version)
	fmt.Fprintf(w, ".nh\n.TH %q %q %q %q %q\n",
		strings.ToUpper(title), fmt.Sprint(r.section), r.date.Format("Jan 2006"), source, r.volume)
}

func (r *RoffRenderer) RenderFooter(w io.Writer, ast *blackfriday.Node) {}

func (r *RoffRenderer) RenderNode(w io.Writer, node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
	switch node.Type {
	case blackfriday.Document:
	case blackfriday.Heading:
		if entering {
			if node.Level == 1 {
				fmt.Fprintf(w, "\n.SH %s\n", escape(strings.ToUpper(nodeText(node))))
			} else {
				fmt.Fprintf(w, "\n.SS %s\n", escape(nodeText(node)))
			}
		}
		return blackfriday.SkipChildren
	case blackfriday.Paragraph:
		if entering {
			if node.Parent == nil || node.Parent.Type != blackfriday.Item || node.Prev != nil {
				io.WriteString(w, "\n.PP\n")
			}
		} else {
			io.WriteString(w, "\n")
		}
	case blackfriday.Text:
		io.WriteString(w, escape(string(node.Literal)))
	case blackfriday.Strong:
		io.WriteString(w, fontSwitch(entering, `\fB`))
	case blackfriday.Emph:
		io.WriteString(w, fontSwitch(entering, `\fI`))
	case blackfriday.Del:
	case blackfriday.Code:
		fmt.Fprintf(w, `\fB%s\fP`, escape(string(node.Literal)))
	case blackfriday.CodeBlock:
		fmt.Fprintf(w, "\n.PP\n.RS\n\n.nf\n%s\n.fi\n.RE\n", escape(strings.TrimSuffix(string(node.Literal), "\n")))
	case blackfriday.Softbreak:
		io.WriteString(w, "\n")
	case blackfriday.Hardbreak:
		io.WriteString(w, "\n.br\n")
	case blackfriday.HorizontalRule:
		io.WriteString(w, "\n.ti 0\n\\l'\\n(.lu'\n")
	case blackfriday.Link:
		if !entering {
			dest := string(node.LinkData.Destination)
			if dest != "" && dest != nodeText(node) {
				fmt.Fprintf(w, ` \[la]%s\[ra]`, escape(dest))
			}
		}
	case blackfriday.BlockQuote:
		io.WriteString(w, blockIndent(entering))
	case blackfriday.List:
		if entering {
			counter := 0
			if node.ListFlags&blackfriday.ListTypeOrdered != 0 {
				counter = 1
			}
			r.lists = append(r.lists, counter)
			if len(r.lists) > 1 {
				io.WriteString(w, "\n.RS\n")
			}
		} else {
			if len(r.lists) > 1 {
				io.WriteString(w, "\n.RE\n")
			}
			r.lists = r.lists[:len(r.lists)-1]
		}
	case blackfriday.Item:
		if entering {
			r.renderItem(w, node)
		}
	case blackfriday.HTMLBlock, blackfriday.HTMLSpan, blackfriday.Image:
		return blackfriday.SkipChildren
	}
	return blackfriday.GoToNext
}

func (r *RoffRenderer) renderItem(w io.Writer, node *blackfriday.Node) {
	if len(r.lists) == 0 {
		return
	}
	top := &r.lists[len(r.lists)-1]
	switch {
	case node.ListFlags&blackfriday.ListTypeTerm != 0:
		io.WriteString(w, "\n.TP\n")
	case node.ListFlags&blackfriday.ListTypeDefinition != 0:
	case *top > 0:
		fmt.Fprintf(w, "\n.IP \"%d.\" 4\n", *top)
		*top++
	default:
		io.WriteString(w, "\n.IP \\(bu 2\n")
	}
}

func fontSwitch(entering bool, font string) string {
	if entering {
		return font
	}
	return `\fP`
}

func blockIndent(entering bool) string {
	if entering {
		return "\n.RS\n"
	}
	return "\n.RE\n"
}

func nodeText(node *blackfriday.Node) string {
	var buf bytes.Buffer
	node.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && (n.Type == blackfriday.Text || n.Type == blackfriday.Code) {
			buf.Write(n.Literal)
		}
		return blackfriday.GoToNext
	})
	return strings.TrimSpace(buf.String())
}

// escape protects text from being read as roff requests or escapes.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\e`)
	var out strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		if strings.HasPrefix(line, ".") || strings.HasPrefix(line, "'") {
			out.WriteString(`\&`)
		}
		out.WriteString(line)
	}
	return out.String()
}
