// Binary convert-manpages renders the man pages of gitstage from Markdown.
//
//	go run ./docs --output-dir out/man --version v1.2.3
//	go run ./docs --preview docs/gitstage-stage.1.md
package main

import (
	"bytes"
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"

	"github.com/aviator-co/gitstage/docs/internal/md2man"
	"github.com/spf13/pflag"
)

var (
	preview    = pflag.Bool("preview", false, "Show the rendered man page instead of writing it")
	previewRaw = pflag.Bool("preview-raw", false, "Print the rendered roff source instead of writing it")
	inputDir   = pflag.String("input-dir", "docs", "Directory with the <name>.<section>.md pages")
	outputDir  = pflag.String("output-dir", "", "Directory to write man<section>/<name>.<section> files to")
	version    = pflag.String("version", "", "The manual version")

	// gitstage-stage.1.md -> ("gitstage-stage.1", "1")
	manpageMarkdownPattern = regexp.MustCompile(`^(.+[.](\d))[.]md$`)
)

func main() {
	pflag.Parse()

	if *preview || *previewRaw || *outputDir == "" {
		args := pflag.Args()
		if len(args) != 1 {
			pflag.Usage()
			os.Exit(1)
		}
		if err := previewPage(args[0]); err != nil {
			log.Fatal(err)
		}
		return
	}

	pages, err := filepath.Glob(filepath.Join(*inputDir, "*.md"))
	if err != nil {
		log.Fatal(err)
	}
	for _, page := range pages {
		matches := manpageMarkdownPattern.FindStringSubmatch(filepath.Base(page))
		if matches == nil {
			continue
		}
		roff, err := render(page)
		if err != nil {
			log.Fatalf("Cannot render %q: %v", page, err)
		}
		out := filepath.Join(*outputDir, "man"+matches[2], matches[1])
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			log.Fatalf("Cannot create the output directory: %v", err)
		}
		if err := os.WriteFile(out, roff, 0o644); err != nil {
			log.Fatalf("Cannot write %q: %v", out, err)
		}
		log.Printf("wrote %s", out)
	}
}

func render(page string) ([]byte, error) {
	matches := manpageMarkdownPattern.FindStringSubmatch(filepath.Base(page))
	if matches == nil {
		return nil, errors.New("file name must look like <name>.<section>.md")
	}
	section, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, err
	}
	bs, err := os.ReadFile(page)
	if err != nil {
		return nil, err
	}
	return md2man.RenderToRoff(bs, section, *version, "gitstage", "gitstage Manual"), nil
}

func previewPage(page string) error {
	roff, err := render(page)
	if err != nil {
		return err
	}
	if *previewRaw {
		_, err := os.Stdout.Write(roff)
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin", "freebsd":
		cmd = exec.Command("mandoc", "-a")
	case "linux":
		cmd = exec.Command("man", "-l", "-")
	default:
		return errors.New("operating system not supported for preview")
	}
	cmd.Stdin = bytes.NewReader(roff)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
