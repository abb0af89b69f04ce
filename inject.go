package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/ppdoc/internal/config"
	"github.com/phobologic/ppdoc/internal/output"
)

const (
	sentinelStart = "<!-- ppdoc:start -->"
	sentinelEnd   = "<!-- ppdoc:end -->"

	defaultInjectTarget = "README.md"
)

// newInjectCmd builds `ppdoc inject`, which writes (or updates) the
// reference as a section of an existing Markdown file.
func newInjectCmd(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "inject [flags] [FILE [path ...]]",
		Short: "Write the reference into a section of a Markdown file",
		Long: `Write the module reference into FILE. The section is wrapped in sentinel
comments so it can be updated in place on subsequent runs without touching
surrounding content. Creates the file if it does not exist.

FILE defaults to ./README.md. The remaining paths are the module directories
or source files to document, defaulting to the current directory. --output is
ignored.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var paths []string
			if len(args) > 1 {
				paths = args[1:]
			}
			paths = modulePaths(paths)

			if err := cfg.Load(cmd.Flags(), configDir(paths)); err != nil {
				return err
			}
			logger, err := newLogger(cfg, stderr)
			if err != nil {
				return err
			}

			doc, err := generate(cfg, paths, logger)
			if err != nil {
				return err
			}
			section := wrapSection(doc)

			// --dry-run with no file: just print the section itself.
			if dryRun && len(args) == 0 {
				return output.Write(stdout, []byte(section+"\n"))
			}

			path := defaultInjectTarget
			if len(args) > 0 {
				path = args[0]
			}

			existing, err := os.ReadFile(path)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			updated := applySection(string(existing), section)

			if dryRun {
				return output.Write(stdout, []byte(updated))
			}

			if err := output.WriteFile(path, []byte(updated)); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(stderr, "wrote ppdoc section to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// wrapSection returns the rendered reference between the sentinels.
func wrapSection(doc string) string {
	return sentinelStart + "\n" + strings.TrimRight(doc, "\n") + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
