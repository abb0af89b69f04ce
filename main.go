// ppdoc generates a Markdown reference for a Puppet module.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/ppdoc/internal/config"
	"github.com/phobologic/ppdoc/internal/discover"
	"github.com/phobologic/ppdoc/internal/extract"
	"github.com/phobologic/ppdoc/internal/lang"
	"github.com/phobologic/ppdoc/internal/log"
	"github.com/phobologic/ppdoc/internal/markdown"
	"github.com/phobologic/ppdoc/internal/output"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "ppdoc [flags] [path ...]",
		Short: "Generate a Markdown reference for a Puppet module",
		Long: `ppdoc extracts the documentation comments of Puppet classes, defined types
and functions, 4.x Ruby functions, resource types and providers, and renders
them as one Markdown reference with a table of contents.

Each path is a module directory or a single .pp/.rb file; the default is the
current directory. Settings may also come from PPDOC_* environment variables
or a .ppdoc.yaml/.ppdoc.toml file in the module root.`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := modulePaths(args)
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

			if cfg.WritesStdout() {
				return output.Write(stdout, []byte(doc))
			}
			if err := output.WriteFile(cfg.Output, []byte(doc)); err != nil {
				return err
			}
			logger.Info("wrote reference", "path", cfg.Output)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("ppdoc {{.Version}}\n")

	cfg.RegisterFlags(cmd.PersistentFlags())
	if err := cfg.RegisterCompletions(cmd); err != nil {
		panic(err)
	}

	cmd.AddCommand(newInjectCmd(cfg, stdout, stderr))
	return cmd
}

func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, error) {
	h, err := log.CreateHandlerWithStrings(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

func modulePaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// configDir is the directory searched for a config file: the first
// module directory, or the directory of the first file.
func configDir(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return filepath.Dir(paths[0])
}

// generate extracts every source unit under paths and renders the
// reference.
func generate(cfg *config.Config, paths []string, logger *slog.Logger) (string, error) {
	units, err := collectUnits(cfg, paths)
	if err != nil {
		return "", err
	}
	if len(units) == 0 {
		return "", fmt.Errorf("no .pp or .rb files found")
	}

	x, err := extract.New(logger)
	if err != nil {
		return "", err
	}

	for _, path := range filterBySize(units, cfg.MaxFileSize, x) {
		src, err := os.ReadFile(path)
		if err != nil {
			x.Skip(path, err)
			continue
		}
		x.Unit(path, src)
	}

	skipped := len(x.Skipped())
	if skipped == len(units) {
		return "", fmt.Errorf("no source units could be extracted: all %d skipped", skipped)
	}

	reg, err := x.Finish()
	if err != nil {
		return "", err
	}
	logger.Debug("extraction finished", "entities", reg.Len(), "skipped", skipped)

	return markdown.Render(reg, markdown.Options{Title: cfg.Title}), nil
}

// collectUnits expands module directories into their source files, in
// discovery order, and keeps explicit files as given.
func collectUnits(cfg *config.Config, paths []string) ([]string, error) {
	var units []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("module path: %w", err)
		}

		if !info.IsDir() {
			if lang.ForExtension(filepath.Ext(p)) == "" {
				return nil, fmt.Errorf("%s: not a .pp or .rb file", p)
			}
			units = append(units, p)
			continue
		}

		files, err := discover.Files(p, discover.Options{Exclude: cfg.Exclude})
		if err != nil {
			return nil, fmt.Errorf("discovering files: %w", err)
		}
		for _, f := range files {
			units = append(units, filepath.Join(p, f.Path))
		}
	}
	return units, nil
}

func filterBySize(units []string, maxSize int64, x *extract.Extractor) []string {
	var kept []string
	for _, path := range units {
		fi, err := os.Stat(path)
		if err != nil {
			kept = append(kept, path) // the read reports it
			continue
		}
		if fi.Size() > maxSize {
			x.Skip(path, fmt.Errorf("file exceeds %d bytes", maxSize))
			continue
		}
		kept = append(kept, path)
	}
	return kept
}
