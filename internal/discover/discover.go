// Package discover finds documentable source files in a Puppet module.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/ppdoc/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to module root
	Language string
}

// Options control discovery.
type Options struct {
	// Exclude holds gitignore-style patterns, matched against paths
	// relative to the module root.
	Exclude []string
}

// searchDirs are the module directories holding documentable sources, in
// the order their files are extracted. Files elsewhere come last.
var searchDirs = []string{"manifests", "functions", "types", "lib"}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".bundle":      {},
	"node_modules": {},
	"vendor":       {},
	"pkg":          {},
	"spec":         {},
	"fixtures":     {},
	"coverage":     {},
}

// Files discovers .pp and .rb sources under root, ordered by module
// directory and then by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}
	var exclude *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		exclude = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if exclude != nil && exclude.MatchesPath(rel) {
			return nil
		}
		if IsTestFile(rel) {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := dirRank(results[i].Path), dirRank(results[j].Path)
		if ri != rj {
			return ri < rj
		}
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// IsTestFile reports whether rel is part of a module's test suite rather
// than its sources.
func IsTestFile(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if part == "spec" {
			return true
		}
	}
	return strings.HasSuffix(rel, "_spec.rb")
}

func dirRank(rel string) int {
	top, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	for i, d := range searchDirs {
		if top == d {
			return i
		}
	}
	return len(searchDirs)
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
