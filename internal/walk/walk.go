// Package walk enumerates candidate files under a scan root.
//
// Within each directory, files are visited in lexical order before any
// subdirectory is entered, so output order is stable across platforms.
// Dot-files are never returned.
package walk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidRoot is returned when the root does not exist or is not a directory.
var ErrInvalidRoot = errors.New("root is not an existing directory")

// Options controls a walk.
type Options struct {
	Recurse bool
	// Exclude holds doublestar patterns matched against slash-separated paths
	// relative to the root.
	Exclude []string
	// Match selects files by base name. A nil Match accepts every file.
	Match func(name string) bool
}

// Skipped records a directory that could not be listed.
type Skipped struct {
	Path string
	Err  error
}

// Result lists matched files in visit order.
type Result struct {
	Files   []string
	Skipped []Skipped
}

// Extensions returns a Match func accepting names ending in any of exts.
// Comparison is case-sensitive.
func Extensions(exts ...string) func(string) bool {
	return func(name string) bool {
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	}
}

// CheckRoot verifies root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrInvalidRoot, root)
		}
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidRoot, root)
	}
	return nil
}

// Files walks root according to opts. Unreadable subdirectories are recorded
// in Result.Skipped and do not stop the walk; an unreadable root is an error.
func Files(root string, opts Options) (*Result, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}
	root = filepath.Clean(root)
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	w := &walker{root: root, opts: opts, result: &Result{}}
	if err := w.dir(root); err != nil {
		return nil, err
	}
	return w.result, nil
}

type walker struct {
	root   string
	opts   Options
	result *Result
}

func (w *walker) dir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if path == w.root {
			return fmt.Errorf("read %s: %w", path, err)
		}
		w.result.Skipped = append(w.result.Skipped, Skipped{Path: path, Err: err})
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(path, name)
		if entry.IsDir() {
			if w.opts.Recurse && !w.excluded(full) {
				subdirs = append(subdirs, full)
			}
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		if w.opts.Match != nil && !w.opts.Match(name) {
			continue
		}
		if w.excluded(full) {
			continue
		}
		w.result.Files = append(w.result.Files, full)
	}
	for _, sub := range subdirs {
		if err := w.dir(sub); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) excluded(path string) bool {
	if len(w.opts.Exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
