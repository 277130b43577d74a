// Package discover enumerates the regular files beneath an input root.
//
// Enumerate yields slash-separated paths relative to the root. Directory
// symlinks are only descended when following is enabled, and a link that
// points back at one of its own ancestors is skipped so cycles terminate.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
)

var (
	// ErrInputNotFound indicates the input root does not exist.
	ErrInputNotFound = errors.New("input directory not found")
	// ErrInputNotDirectory indicates the input root exists but is not a directory.
	ErrInputNotDirectory = errors.New("input path is not a directory")
)

// Options controls traversal policy.
type Options struct {
	FollowSymlinks bool
	// Skip, when set, is consulted for every relative path (files and
	// directories); returning true prunes it.
	Skip func(rel string, isDir bool) bool
}

// CheckRoot verifies root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, root)
		}
		return fmt.Errorf("stat input %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInputNotDirectory, root)
	}
	return nil
}

// Enumerate returns a single-use sequence of relative file paths. Unreadable
// directories and entries are yielded as (rel, err) pairs and traversal
// continues with their siblings. Root problems surface as the first error.
func Enumerate(root string, opts Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := CheckRoot(root); err != nil {
			yield("", err)
			return
		}
		rootInfo, err := os.Stat(root)
		if err != nil {
			yield("", err)
			return
		}
		w := walker{root: root, opts: opts, yield: yield}
		w.walkDir("", []os.FileInfo{rootInfo})
	}
}

type walker struct {
	root  string
	opts  Options
	yield func(string, error) bool
}

// walkDir reports false once the consumer stops iterating.
func (w *walker) walkDir(rel string, ancestors []os.FileInfo) bool {
	entries, err := os.ReadDir(filepath.Join(w.root, filepath.FromSlash(rel)))
	if err != nil {
		return w.yield(rel, fmt.Errorf("read directory: %w", err))
	}
	for _, entry := range entries {
		childRel := entry.Name()
		if rel != "" {
			childRel = path.Join(rel, entry.Name())
		}
		if !w.visit(childRel, entry, ancestors) {
			return false
		}
	}
	return true
}

func (w *walker) visit(rel string, entry fs.DirEntry, ancestors []os.FileInfo) bool {
	mode := entry.Type()
	full := filepath.Join(w.root, filepath.FromSlash(rel))

	if mode&fs.ModeSymlink != 0 {
		if !w.opts.FollowSymlinks {
			return true
		}
		target, err := os.Stat(full)
		if err != nil {
			// Dangling links are not files.
			return true
		}
		if target.IsDir() {
			for _, ancestor := range ancestors {
				if os.SameFile(ancestor, target) {
					return true
				}
			}
			return w.descend(rel, target, ancestors)
		}
		if !target.Mode().IsRegular() {
			return true
		}
		return w.emit(rel)
	}

	switch {
	case mode.IsDir():
		info, err := entry.Info()
		if err != nil {
			return w.yield(rel, fmt.Errorf("stat directory: %w", err))
		}
		return w.descend(rel, info, ancestors)
	case mode.IsRegular():
		return w.emit(rel)
	default:
		// sockets, devices, fifos
		return true
	}
}

func (w *walker) descend(rel string, info os.FileInfo, ancestors []os.FileInfo) bool {
	if w.opts.Skip != nil && w.opts.Skip(rel, true) {
		return true
	}
	next := make([]os.FileInfo, len(ancestors), len(ancestors)+1)
	copy(next, ancestors)
	return w.walkDir(rel, append(next, info))
}

func (w *walker) emit(rel string) bool {
	if w.opts.Skip != nil && w.opts.Skip(rel, false) {
		return true
	}
	return w.yield(rel, nil)
}
