// Package output owns the destination tree. Every artifact is written through
// a temp file and renamed into place, and concurrent claims on one output
// path are settled by owner precedence so the final tree does not depend on
// which worker finished first.
package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"assetprep/internal/fileutil"
)

// ErrOutputUnwritable indicates the output root cannot be created or written.
var ErrOutputUnwritable = errors.New("output directory is not writable")

// Owner identifies who produces an artifact. Lower owners take precedence
// when two artifacts map to the same output path.
type Owner struct {
	// Original is true for the unmodified copy of an input file.
	Original bool
	// Source is the input relative path the artifact derives from.
	Source string
}

func (o Owner) key() string {
	if o.Original {
		return "0:" + o.Source
	}
	return "1:" + o.Source
}

type claim struct {
	mu    sync.Mutex
	owner string
}

// Writer writes artifacts beneath Root.
type Writer struct {
	Root string
	// Swept lists the stale temp files New removed, relative to Root.
	Swept []string

	mu     sync.Mutex
	claims map[string]*claim
	dirs   sync.Map
}

// New prepares the output root, creating it when missing, and removes stale
// temp files left by interrupted runs. Callers must hold the run lock.
func New(root string) (*Writer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, abs, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrOutputUnwritable, abs)
	}
	if err := unix.Access(abs, unix.W_OK|unix.X_OK); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, abs, err)
	}
	w := &Writer{Root: abs, claims: make(map[string]*claim)}
	w.Swept = sweepTemp(abs)
	return w, nil
}

// sweepTemp removes in-flight files a previous, interrupted run left under
// root. Unreadable directories and failed removals are skipped; the leftovers
// are never read back and the next sweep retries them.
func sweepTemp(root string) []string {
	var removed []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !fileutil.IsTempName(d.Name()) {
			return nil
		}
		if os.Remove(p) == nil {
			rel, _ := filepath.Rel(root, p)
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	return removed
}

// Path resolves a slash-separated relative path under Root.
func (w *Writer) Path(rel string) string {
	return filepath.Join(w.Root, filepath.FromSlash(rel))
}

// Result describes one artifact write attempt.
type Result struct {
	Path  string
	Bytes int64
	// Superseded is true when a higher-precedence owner already holds the
	// path; nothing was written.
	Superseded bool
}

// Write produces the artifact at rel by streaming fill into a temp file and
// renaming it into place. Parent directories are created as needed.
func (w *Writer) Write(rel string, owner Owner, fill func(io.Writer) error) (Result, error) {
	rel, err := cleanRel(rel)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: rel}

	c := w.claimFor(rel)
	c.mu.Lock()
	defer c.mu.Unlock()

	key := owner.key()
	if c.owner != "" && c.owner < key {
		res.Superseded = true
		return res, nil
	}

	dst := w.Path(rel)
	if err := w.ensureDir(filepath.Dir(dst)); err != nil {
		return res, err
	}
	n, err := fileutil.WriteAtomic(dst, fileutil.DefaultFileMode, fill)
	if err != nil {
		return res, fmt.Errorf("write %s: %w", rel, err)
	}
	c.owner = key
	res.Bytes = n
	return res, nil
}

// Copy writes an unmodified copy of src at rel.
func (w *Writer) Copy(rel string, owner Owner, src string) (Result, error) {
	rel, err := cleanRel(rel)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: rel}

	c := w.claimFor(rel)
	c.mu.Lock()
	defer c.mu.Unlock()

	key := owner.key()
	if c.owner != "" && c.owner < key {
		res.Superseded = true
		return res, nil
	}

	dst := w.Path(rel)
	if err := w.ensureDir(filepath.Dir(dst)); err != nil {
		return res, err
	}
	n, err := fileutil.CopyFileAtomic(src, dst)
	if err != nil {
		return res, fmt.Errorf("copy %s: %w", rel, err)
	}
	c.owner = key
	res.Bytes = n
	return res, nil
}

func (w *Writer) claimFor(rel string) *claim {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.claims[rel]
	if !ok {
		c = &claim{}
		w.claims[rel] = c
	}
	return c
}

func (w *Writer) ensureDir(dir string) error {
	if _, ok := w.dirs.Load(dir); ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	w.dirs.Store(dir, struct{}{})
	return nil
}

func cleanRel(rel string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid output path %q", rel)
	}
	return cleaned, nil
}
