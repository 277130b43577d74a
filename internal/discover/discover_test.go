package discover_test

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"assetprep/internal/discover"
)

func collect(t *testing.T, root string, opts discover.Options) []string {
	t.Helper()
	var paths []string
	for rel, err := range discover.Enumerate(root, opts) {
		if err != nil {
			t.Fatalf("enumerate: %v", err)
		}
		paths = append(paths, rel)
	}
	slices.Sort(paths)
	return paths
}

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(rel), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEnumerateListsNestedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html")
	writeFile(t, root, "js/app.js")
	writeFile(t, root, "img/icons/logo.png")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := collect(t, root, discover.Options{})
	want := []string{"img/icons/logo.png", "index.html", "js/app.js"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected paths: got %v want %v", got, want)
	}
}

func TestEnumerateSkipsSymlinksByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt")
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	got := collect(t, root, discover.Options{})
	if !slices.Equal(got, []string{"a.txt"}) {
		t.Fatalf("expected symlink skipped, got %v", got)
	}
}

func TestEnumerateFollowsSymlinksWithoutCycling(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "dir/a.txt")
	if err := os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dir", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "dir", "a.txt"), filepath.Join(root, "alias.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")); err != nil {
		t.Fatal(err)
	}

	got := collect(t, root, discover.Options{FollowSymlinks: true})
	want := []string{"alias.txt", "dir/a.txt"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected paths: got %v want %v", got, want)
	}
}

func TestEnumerateSkipsNonRegularFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt")
	sock := filepath.Join(root, "s.sock")
	listener, err := net.Listen("unix", sock)
	if err != nil {
		t.Skipf("unix sockets unsupported: %v", err)
	}
	defer listener.Close()

	got := collect(t, root, discover.Options{})
	if !slices.Equal(got, []string{"a.txt"}) {
		t.Fatalf("expected socket skipped, got %v", got)
	}
}

func TestEnumerateSkipHook(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep/a.txt")
	writeFile(t, root, "drop/b.txt")
	got := collect(t, root, discover.Options{Skip: func(rel string, isDir bool) bool {
		return isDir && rel == "drop"
	}})
	if !slices.Equal(got, []string{"keep/a.txt"}) {
		t.Fatalf("unexpected paths: %v", got)
	}
}

func TestEnumerateStopsEarly(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeFile(t, root, name)
	}
	count := 0
	for range discover.Enumerate(root, discover.Options{}) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected iteration to stop at 2, got %d", count)
	}
}

func TestCheckRoot(t *testing.T) {
	root := t.TempDir()
	if err := discover.CheckRoot(root); err != nil {
		t.Fatalf("CheckRoot: %v", err)
	}
	if err := discover.CheckRoot(filepath.Join(root, "missing")); !errors.Is(err, discover.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	writeFile(t, root, "file.txt")
	if err := discover.CheckRoot(filepath.Join(root, "file.txt")); !errors.Is(err, discover.ErrInputNotDirectory) {
		t.Fatalf("expected ErrInputNotDirectory, got %v", err)
	}
}

func TestEnumerateReportsMissingRoot(t *testing.T) {
	for rel, err := range discover.Enumerate(filepath.Join(t.TempDir(), "nope"), discover.Options{}) {
		if rel != "" || !errors.Is(err, discover.ErrInputNotFound) {
			t.Fatalf("expected root error, got %q %v", rel, err)
		}
	}
}
