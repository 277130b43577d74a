package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"
)

// CheckInputDirectory verifies that the directory exists and can be listed and read.
func CheckInputDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckOutputDirectory verifies that the directory is writable, or that it can
// be created beneath its nearest existing ancestor.
func CheckOutputDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
		}
		if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
	case errors.Is(err, fs.ErrNotExist):
		ancestor, err := nearestExistingDir(path)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
		}
		if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
}

// CheckDistinctRoots rejects an output root equal to the input root.
func CheckDistinctRoots(input, output string) Result {
	const name = "Distinct roots"
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return Result{Name: name, Detail: "input and output must both be set"}
	}
	if filepath.Clean(input) == filepath.Clean(output) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: output equals input)", output)}
	}
	if rel, err := filepath.Rel(input, output); err == nil && !strings.HasPrefix(rel, "..") {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("output nested in input at %s (excluded from scan)", filepath.ToSlash(rel))}
	}
	return Result{Name: name, Passed: true, Detail: "ok"}
}

// CheckFreeSpace reports free space on the volume holding path.
func CheckFreeSpace(ctx context.Context, name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	volume, err := nearestExistingDir(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	usage, err := disk.UsageWithContext(checkCtx, volume)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: usage: %v)", volume, err)}
	}
	if usage.Free == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: volume full)", volume)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free of %s", humanize.Bytes(usage.Free), humanize.Bytes(usage.Total))}
}

// CheckFileCreatable verifies that the file exists and is writable, or that
// its parent directory can hold it.
func CheckFileCreatable(name, path string) Result {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
		}
		if err := unix.Access(path, unix.W_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
	}
	ancestor, err := nearestExistingDir(filepath.Dir(path))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func nearestExistingDir(path string) (string, error) {
	current := filepath.Clean(path)
	for {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", current)
			}
			return current, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		current = parent
	}
}
