package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultFileMode is applied to every file written into the output tree.
const DefaultFileMode os.FileMode = 0o644

// TempPrefix marks in-flight files. Files left behind by a killed run keep
// it, which is how output.New finds and removes them.
const TempPrefix = ".assetprep-"

// IsTempName reports whether name looks like an in-flight atomic write.
func IsTempName(name string) bool {
	return strings.HasPrefix(filepath.Base(name), TempPrefix) && strings.HasSuffix(name, ".tmp")
}

// WriteAtomic writes the bytes produced by fill to a temporary sibling of dst
// and renames it into place, so dst is either absent, the previous content,
// or the complete new content. The temp file is removed on any failure.
func WriteAtomic(dst string, mode os.FileMode, fill func(w io.Writer) error) (written int64, err error) {
	dir := filepath.Dir(dst)
	tmpPath := filepath.Join(dir, TempPrefix+filepath.Base(dst)+"."+uuid.NewString()+".tmp")

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	counter := &countingWriter{w: out}
	if err = fill(counter); err != nil {
		return 0, err
	}
	if err = out.Close(); err != nil {
		return 0, err
	}
	if err = os.Rename(tmpPath, dst); err != nil {
		return 0, err
	}
	return counter.n, nil
}

// CopyFileAtomic streams src to dst through WriteAtomic with SHA256 + size
// integrity verification. dst is left untouched on mismatch.
func CopyFileAtomic(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	return WriteAtomic(dst, DefaultFileMode, func(w io.Writer) error {
		tee := io.TeeReader(in, srcHasher)
		written, err := io.Copy(io.MultiWriter(w, dstHasher), tee)
		if err != nil {
			return err
		}
		if written != srcSize {
			return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
		}
		if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
			return errors.New("copy hash mismatch: file changed during copy")
		}
		return nil
	})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
