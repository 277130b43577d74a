package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRunLocked indicates another run holds the output root.
	ErrRunLocked = errors.New("another run is using this output directory")
	// ErrFileFailures is returned when fail_on_file_errors is set and at
	// least one file recorded a failure.
	ErrFileFailures = errors.New("one or more files failed")
)

// FatalError is a run-level failure naming the operation and path involved.
type FatalError struct {
	Op   string
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	parts := make([]string, 0, 3)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if path := strings.TrimSpace(e.Path); path != "" {
		parts = append(parts, path)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "fatal pipeline error"
	}
	return strings.Join(parts, ": ")
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(op, path string, err error) error {
	return &FatalError{Op: op, Path: path, Err: err}
}

// IsFatal reports whether err aborted the run before it completed.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe) || errors.Is(err, ErrRunLocked)
}

// Stage names where a per-file failure occurred.
const (
	StageRead     = "read"
	StageCopy     = "copy"
	StageDecode   = "decode"
	StageEncode   = "encode"
	StageCompress = "compress"
	StageWorker   = "worker"
)

// Failure is a recoverable error recorded against one file or one variant.
type Failure struct {
	Path    string
	Stage   string
	Variant string
	Err     error
}

func (f Failure) Error() string {
	label := f.Stage
	if f.Variant != "" {
		label = fmt.Sprintf("%s %s", f.Stage, f.Variant)
	}
	if f.Err == nil {
		return fmt.Sprintf("%s: %s failed", f.Path, label)
	}
	return fmt.Sprintf("%s: %s: %v", f.Path, label, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Reason returns the cause without the path prefix.
func (f Failure) Reason() string {
	label := f.Stage
	if f.Variant != "" {
		label += " " + f.Variant
	}
	if f.Err == nil {
		return label
	}
	return label + ": " + f.Err.Error()
}
