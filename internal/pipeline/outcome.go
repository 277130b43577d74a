package pipeline

import (
	"slices"
	"strings"
	"time"

	"assetprep/internal/classify"
)

// ArtifactKind separates the unmodified copy from derived files.
type ArtifactKind string

const (
	ArtifactOriginal   ArtifactKind = "original"
	ArtifactImage      ArtifactKind = "image"
	ArtifactCompressed ArtifactKind = "compressed"
)

// Artifact is one file written to the output tree.
type Artifact struct {
	Path    string
	Kind    ArtifactKind
	Variant string
	Bytes   int64
}

// Outcome is the result of one job.
type Outcome struct {
	Path      string
	Asset     classify.AssetKind
	SizeIn    int64
	Artifacts []Artifact
	Failures  []Failure
	// Fallback is set when an image failed to decode and was handled as a
	// generic file instead.
	Fallback bool
	// Superseded counts artifacts skipped because a higher-precedence file
	// owns the output path.
	Superseded int
	Duration   time.Duration
}

// Failed reports whether any part of the job failed.
func (o Outcome) Failed() bool { return len(o.Failures) > 0 }

// BytesWritten sums artifact sizes.
func (o Outcome) BytesWritten() int64 {
	var total int64
	for _, a := range o.Artifacts {
		total += a.Bytes
	}
	return total
}

// Summary aggregates every Outcome of a run.
type Summary struct {
	RunID        string
	InputRoot    string
	OutputRoot   string
	Workers      int
	Started      time.Time
	Finished     time.Time
	Files        int
	Images       int
	Generic      int
	Fallbacks    int
	FailedFiles  int
	Artifacts    int
	Superseded   int
	BytesRead    int64
	BytesWritten int64
	Failures     []Failure
	Cancelled    bool
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Files++
	switch {
	case o.Fallback:
		s.Fallbacks++
		s.Generic++
	case o.Asset.IsImage():
		s.Images++
	default:
		s.Generic++
	}
	if o.Failed() {
		s.FailedFiles++
		s.Failures = append(s.Failures, o.Failures...)
	}
	s.Artifacts += len(o.Artifacts)
	s.Superseded += o.Superseded
	s.BytesRead += o.SizeIn
	s.BytesWritten += o.BytesWritten()
}

// Duration is the wall-clock run time.
func (s *Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// SortFailures orders failures by path, then stage and variant, for stable reports.
func (s *Summary) SortFailures() {
	slices.SortFunc(s.Failures, func(a, b Failure) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		if c := strings.Compare(a.Stage, b.Stage); c != 0 {
			return c
		}
		return strings.Compare(a.Variant, b.Variant)
	})
}
