package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"assetprep/internal/discover"
	"assetprep/internal/logging"
	"assetprep/internal/output"
)

// Runner executes asset runs.
type Runner struct {
	opts     Options
	logger   *slog.Logger
	observer Observer
}

// New constructs a Runner. A nil logger or observer is replaced with a no-op.
func New(opts Options, logger *slog.Logger, observer Observer) *Runner {
	if observer == nil {
		observer = nopObserver{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Runner{
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		observer: observer,
	}
}

// Run processes the input tree. The returned Summary is non-nil whenever the
// run got past its preconditions, including when ctx was cancelled.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	inputRoot, err := filepath.Abs(r.opts.InputRoot)
	if err != nil {
		return nil, fatal("resolve input", r.opts.InputRoot, err)
	}
	if err := discover.CheckRoot(inputRoot); err != nil {
		return nil, fatal("check input", inputRoot, err)
	}
	outputRoot, err := filepath.Abs(r.opts.OutputRoot)
	if err != nil {
		return nil, fatal("resolve output", r.opts.OutputRoot, err)
	}
	if inputRoot == outputRoot {
		return nil, fatal("check output", outputRoot, errors.New("output directory must differ from input directory"))
	}

	lock, err := acquireRunLock(outputRoot)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	writer, err := output.New(outputRoot)
	if err != nil {
		return nil, fatal("prepare output", outputRoot, err)
	}
	if len(writer.Swept) > 0 {
		logger.Info("removed stale temp files",
			logging.String(logging.FieldEventType, "temp_swept"),
			logging.Int("count", len(writer.Swept)),
			logging.String("first", writer.Swept[0]),
		)
	}

	summary := &Summary{
		RunID:      runID,
		InputRoot:  inputRoot,
		OutputRoot: writer.Root,
		Workers:    r.opts.Workers,
		Started:    time.Now(),
	}

	logger.Info("asset run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input", inputRoot),
		logging.String("output", writer.Root),
		logging.Int("workers", r.opts.Workers),
		logging.String("targets", joinTargets(r.opts)),
		logging.String("codecs", joinCodecs(r.opts)),
	)

	runErr := r.schedule(ctx, logger, inputRoot, writer, summary)

	summary.Finished = time.Now()
	summary.SortFailures()
	if ctx.Err() != nil {
		summary.Cancelled = true
	}

	if runErr != nil {
		logging.ErrorWithContext(logger, "asset run aborted", "run_aborted",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "check the input directory and rerun"),
		)
		return summary, runErr
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("asset run cancelled",
			logging.String(logging.FieldEventType, "run_cancelled"),
			logging.Int("files", summary.Files),
		)
		return summary, err
	}

	logger.Info("asset run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("files", summary.Files),
		logging.Int("images", summary.Images),
		logging.Int("generic", summary.Generic),
		logging.Int("failed_files", summary.FailedFiles),
		logging.Bytes("bytes_written", summary.BytesWritten),
		logging.Duration("duration", summary.Duration().Round(time.Millisecond)),
	)

	if r.opts.FailOnFileErrors && summary.FailedFiles > 0 {
		return summary, fmt.Errorf("%w: %d of %d files", ErrFileFailures, summary.FailedFiles, summary.Files)
	}
	return summary, nil
}

// schedule runs the producer, the worker pool, and the aggregator.
func (r *Runner) schedule(ctx context.Context, logger *slog.Logger, inputRoot string, writer *output.Writer, summary *Summary) error {
	total := r.count(ctx, inputRoot, writer.Root)
	logger.Debug("input enumerated", logging.Int("files", total))
	r.observer.Enumerated(total)

	jobs := make(chan string, r.opts.Workers*2)
	results := make(chan Outcome, r.opts.Workers*2)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return r.produce(gctx, inputRoot, writer.Root, jobs, results)
	})

	for i := range r.opts.Workers {
		w := &worker{
			opts:      r.opts,
			inputRoot: inputRoot,
			writer:    writer,
			logger:    logger.With(logging.Int(logging.FieldWorker, i+1)),
		}
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case rel, ok := <-jobs:
					if !ok {
						return nil
					}
					results <- w.process(rel)
				}
			}
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for outcome := range results {
			summary.Add(outcome)
			r.observer.Completed(outcome)
		}
	}()

	err := g.Wait()
	close(results)
	<-done
	return err
}

// count walks the input tree without scheduling anything so progress has a
// total from the first completed file. Errors are left for produce to report.
func (r *Runner) count(ctx context.Context, inputRoot, outputRoot string) int {
	total := 0
	for rel := range discover.Enumerate(inputRoot, r.enumerateOptions(inputRoot, outputRoot)) {
		if ctx.Err() != nil {
			break
		}
		// unreadable subdirectories still produce one outcome each
		if rel != "" {
			total++
		}
	}
	return total
}

func (r *Runner) enumerateOptions(inputRoot, outputRoot string) discover.Options {
	return discover.Options{
		FollowSymlinks: r.opts.FollowSymlinks,
		Skip:           nestedOutputSkip(inputRoot, outputRoot),
	}
}

// produce feeds relative paths to the workers. Unreadable subdirectories are
// reported as failed outcomes; a missing root aborts the run.
func (r *Runner) produce(ctx context.Context, inputRoot, outputRoot string, jobs chan<- string, results chan<- Outcome) error {
	for rel, err := range discover.Enumerate(inputRoot, r.enumerateOptions(inputRoot, outputRoot)) {
		if err != nil {
			if rel == "" {
				return fatal("enumerate input", inputRoot, err)
			}
			results <- Outcome{Path: rel, Failures: []Failure{{Path: rel, Stage: StageRead, Err: err}}}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case jobs <- rel:
		}
	}
	return nil
}

// nestedOutputSkip prunes the output root when it lives inside the input root.
func nestedOutputSkip(inputRoot, outputRoot string) func(string, bool) bool {
	rel, err := filepath.Rel(inputRoot, outputRoot)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	rel = filepath.ToSlash(rel)
	return func(candidate string, isDir bool) bool {
		return isDir && candidate == rel
	}
}

func joinTargets(opts Options) string {
	names := make([]string, 0, len(opts.Images.Targets))
	for _, t := range opts.Images.Targets {
		names = append(names, t.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func joinCodecs(opts Options) string {
	names := make([]string, 0, len(opts.Compression.Codecs))
	for _, c := range opts.Compression.Codecs {
		names = append(names, c.Name)
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
