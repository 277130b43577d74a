package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"assetprep/internal/pipeline"
)

// Run is one ledger row.
type Run struct {
	RunID        string
	InputRoot    string
	OutputRoot   string
	Workers      int
	StartedAt    time.Time
	FinishedAt   time.Time
	Files        int
	Images       int
	Generic      int
	Fallbacks    int
	FailedFiles  int
	Artifacts    int
	BytesRead    int64
	BytesWritten int64
	Cancelled    bool
	ErrorMessage string
}

// Duration is the wall-clock run time.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure is one recorded per-file failure.
type Failure struct {
	Path    string
	Stage   string
	Variant string
	Reason  string
}

// FromSummary converts a pipeline summary into ledger records.
func FromSummary(s *pipeline.Summary, runErr error) (Run, []Failure) {
	run := Run{
		RunID:        s.RunID,
		InputRoot:    s.InputRoot,
		OutputRoot:   s.OutputRoot,
		Workers:      s.Workers,
		StartedAt:    s.Started,
		FinishedAt:   s.Finished,
		Files:        s.Files,
		Images:       s.Images,
		Generic:      s.Generic,
		Fallbacks:    s.Fallbacks,
		FailedFiles:  s.FailedFiles,
		Artifacts:    s.Artifacts,
		BytesRead:    s.BytesRead,
		BytesWritten: s.BytesWritten,
		Cancelled:    s.Cancelled,
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	failures := make([]Failure, 0, len(s.Failures))
	for _, f := range s.Failures {
		reason := ""
		if f.Err != nil {
			reason = f.Err.Error()
		}
		failures = append(failures, Failure{Path: f.Path, Stage: f.Stage, Variant: f.Variant, Reason: reason})
	}
	return run, failures
}

// RecordRun stores a run and its failures in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, failures []Failure) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("run id is required")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `INSERT INTO runs (
			run_id, input_root, output_root, workers, started_at, finished_at,
			files, images, generic, fallbacks, failed_files, artifacts,
			bytes_read, bytes_written, cancelled, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.InputRoot, run.OutputRoot, run.Workers,
			formatTime(run.StartedAt), formatTime(run.FinishedAt),
			run.Files, run.Images, run.Generic, run.Fallbacks, run.FailedFiles, run.Artifacts,
			run.BytesRead, run.BytesWritten, boolToInt(run.Cancelled), run.ErrorMessage,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, f := range failures {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO failures (run_id, path, stage, variant, reason) VALUES (?, ?, ?, ?, ?)",
				run.RunID, f.Path, f.Stage, f.Variant, f.Reason,
			); err != nil {
				return fmt.Errorf("insert failure for %s: %w", f.Path, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, input_root, output_root, workers, started_at, finished_at,
		files, images, generic, fallbacks, failed_files, artifacts,
		bytes_read, bytes_written, cancelled, error_message
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Failures returns the failures recorded for runID, ordered by path.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, stage, variant, reason FROM failures WHERE run_id = ? ORDER BY path, stage, variant",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Stage, &f.Variant, &f.Reason); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// ErrRunNotFound is returned when no recorded run matches an id prefix.
var ErrRunNotFound = errors.New("run not found")

// ResolveRunID expands a unique run id prefix to the full id.
func (s *Store) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	ctx = ensureContext(ctx)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrRunNotFound
	}
	pattern := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(prefix) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM runs WHERE run_id LIKE ? ESCAPE '\' ORDER BY run_id LIMIT 2`, pattern)
	if err != nil {
		return "", fmt.Errorf("query run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run               Run
		started, finished string
		cancelled         int
	)
	if err := rows.Scan(
		&run.RunID, &run.InputRoot, &run.OutputRoot, &run.Workers, &started, &finished,
		&run.Files, &run.Images, &run.Generic, &run.Fallbacks, &run.FailedFiles, &run.Artifacts,
		&run.BytesRead, &run.BytesWritten, &cancelled, &run.ErrorMessage,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	run.Cancelled = cancelled != 0
	return run, nil
}

// timeLayout keeps every stored timestamp the same width so the text
// comparisons in ORDER BY and Prune agree with time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, value)
	}
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
