package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"assetprep/internal/config"
	"assetprep/internal/history"
	"assetprep/internal/logging"
	"assetprep/internal/pipeline"
	"assetprep/internal/testsupport"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := history.Run{
			RunID:        id,
			InputRoot:    "/srv/public",
			OutputRoot:   "/srv/output",
			Workers:      4,
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
			FinishedAt:   base.Add(time.Duration(i)*time.Hour + 90*time.Second),
			Files:        10 + i,
			BytesWritten: 4096,
		}
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-c" || runs[1].RunID != "run-b" {
		t.Fatalf("expected newest first, got %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].Files != 12 || runs[0].Workers != 4 {
		t.Fatalf("unexpected counters: %+v", runs[0])
	}
	if got := runs[0].Duration(); got != 90*time.Second {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestRecordRunRejectsDuplicateID(t *testing.T) {
	store := openStore(t)
	run := history.Run{RunID: "dup", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := store.RecordRun(context.Background(), run, nil); err != nil {
		t.Fatalf("first RecordRun: %v", err)
	}
	if err := store.RecordRun(context.Background(), run, nil); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	if err := store.RecordRun(context.Background(), history.Run{}, nil); err == nil {
		t.Fatal("expected empty run id to fail")
	}
}

func TestFromSummaryKeepsFailures(t *testing.T) {
	store := openStore(t)
	started := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	summary := &pipeline.Summary{
		RunID:       "run-failures",
		InputRoot:   "/in",
		OutputRoot:  "/out",
		Workers:     2,
		Started:     started,
		Finished:    started.Add(time.Second),
		Files:       3,
		FailedFiles: 2,
		Cancelled:   true,
		Failures: []pipeline.Failure{
			{Path: "b.png", Stage: pipeline.StageEncode, Variant: "avif", Err: errors.New("encoder exploded")},
			{Path: "a.txt", Stage: pipeline.StageRead, Err: errors.New("permission denied")},
		},
	}

	run, failures := history.FromSummary(summary, context.Canceled)
	if run.ErrorMessage != context.Canceled.Error() {
		t.Fatalf("expected error message recorded, got %q", run.ErrorMessage)
	}
	if err := store.RecordRun(context.Background(), run, failures); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	stored, err := store.Failures(context.Background(), "run-failures")
	if err != nil {
		t.Fatalf("Failures: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(stored))
	}
	if stored[0].Path != "a.txt" || stored[0].Reason != "permission denied" {
		t.Fatalf("unexpected first failure: %+v", stored[0])
	}
	if stored[1].Variant != "avif" || stored[1].Stage != pipeline.StageEncode {
		t.Fatalf("unexpected second failure: %+v", stored[1])
	}

	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || !runs[0].Cancelled || runs[0].FailedFiles != 2 {
		t.Fatalf("unexpected stored run: %+v", runs)
	}
}

func TestPruneRemovesOldRunsAndFailures(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := store.RecordRun(ctx, history.Run{RunID: "old", StartedAt: old, FinishedAt: old},
		[]history.Failure{{Path: "x", Stage: "read", Reason: "gone"}}); err != nil {
		t.Fatalf("RecordRun old: %v", err)
	}
	if err := store.RecordRun(ctx, history.Run{RunID: "new", StartedAt: recent, FinishedAt: recent}, nil); err != nil {
		t.Fatalf("RecordRun new: %v", err)
	}

	removed, err := store.Prune(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 run pruned, got %d", removed)
	}
	failures, err := store.Failures(ctx, "old")
	if err != nil {
		t.Fatalf("Failures: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected failures removed with their run, got %v", failures)
	}
}

func TestSubSecondStartTimesOrderAndPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	second := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := second.Add(500 * time.Millisecond)

	for _, run := range []history.Run{
		{RunID: "later", StartedAt: later, FinishedAt: later},
		{RunID: "on-the-second", StartedAt: second, FinishedAt: second},
	} {
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun %s: %v", run.RunID, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "later" || runs[1].RunID != "on-the-second" {
		t.Fatalf("expected later run first, got %+v", runs)
	}
	if !runs[0].StartedAt.Equal(later) || !runs[1].StartedAt.Equal(second) {
		t.Fatalf("start times not preserved: %v, %v", runs[0].StartedAt, runs[1].StartedAt)
	}

	removed, err := store.Prune(ctx, second.Add(250*time.Millisecond))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected only the on-the-second run pruned, got %d", removed)
	}
	runs, err = store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "later" {
		t.Fatalf("unexpected runs after prune: %+v", runs)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordRun(context.Background(), history.Run{RunID: "persist", StartedAt: time.Now(), FinishedAt: time.Now()}, nil); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "persist" {
		t.Fatalf("unexpected runs after reopen: %+v", runs)
	}
}

func TestResolveRunIDPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()
	for _, id := range []string{"3f2a9c10-aaaa", "3f2b0000-bbbb", "9e1d_000-cccc"} {
		if err := store.RecordRun(ctx, history.Run{RunID: id, StartedAt: now, FinishedAt: now}, nil); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	got, err := store.ResolveRunID(ctx, "3f2a")
	if err != nil || got != "3f2a9c10-aaaa" {
		t.Fatalf("ResolveRunID(3f2a) = %q, %v", got, err)
	}
	if _, err := store.ResolveRunID(ctx, "3f2"); err == nil || errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := store.ResolveRunID(ctx, "zz"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.ResolveRunID(ctx, "9e1d_"); err != nil {
		t.Fatalf("expected literal underscore prefix to resolve, got %v", err)
	}
	if _, err := store.ResolveRunID(ctx, "3f2_"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected underscore to match literally, got %v", err)
	}
}

func TestRecordsPipelineRun(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "dist")
	cfg := testsupport.NewConfig(t,
		testsupport.WithHistory(),
		testsupport.WithOutputDir(outDir),
		testsupport.WithTargets("webp"),
		testsupport.Mutate(func(c *config.Config) {
			c.Compression.Codecs = []string{"gzip"}
		}),
	)
	testsupport.WritePNG(t, filepath.Join(cfg.Paths.InputDir, "a.png"), 8, 8)
	valid := testsupport.PNGBytes(t, 32, 32)
	testsupport.WriteBytes(t, filepath.Join(cfg.Paths.InputDir, "broken.png"), valid[:len(valid)/3])

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	summary, runErr := pipeline.New(opts, logging.NewNop(), nil).Run(context.Background())
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by WithHistory")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	run, failures := history.FromSummary(summary, runErr)
	if err := store.RecordRun(context.Background(), run, failures); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	runs, err := store.ListRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	got := runs[0]
	if got.RunID != summary.RunID || got.OutputRoot != outDir {
		t.Fatalf("unexpected run row: %+v", got)
	}
	if got.Files != 2 || got.Images != 1 || got.Fallbacks != 1 {
		t.Fatalf("unexpected counters: files=%d images=%d fallbacks=%d", got.Files, got.Images, got.Fallbacks)
	}
}
