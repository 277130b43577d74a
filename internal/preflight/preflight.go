package preflight

import (
	"context"
	"strings"

	"assetprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckInputDirectory("Input directory", cfg.Paths.InputDir),
		CheckOutputDirectory("Output directory", cfg.Paths.OutputDir),
		CheckDistinctRoots(cfg.Paths.InputDir, cfg.Paths.OutputDir),
		CheckFreeSpace(ctx, "Output free space", cfg.Paths.OutputDir),
	}

	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) != "" {
		results = append(results, CheckFileCreatable("History database", cfg.History.Path))
	}
	if strings.TrimSpace(cfg.Logging.File) != "" {
		results = append(results, CheckFileCreatable("Log file", cfg.Logging.File))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
