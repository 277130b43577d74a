package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"assetprep/internal/history"
	"assetprep/internal/logging"
	"assetprep/internal/pipeline"
)

func runAssets(cmd *cobra.Command, ctx *commandContext, flags *runFlags, args []string) error {
	cfg, err := ctx.effectiveConfig()
	if err != nil {
		return err
	}
	applyPathArgs(&cfg, args)
	flags.apply(cmd, &cfg)
	if err := cfg.Finalize(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Paths.InputDir) == "" || strings.TrimSpace(cfg.Paths.OutputDir) == "" {
		return errors.New("input and output directories are required (pass <input-dir> <output-dir> or set [paths] in the config)")
	}

	showBar := !flags.noProgress && shouldColorize(cmd.ErrOrStderr())
	logCfg := cfg
	if showBar && !cmd.Flags().Changed("log-level") && logCfg.Logging.Level == "info" {
		// The bar owns stderr; keep only warnings and errors on it.
		logCfg.Logging.Level = "warn"
	}
	logger, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	opts, err := pipeline.OptionsFromConfig(&cfg)
	if err != nil {
		return err
	}

	progress := newProgressObserver(cmd.ErrOrStderr(), logger, showBar)
	summary, runErr := pipeline.New(opts, logger, progress).Run(cmd.Context())
	progress.Finish()

	if summary == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderSummary(summary, shouldColorize(out)))

	if cfg.History.Enabled {
		recordHistory(logger, cfg.History.Path, summary, runErr)
	}
	return runErr
}

// recordHistory stores the run in the ledger. Ledger failures are logged and
// never change the run's exit status.
func recordHistory(logger *slog.Logger, path string, summary *pipeline.Summary, runErr error) {
	store, err := history.Open(path)
	if err != nil {
		logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path or run without --history"),
			logging.String(logging.FieldImpact, "run not recorded"),
		)
		return
	}
	defer store.Close()

	run, failures := history.FromSummary(summary, runErr)
	// The run context may already be cancelled; recording must still complete.
	if err := store.RecordRun(context.Background(), run, failures); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded"),
		)
		return
	}
	logger.Debug("run recorded in history",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.String(logging.FieldPath, path),
	)
}
