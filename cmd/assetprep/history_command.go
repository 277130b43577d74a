package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"assetprep/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in the history ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok, err := openHistory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	cmd.AddCommand(newHistoryFailuresCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryFailuresCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "failures <run-id-prefix>",
		Short: "Show the per-file failures of one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok, err := openHistory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			defer store.Close()

			runID, err := store.ResolveRunID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			failures, err := store.Failures(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(failures) == 0 {
				fmt.Fprintf(out, "No failures recorded for %s\n", runID)
				return nil
			}
			rows := make([][]string, 0, len(failures))
			for _, f := range failures {
				variant := f.Variant
				if variant == "" {
					variant = "-"
				}
				rows = append(rows, []string{f.Path, f.Stage, variant, f.Reason})
			}
			fmt.Fprintln(out, renderTable("Failures for "+shortID(runID), failureColumns, rows))
			return nil
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded runs older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			store, ok, err := openHistory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pruned %s runs\n", formatCount(int(removed)))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove runs started before now minus this duration")
	return cmd
}

// openHistory opens the ledger named by the config. ok is false when no ledger
// file exists yet; reading commands never create one.
func openHistory(ctx *commandContext) (*history.Store, bool, error) {
	cfg, err := ctx.effectiveConfig()
	if err != nil {
		return nil, false, err
	}
	if _, err := os.Stat(cfg.History.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat history: %w", err)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

func renderRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(r.RunID),
			formatCount(r.Files),
			formatCount(r.FailedFiles),
			humanize.Bytes(uint64(max(r.BytesWritten, 0))),
			r.Duration().Round(time.Millisecond).String(),
			runStatus(r),
			r.InputRoot,
		})
	}
	return renderTable("", runColumns, rows)
}

func runStatus(r history.Run) string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.ErrorMessage != "":
		return "error"
	case r.FailedFiles > 0:
		return "partial"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
