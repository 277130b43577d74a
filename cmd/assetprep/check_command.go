package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetprep/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [input-dir] [output-dir]",
		Short: "Run preflight checks without processing any file",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.effectiveConfig()
			if err != nil {
				return err
			}
			applyPathArgs(&cfg, args)
			if err := cfg.Finalize(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}

			results := preflight.RunAll(cmd.Context(), &cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("preflight failed: %d of %d checks", len(failed), len(results))
			}
			return nil
		},
	}
}
