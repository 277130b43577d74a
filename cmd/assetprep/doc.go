// Package main hosts the assetprep CLI entrypoint and command graph.
//
// The root command runs the asset pipeline over an input tree and writes the
// mirrored output tree, then prints a run summary. Subcommands scaffold and
// display configuration, run the preflight checks without touching any file,
// and list runs recorded in the optional history ledger.
//
// Keep this package lean: processing belongs in the internal packages and is
// only surfaced here through flags and rendering.
package main
