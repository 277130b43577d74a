package main

import (
	"github.com/spf13/cobra"

	"assetprep/internal/config"
)

type runFlags struct {
	targets          []string
	codecs           []string
	noImages         bool
	noCompression    bool
	workers          int
	jpegQuality      int
	webpQuality      float64
	webpLossless     bool
	avifQuality      int
	avifSpeed        int
	brotliLevel      int
	gzipLevel        int
	deflateLevel     int
	zstdLevel        int
	failOnFileErrors bool
	followSymlinks   bool
	noProgress       bool
	history          bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.targets, "targets", nil, "Image target formats (png,jpeg,webp,avif)")
	fs.StringSliceVar(&f.codecs, "codecs", nil, "Compression codecs (brotli,gzip,deflate,zstd)")
	fs.BoolVar(&f.noImages, "no-images", false, "Copy images without producing format variants")
	fs.BoolVar(&f.noCompression, "no-compression", false, "Copy generic files without compressed siblings")
	fs.IntVarP(&f.workers, "workers", "j", 0, "Number of parallel workers (default: logical CPUs)")
	fs.IntVar(&f.jpegQuality, "jpeg-quality", 0, "JPEG quality (1-100)")
	fs.Float64Var(&f.webpQuality, "webp-quality", 0, "WebP lossy quality (0-100)")
	fs.BoolVar(&f.webpLossless, "webp-lossless", false, "Encode WebP losslessly")
	fs.IntVar(&f.avifQuality, "avif-quality", 0, "AVIF quality (0-100)")
	fs.IntVar(&f.avifSpeed, "avif-speed", 0, "AVIF encoder speed (0 slowest, 10 fastest)")
	fs.IntVar(&f.brotliLevel, "brotli-level", 0, "Brotli level (0-11)")
	fs.IntVar(&f.gzipLevel, "gzip-level", 0, "Gzip level (1-9)")
	fs.IntVar(&f.deflateLevel, "deflate-level", 0, "Deflate level (1-9)")
	fs.IntVar(&f.zstdLevel, "zstd-level", 0, "Zstandard level (1-22)")
	fs.BoolVar(&f.failOnFileErrors, "fail-on-file-errors", false, "Exit non-zero when any file fails")
	fs.BoolVar(&f.followSymlinks, "follow-symlinks", false, "Follow symbolic links in the input tree")
	fs.BoolVar(&f.noProgress, "no-progress", false, "Disable the terminal progress bar")
	fs.BoolVar(&f.history, "history", false, "Record this run in the history ledger")
	cmd.MarkFlagsMutuallyExclusive("targets", "no-images")
	cmd.MarkFlagsMutuallyExclusive("codecs", "no-compression")
}

// apply copies explicitly set flags onto cfg. Unset flags keep the value from
// the config file, environment or defaults.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("targets") {
		cfg.Images.Targets = append([]string(nil), f.targets...)
	}
	if f.noImages {
		cfg.Images.Targets = nil
	}
	if changed("codecs") {
		cfg.Compression.Codecs = append([]string(nil), f.codecs...)
	}
	if f.noCompression {
		cfg.Compression.Codecs = nil
	}
	if changed("workers") {
		cfg.Workers.Count = f.workers
	}
	if changed("jpeg-quality") {
		cfg.Images.JPEGQuality = f.jpegQuality
	}
	if changed("webp-quality") {
		cfg.Images.WebPQuality = f.webpQuality
	}
	if changed("webp-lossless") {
		cfg.Images.WebPLossless = f.webpLossless
	}
	if changed("avif-quality") {
		cfg.Images.AVIFQuality = f.avifQuality
	}
	if changed("avif-speed") {
		cfg.Images.AVIFSpeed = f.avifSpeed
	}
	if changed("brotli-level") {
		cfg.Compression.BrotliLevel = f.brotliLevel
	}
	if changed("gzip-level") {
		cfg.Compression.GzipLevel = f.gzipLevel
	}
	if changed("deflate-level") {
		cfg.Compression.DeflateLevel = f.deflateLevel
	}
	if changed("zstd-level") {
		cfg.Compression.ZstdLevel = f.zstdLevel
	}
	if changed("fail-on-file-errors") {
		cfg.Run.FailOnFileErrors = f.failOnFileErrors
	}
	if changed("follow-symlinks") {
		cfg.Run.FollowSymlinks = f.followSymlinks
	}
	if changed("history") {
		cfg.History.Enabled = f.history
	}
}
