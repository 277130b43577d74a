// Package config loads, normalizes, and validates assetprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment overrides the
// tool has always accepted (ZSTD_LEVEL, BROTLI_LEVEL, GZIP_LEVEL,
// DEFLATE_LEVEL, WEBP_LOSSLESS, WEBP_QUALITY, ASSETPREP_WORKERS). The Config
// type centralizes every knob the pipeline and CLI need: input/output roots,
// enabled image targets and compression codecs, per-codec levels, and the
// worker count.
//
// A loaded Config is treated as read-only. The pipeline derives immutable
// option values from it once and shares them with every worker.
package config
