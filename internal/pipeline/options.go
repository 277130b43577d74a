package pipeline

import (
	"errors"
	"fmt"

	"assetprep/internal/compress"
	"assetprep/internal/config"
	"assetprep/internal/transcode"
)

// Options is the immutable run configuration shared by every worker.
type Options struct {
	InputRoot        string
	OutputRoot       string
	Workers          int
	FollowSymlinks   bool
	FailOnFileErrors bool
	Images           transcode.Options
	Compression      compress.Options
}

// OptionsFromConfig derives run options from a finalized config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("config is required")
	}
	targets, err := transcode.ParseTargets(cfg.Images.Targets)
	if err != nil {
		return Options{}, fmt.Errorf("images.targets: %w", err)
	}
	codecs := make([]compress.Codec, 0, len(cfg.Compression.Codecs))
	for _, name := range cfg.Compression.Codecs {
		codec, err := compress.ParseCodec(name)
		if err != nil {
			return Options{}, fmt.Errorf("compression.codecs: %w", err)
		}
		codecs = append(codecs, codec)
	}
	workers := cfg.Workers.Count
	if workers <= 0 {
		workers = 1
	}

	return Options{
		InputRoot:        cfg.Paths.InputDir,
		OutputRoot:       cfg.Paths.OutputDir,
		Workers:          workers,
		FollowSymlinks:   cfg.Run.FollowSymlinks,
		FailOnFileErrors: cfg.Run.FailOnFileErrors,
		Images: transcode.Options{
			Targets:        targets,
			JPEGQuality:    cfg.Images.JPEGQuality,
			JPEGBackground: cfg.JPEGBackgroundColor(),
			WebPLossless:   cfg.Images.WebPLossless,
			WebPQuality:    float32(cfg.Images.WebPQuality),
			AVIFQuality:    cfg.Images.AVIFQuality,
			AVIFSpeed:      cfg.Images.AVIFSpeed,
		},
		Compression: compress.Options{
			Codecs: codecs,
			Levels: map[string]int{
				compress.Brotli.Name:  cfg.Compression.BrotliLevel,
				compress.Gzip.Name:    cfg.Compression.GzipLevel,
				compress.Deflate.Name: cfg.Compression.DeflateLevel,
				compress.Zstd.Name:    cfg.Compression.ZstdLevel,
			},
			SkipPrecompressed: cfg.Compression.SkipPrecompressed,
		},
	}, nil
}
