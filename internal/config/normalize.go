package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"

	"assetprep/internal/compress"
	"assetprep/internal/transcode"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeImages(); err != nil {
		return err
	}
	if err := c.normalizeCompression(); err != nil {
		return err
	}
	c.normalizeWorkers()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeImages() error {
	targets := make([]string, 0, len(c.Images.Targets))
	seen := make(map[string]struct{}, len(c.Images.Targets))
	for _, raw := range c.Images.Targets {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		target, err := transcode.ParseTarget(raw)
		if err != nil {
			return fmt.Errorf("images.targets: %w", err)
		}
		name := target.String()
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		targets = append(targets, name)
	}
	c.Images.Targets = targets
	c.Images.JPEGBackground = strings.ToLower(strings.TrimSpace(c.Images.JPEGBackground))
	if c.Images.JPEGBackground == "" {
		c.Images.JPEGBackground = defaultJPEGBackground
	}
	if !strings.HasPrefix(c.Images.JPEGBackground, "#") {
		c.Images.JPEGBackground = "#" + c.Images.JPEGBackground
	}
	return nil
}

func (c *Config) normalizeCompression() error {
	codecs := make([]string, 0, len(c.Compression.Codecs))
	seen := make(map[string]struct{}, len(c.Compression.Codecs))
	for _, raw := range c.Compression.Codecs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		codec, err := compress.ParseCodec(raw)
		if err != nil {
			return fmt.Errorf("compression.codecs: %w", err)
		}
		if _, exists := seen[codec.Name]; exists {
			continue
		}
		seen[codec.Name] = struct{}{}
		codecs = append(codecs, codec.Name)
	}
	c.Compression.Codecs = codecs
	return nil
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount()
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

// applyEnv layers the environment overrides on top of file values. It runs
// once per Load so later CLI overrides are not clobbered by Finalize.
func (c *Config) applyEnv() error {
	if err := envInt("ZSTD_LEVEL", &c.Compression.ZstdLevel); err != nil {
		return err
	}
	if err := envInt("BROTLI_LEVEL", &c.Compression.BrotliLevel); err != nil {
		return err
	}
	if err := envInt("GZIP_LEVEL", &c.Compression.GzipLevel); err != nil {
		return err
	}
	if err := envInt("DEFLATE_LEVEL", &c.Compression.DeflateLevel); err != nil {
		return err
	}
	if err := envInt("ASSETPREP_WORKERS", &c.Workers.Count); err != nil {
		return err
	}
	if value, ok := os.LookupEnv("WEBP_LOSSLESS"); ok {
		value = strings.TrimSpace(value)
		c.Images.WebPLossless = value != "false" && value != "0"
	}
	if value, ok := os.LookupEnv("WEBP_QUALITY"); ok {
		quality, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("WEBP_QUALITY must be a float between 0 and 100, inclusive")
		}
		c.Images.WebPQuality = quality
	}
	return nil
}

func envInt(name string, dst *int) error {
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s must be a valid integer", name)
	}
	*dst = parsed
	return nil
}

// defaultWorkerCount is the host's logical CPU count, capped by the CPUs this
// process may run on (affinity masks and cgroup-limited containers).
func defaultWorkerCount() int {
	usable := runtime.NumCPU()
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return min(n, usable)
	}
	return usable
}
