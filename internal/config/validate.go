package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Input and output roots are
// not required here: the CLI supplies them positionally and the pipeline
// reports missing roots as fatal run errors.
func (c *Config) Validate() error {
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateCompression(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateImages() error {
	if err := ensureRange("images.jpeg_quality", c.Images.JPEGQuality, 1, 100); err != nil {
		return err
	}
	if c.Images.WebPQuality < 0 || c.Images.WebPQuality > 100 {
		return errors.New("images.webp_quality must be between 0 and 100")
	}
	if err := ensureRange("images.avif_quality", c.Images.AVIFQuality, 0, 100); err != nil {
		return err
	}
	if err := ensureRange("images.avif_speed", c.Images.AVIFSpeed, 0, 10); err != nil {
		return err
	}
	if _, err := ParseHexColor(c.Images.JPEGBackground); err != nil {
		return fmt.Errorf("images.jpeg_background: %w", err)
	}
	return nil
}

func (c *Config) validateCompression() error {
	return ensureRanges([]levelRange{
		{"compression.brotli_level", c.Compression.BrotliLevel, 0, 11},
		{"compression.gzip_level", c.Compression.GzipLevel, 1, 9},
		{"compression.deflate_level", c.Compression.DeflateLevel, 1, 9},
		{"compression.zstd_level", c.Compression.ZstdLevel, 1, 22},
	})
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count <= 0 {
		return errors.New("workers.count must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

type levelRange struct {
	key      string
	value    int
	min, max int
}

func ensureRanges(ranges []levelRange) error {
	for _, r := range ranges {
		if err := ensureRange(r.key, r.value, r.min, r.max); err != nil {
			return err
		}
	}
	return nil
}

func ensureRange(key string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, inclusive", key, min, max)
	}
	return nil
}
