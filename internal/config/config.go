package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the input and output roots. Positional CLI arguments take
// precedence over these values.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
}

// Images contains the target formats and encoder settings for raster images.
type Images struct {
	Targets     []string `toml:"targets"`
	JPEGQuality int      `toml:"jpeg_quality"`
	// JPEGBackground is the opaque colour alpha is flattened against when
	// encoding JPEG, written as #rrggbb.
	JPEGBackground string  `toml:"jpeg_background"`
	WebPLossless   bool    `toml:"webp_lossless"`
	WebPQuality    float64 `toml:"webp_quality"`
	AVIFQuality    int     `toml:"avif_quality"`
	AVIFSpeed      int     `toml:"avif_speed"`
}

// Compression contains the codecs and levels applied to generic files.
type Compression struct {
	Codecs       []string `toml:"codecs"`
	BrotliLevel  int      `toml:"brotli_level"`
	GzipLevel    int      `toml:"gzip_level"`
	DeflateLevel int      `toml:"deflate_level"`
	ZstdLevel    int      `toml:"zstd_level"`
	// SkipPrecompressed copies files that already carry a codec suffix
	// without producing further compressed siblings.
	SkipPrecompressed bool `toml:"skip_precompressed"`
}

// Workers controls pipeline parallelism.
type Workers struct {
	Count int `toml:"count"` // 0 resolves to the logical CPU count
}

// Run contains run-level policy switches.
type Run struct {
	FailOnFileErrors bool `toml:"fail_on_file_errors"`
	FollowSymlinks   bool `toml:"follow_symlinks"`
}

// History contains configuration for the SQLite run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for assetprep.
//
// Configuration sections by subsystem:
//   - Paths: input and output roots
//   - Images: target formats and encoder quality settings
//   - Compression: codecs, levels, and precompressed-file policy
//   - Workers: concurrency limit
//   - Run: failure policy and symlink handling
//   - History: optional run ledger
//   - Logging: log format, level, and optional file sink
type Config struct {
	Paths       Paths       `toml:"paths"`
	Images      Images      `toml:"images"`
	Compression Compression `toml:"compression"`
	Workers     Workers     `toml:"workers"`
	Run         Run         `toml:"run"`
	History     History     `toml:"history"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Finalize re-runs normalization and validation after callers (the CLI flag
// layer) have applied overrides on top of a loaded config.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// JPEGBackgroundColor returns the parsed flattening colour for JPEG output.
func (c *Config) JPEGBackgroundColor() color.NRGBA {
	bg, err := ParseHexColor(c.Images.JPEGBackground)
	if err != nil {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	return bg
}

// ParseHexColor parses #rgb or #rrggbb into an opaque colour.
func ParseHexColor(value string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: expected #rgb or #rrggbb", value)
	}
	rgb, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: %w", value, err)
	}
	return color.NRGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}, nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
