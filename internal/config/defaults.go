package config

const (
	defaultJPEGQuality       = 90
	defaultJPEGBackground    = "#ffffff"
	defaultWebPQuality       = 80.0
	defaultAVIFQuality       = 60
	defaultAVIFSpeed         = 6
	defaultBrotliLevel       = 5
	defaultGzipLevel         = 6
	defaultDeflateLevel      = defaultGzipLevel
	defaultZstdLevel         = 7
	defaultHistoryPath       = "~/.local/share/assetprep/history.db"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultConfigPath        = "~/.config/assetprep/config.toml"
	defaultProjectConfigFile = "assetprep.toml"
)

// Default returns a Config populated with repository defaults. Every image
// target and every compression codec is enabled; the worker count is left at
// zero so normalization resolves it from the host's logical CPU count.
func Default() Config {
	return Config{
		Images: Images{
			Targets:        []string{"png", "jpeg", "webp", "avif"},
			JPEGQuality:    defaultJPEGQuality,
			JPEGBackground: defaultJPEGBackground,
			WebPQuality:    defaultWebPQuality,
			AVIFQuality:    defaultAVIFQuality,
			AVIFSpeed:      defaultAVIFSpeed,
		},
		Compression: Compression{
			Codecs:            []string{"brotli", "gzip", "deflate", "zstd"},
			BrotliLevel:       defaultBrotliLevel,
			GzipLevel:         defaultGzipLevel,
			DeflateLevel:      defaultDeflateLevel,
			ZstdLevel:         defaultZstdLevel,
			SkipPrecompressed: true,
		},
		History: History{
			Path: defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
