package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"assetprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a finalized config with unique input and output roots
// per test. Env overrides are not consulted.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "public")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Workers.Count = 2
	// Fastest AVIF speed keeps image tests quick.
	cfgVal.Images.AVIFSpeed = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatalf("create input dir: %v", err)
	}
	if err := builder.cfg.Finalize(); err != nil {
		t.Fatalf("finalize test config: %v", err)
	}
	return builder.cfg
}

// WithTargets overrides the enabled image targets.
func WithTargets(targets ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Images.Targets = targets
	}
}

// WithCodecs overrides the enabled compression codecs.
func WithCodecs(codecs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compression.Codecs = codecs
	}
}

// WithWorkers sets the worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workers.Count = n
	}
}

// WithOutputDir places the output root at dir.
func WithOutputDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputDir = dir
	}
}

// WithHistory enables the run ledger.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// Mutate applies an arbitrary change before the config is finalized.
func Mutate(fn func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		fn(b.cfg)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InputDir)
}
