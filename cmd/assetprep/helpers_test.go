package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir     string
	inputDir    string
	outputDir   string
	configPath  string
	historyPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, name := range []string{"ZSTD_LEVEL", "BROTLI_LEVEL", "GZIP_LEVEL", "DEFLATE_LEVEL", "WEBP_LOSSLESS", "WEBP_QUALITY", "ASSETPREP_WORKERS"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	env := &cliTestEnv{
		baseDir:     base,
		inputDir:    filepath.Join(base, "public"),
		outputDir:   filepath.Join(base, "output"),
		configPath:  filepath.Join(base, "assetprep.toml"),
		historyPath: filepath.Join(base, "state", "history.db"),
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	content := fmt.Sprintf("[images]\navif_speed = 10\n\n[workers]\ncount = 2\n\n[history]\npath = %q\n", env.historyPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func requireMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be absent, got %v", path, err)
	}
}
