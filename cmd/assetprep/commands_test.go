package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	requireExists(t, target)

	if _, _, err := runCLI(t, []string{"config", "init", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--overwrite", target}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+env.configPath)
	requireContains(t, out, "avif_speed = 10")
	requireContains(t, out, "jpeg_quality = 90")

	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateReportsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[compression]\nzstd_level = 99\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", env.inputDir, env.outputDir}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "[OK]")
	requireMissing(t, env.outputDir)

	out, _, err = runCLI(t, []string{"check", env.inputDir, env.inputDir}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure for identical roots, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestHistoryFailuresUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"--history", "--no-progress", env.inputDir, env.outputDir}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, _, err := runCLI(t, []string{"history", "failures", "zzzz"}, env.configPath); err == nil {
		t.Fatal("expected unknown run prefix to fail")
	}
	out, _, err := runCLI(t, []string{"history", "prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 runs")
}
