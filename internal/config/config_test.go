package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bract.toml")
	if err := os.WriteFile(path, []byte("[build]\ntarget = \"x86_64\"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.Target != "x86_64" {
		t.Errorf("Target = %q, want x86_64", cfg.Build.Target)
	}
	if cfg.Build.Jobs <= 0 {
		t.Errorf("Jobs = %d, want a positive default", cfg.Build.Jobs)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
}

func TestJobsOrDefault(t *testing.T) {
	if got := JobsOrDefault(4); got != 4 {
		t.Errorf("JobsOrDefault(4) = %d, want 4", got)
	}
	if got := JobsOrDefault(0); got <= 0 {
		t.Errorf("JobsOrDefault(0) = %d, want a positive fallback", got)
	}
}
