package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, HomeDirName), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "items", "unit1")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if got := FindProjectRoot(nested); got != root {
		t.Errorf("FindProjectRoot(%q) = %q, want %q", nested, got, root)
	}
	if got := FindProjectRoot(root); got != root {
		t.Errorf("FindProjectRoot(root) = %q, want %q", got, root)
	}
}

func TestFindProjectRoot_IgnoresMarkerFile(t *testing.T) {
	dir := t.TempDir()
	// A plain file named .itemforge is not a project home
	if err := os.WriteFile(filepath.Join(dir, HomeDirName), []byte{}, 0644); err != nil {
		t.Fatal(err)
	}
	if got := FindProjectRoot(dir); got == dir {
		t.Errorf("FindProjectRoot() = %q, want a directory-only match", got)
	}
}

func TestProjectRoot_EnvVar(t *testing.T) {
	home := filepath.Join(t.TempDir(), HomeDirName)
	t.Setenv(HomeEnvVar, home)

	root, err := ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot() error = %v", err)
	}
	if root != filepath.Dir(home) {
		t.Errorf("ProjectRoot() = %q, want %q", root, filepath.Dir(home))
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "/abs/out"
	cfg.ResolvePaths("/project")

	if cfg.LogDir != filepath.Join("/project", ".itemforge", "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Cache.DBPath != filepath.Join("/project", ".itemforge", "cache.db") {
		t.Errorf("Cache.DBPath = %q", cfg.Cache.DBPath)
	}
	if cfg.OutputDir != "/abs/out" {
		t.Errorf("OutputDir = %q, absolute paths must be kept", cfg.OutputDir)
	}

	mem := DefaultConfig()
	mem.Cache.DBPath = ":memory:"
	mem.ResolvePaths("/project")
	if mem.Cache.DBPath != ":memory:" {
		t.Errorf("Cache.DBPath = %q, want :memory: untouched", mem.Cache.DBPath)
	}
}
