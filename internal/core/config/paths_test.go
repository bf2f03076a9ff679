package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, DefaultFile), []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "app")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	got, err := ResolvePaths(cfg, nested)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.CacheDir != filepath.Join(root, ".jjsdev", "cache") {
		t.Fatalf("unexpected cache dir: %q", got.CacheDir)
	}
	if len(got.SourceRoots) != 1 || got.SourceRoots[0] != filepath.Join(root, "src") {
		t.Fatalf("unexpected source roots: %v", got.SourceRoots)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(root, "elsewhere")
	cfg := &Config{
		SourceRoots: []string{filepath.Join(root, "java"), "gen"},
		Paths: Paths{
			ProjectRoot: root,
			CacheDir:    cache,
		},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, "/unused")
	if err != nil {
		t.Fatal(err)
	}
	if got.CacheDir != cache {
		t.Fatalf("unexpected cache dir: %q", got.CacheDir)
	}
	if got.SourceRoots[0] != filepath.Join(root, "java") || got.SourceRoots[1] != filepath.Join(root, "gen") {
		t.Fatalf("unexpected source roots: %v", got.SourceRoots)
	}
}

func TestResolvePaths_RequiresCwd(t *testing.T) {
	if _, err := ResolvePaths(Default(), " "); err == nil {
		t.Fatal("expected an error for an empty cwd")
	}
}

func TestDetectProjectRoot_MarkerOrder(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".jjsdev"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(deep, "X.java")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot([]string{"", file})
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("expected %q, got %q", root, got)
	}
}
