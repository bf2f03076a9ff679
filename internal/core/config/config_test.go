package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jjsdev/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
source_roots = ["src/main/java", "gen"]

[paths]
cache_dir = "out/cache"

[cache]
mode = "Memory"
hot_blobs = 64
contexts = 2

[build]
suppress_errors = false
max_iterations = 8
parse_workers = 3

[resources]
include = ["**/*.java"]
exclude_dirs = ["target"]
exclude_files = ["*Test.java"]

[watch]
enabled = true
debounce = "1s"
rebuilds_per_second = 0.5

[observability]
metrics_addr = ":9464"
log_level = "trace"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.SourceRoots) != 2 || cfg.SourceRoots[0] != "src/main/java" {
		t.Errorf("Unexpected SourceRoots: %v", cfg.SourceRoots)
	}
	if cfg.Paths.CacheDir != "out/cache" {
		t.Errorf("Expected cache_dir out/cache, got %s", cfg.Paths.CacheDir)
	}
	if cfg.Cache.Mode != CacheMemory {
		t.Errorf("Expected normalized cache mode memory, got %q", cfg.Cache.Mode)
	}
	if cfg.Cache.HotBlobs != 64 || cfg.Cache.Contexts != 2 {
		t.Errorf("Unexpected cache section: %+v", cfg.Cache)
	}
	if cfg.Build.Suppressed() {
		t.Error("Expected suppress_errors=false to be honored")
	}
	if cfg.Build.MaxIterations != 8 || cfg.Build.ParseWorkers != 3 {
		t.Errorf("Unexpected build section: %+v", cfg.Build)
	}
	if len(cfg.Resources.ExcludeFiles) != 1 || cfg.Resources.ExcludeFiles[0] != "*Test.java" {
		t.Errorf("Unexpected exclude_files: %v", cfg.Resources.ExcludeFiles)
	}
	if !cfg.Watch.Enabled || cfg.Watch.Debounce != time.Second || cfg.Watch.RebuildsPerSecond != 0.5 {
		t.Errorf("Unexpected watch section: %+v", cfg.Watch)
	}
	if cfg.Observability.LogLevel != "TRACE" {
		t.Errorf("Expected normalized log level TRACE, got %q", cfg.Observability.LogLevel)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if cfg.Paths.CacheDir != ".jjsdev/cache" {
		t.Errorf("Expected default cache dir, got %q", cfg.Paths.CacheDir)
	}
	if cfg.Cache.Mode != CachePersistent {
		t.Errorf("Expected persistent cache by default, got %q", cfg.Cache.Mode)
	}
	if cfg.Build.MaxIterations != 64 {
		t.Errorf("Expected max_iterations 64, got %d", cfg.Build.MaxIterations)
	}
	if !cfg.Build.Suppressed() {
		t.Error("Expected first-pass errors to be suppressed by default")
	}
	want := []string{"**/*.java", "**/*.jribble", "**/*.jribblebin"}
	if strings.Join(cfg.Resources.Include, ",") != strings.Join(want, ",") {
		t.Errorf("Unexpected default includes: %v", cfg.Resources.Include)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if err := validate(cfg); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestStrictOverridesSuppression(t *testing.T) {
	suppress := true
	b := Build{SuppressErrors: &suppress, Strict: true}
	if b.Suppressed() {
		t.Error("strict builds must report every error")
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.IsCode(err, errors.CodeIO) {
		t.Fatalf("Expected IO error for a missing file, got %v", err)
	}

	_, err = Load(writeConfig(t, "version = ["))
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("Expected validation error for malformed TOML, got %v", err)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 2", "unsupported config version 2"},
		{"cache mode", "[cache]\nmode = \"redis\"", "cache.mode must be one of"},
		{"contexts", "[cache]\ncontexts = 100", "cache.contexts must be between"},
		{"iterations", "[build]\nmax_iterations = -1", "build.max_iterations must be between"},
		{"workers", "[build]\nparse_workers = -2", "build.parse_workers must be >= 0"},
		{"root pattern", "source_roots = [\"src/*\"]", "must be a directory, not a pattern"},
		{"root overlap", "source_roots = [\"src\", \"src/gen\"]", "overlaps source_roots[0]"},
		{"bad glob", "[resources]\ninclude = [\"[a\"]", "is not a valid glob"},
		{"debounce", "[watch]\ndebounce = \"2m\"", "watch.debounce must be between"},
		{"rate", "[watch]\nrebuilds_per_second = -1", "watch.rebuilds_per_second must be > 0"},
		{"log level", "[observability]\nlog_level = \"loud\"", "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.want)
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("Expected a validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	t.Setenv("JJSDEV_CACHE_MODE", "memory")
	cfg, err := LoadOrDefault(DefaultFile)
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Cache.Mode != CacheMemory {
		t.Errorf("Expected env override to select memory cache, got %q", cfg.Cache.Mode)
	}

	if _, err := LoadOrDefault("other.toml"); !errors.IsCode(err, errors.CodeIO) {
		t.Errorf("Expected a missing explicit config to fail, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JJSDEV_BUILD_STRICT", "true")
	t.Setenv("JJSDEV_WATCH_DEBOUNCE", "250ms")
	t.Setenv("JJSDEV_BUILD_MAX_ITERATIONS", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)
	if !cfg.Build.Strict {
		t.Error("Expected JJSDEV_BUILD_STRICT to apply")
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Expected debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Build.MaxIterations != 64 {
		t.Errorf("Expected unparsable override to be ignored, got %d", cfg.Build.MaxIterations)
	}
}
