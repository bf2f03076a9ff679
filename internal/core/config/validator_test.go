package config

import (
	"testing"

	"jjsdev/internal/core/config/helpers"
)

func TestValidateCacheMemoryNeedsNoPaths(t *testing.T) {
	cfg := Default()
	cfg.Cache.Mode = CacheMemory
	cfg.Cache.DBPath = ""
	cfg.Cache.BlobDir = ""
	if err := validateCache(cfg); err != nil {
		t.Fatalf("memory cache must not need paths: %v", err)
	}

	cfg.Cache.Mode = CachePersistent
	if err := validateCache(cfg); err == nil {
		t.Fatal("persistent cache without db_path must fail")
	}
}

func TestValidateResourcesEmptyPattern(t *testing.T) {
	cfg := Default()
	cfg.Resources.ExcludeDirs = []string{"  "}
	err := validateResources(cfg)
	if err == nil || err.Error() != "resources.exclude_dirs[0] must not be empty" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPathOverlap(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"src", "src", true},
		{"src", "src/gen", true},
		{"src/gen", "src", true},
		{"src", "src2", false},
		{"a/src", "b/src", false},
	}
	for _, tc := range cases {
		if got := helpers.IsPathOverlap(tc.a, tc.b); got != tc.want {
			t.Errorf("IsPathOverlap(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
	if !helpers.HasWildcard("src/**") || helpers.HasWildcard("src/main") {
		t.Error("HasWildcard misclassified a pattern")
	}
}

func TestValidateResourcesExcludeIsAName(t *testing.T) {
	cfg := Default()
	cfg.Resources.ExcludeFiles = []string{"gen/*.java"}
	if err := validateResources(cfg); err == nil {
		t.Fatal("exclude_files entries with a separator must fail")
	}
	cfg.Resources.ExcludeFiles = []string{"*Test.java"}
	if err := validateResources(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
