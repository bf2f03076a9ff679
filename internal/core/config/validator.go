package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"jjsdev/internal/core/config/helpers"
	"jjsdev/internal/shared/treelog"
	"jjsdev/internal/shared/util"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateCache(cfg *Config) error {
	switch cfg.Cache.Mode {
	case CacheMemory, CachePersistent:
	default:
		return fmt.Errorf("cache.mode must be one of: memory, persistent")
	}
	if cfg.Cache.Mode == CachePersistent {
		if strings.TrimSpace(cfg.Cache.DBPath) == "" {
			return fmt.Errorf("cache.db_path must not be empty when cache.mode=persistent")
		}
		if strings.TrimSpace(cfg.Cache.BlobDir) == "" {
			return fmt.Errorf("cache.blob_dir must not be empty when cache.mode=persistent")
		}
	}
	if cfg.Cache.HotBlobs < 0 {
		return fmt.Errorf("cache.hot_blobs must be >= 0, got %d", cfg.Cache.HotBlobs)
	}
	if cfg.Cache.Contexts < 1 || cfg.Cache.Contexts > 64 {
		return fmt.Errorf("cache.contexts must be between 1 and 64")
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.MaxIterations < 1 || cfg.Build.MaxIterations > 10000 {
		return fmt.Errorf("build.max_iterations must be between 1 and 10000")
	}
	if cfg.Build.ParseWorkers < 0 {
		return fmt.Errorf("build.parse_workers must be >= 0, got %d", cfg.Build.ParseWorkers)
	}
	return nil
}

func validateResources(cfg *Config) error {
	if len(cfg.SourceRoots) == 0 {
		return fmt.Errorf("source_roots must not be empty")
	}
	roots := make([]string, 0, len(cfg.SourceRoots))
	for i, root := range cfg.SourceRoots {
		if root == "" {
			return fmt.Errorf("source_roots[%d] must not be empty", i)
		}
		if helpers.HasWildcard(root) {
			return fmt.Errorf("source_roots[%d] %q must be a directory, not a pattern", i, root)
		}
		clean := filepath.Clean(root)
		for j, prev := range roots {
			if helpers.IsPathOverlap(clean, prev) {
				return fmt.Errorf("source_roots[%d] %q overlaps source_roots[%d] %q", i, root, j, cfg.SourceRoots[j])
			}
		}
		roots = append(roots, clean)
	}

	if len(cfg.Resources.Include) == 0 {
		return fmt.Errorf("resources.include must not be empty")
	}
	for _, set := range []struct {
		field    string
		patterns []string
	}{
		{"resources.include", cfg.Resources.Include},
		{"resources.exclude_dirs", cfg.Resources.ExcludeDirs},
		{"resources.exclude_files", cfg.Resources.ExcludeFiles},
	} {
		field := set.field
		for i, pattern := range set.patterns {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("%s[%d] must not be empty", field, i)
			}
			if field != "resources.include" && util.ContainsPathSeparator(pattern) {
				return fmt.Errorf("%s[%d] %q matches a single name and must not contain a separator", field, i, pattern)
			}
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return fmt.Errorf("%s[%d] %q is not a valid glob: %w", field, i, pattern, err)
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 || cfg.Watch.Debounce > time.Minute {
		return fmt.Errorf("watch.debounce must be between 0s and 1m")
	}
	if cfg.Watch.RebuildsPerSecond <= 0 {
		return fmt.Errorf("watch.rebuilds_per_second must be > 0")
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if _, err := treelog.ParseLevel(cfg.Observability.LogLevel); err != nil {
		return fmt.Errorf("observability.log_level: %w", err)
	}
	return nil
}
