package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: JJSDEV_[SECTION]_[KEY] (e.g., JJSDEV_CACHE_MODE).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "JJSDEV_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.CacheDir, "JJSDEV_PATHS_CACHE_DIR")

	// Cache
	setEnvString(&cfg.Cache.Mode, "JJSDEV_CACHE_MODE")
	setEnvInt(&cfg.Cache.HotBlobs, "JJSDEV_CACHE_HOT_BLOBS")
	setEnvInt(&cfg.Cache.Contexts, "JJSDEV_CACHE_CONTEXTS")

	// Build
	setEnvBool(&cfg.Build.Strict, "JJSDEV_BUILD_STRICT")
	setEnvInt(&cfg.Build.MaxIterations, "JJSDEV_BUILD_MAX_ITERATIONS")
	setEnvInt(&cfg.Build.ParseWorkers, "JJSDEV_BUILD_PARSE_WORKERS")

	// Watch
	setEnvBool(&cfg.Watch.Enabled, "JJSDEV_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "JJSDEV_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RebuildsPerSecond, "JJSDEV_WATCH_REBUILDS_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "JJSDEV_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.TraceEndpoint, "JJSDEV_OBSERVABILITY_TRACE_ENDPOINT")
	setEnvString(&cfg.Observability.LogLevel, "JJSDEV_OBSERVABILITY_LOG_LEVEL")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
