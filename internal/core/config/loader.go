package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"jjsdev/internal/core/errors"
)

const defaultMaxIterations = 64

var defaultIncludes = []string{"**/*.java", "**/*.jribble", "**/*.jribblebin"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "reading config"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decoding config"), errors.CtxPath, path)
	}
	if err := finish(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// Default is the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadOrDefault loads path, falling back to Default when path is the
// default file name and does not exist.
func LoadOrDefault(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); path == DefaultFile && os.IsNotExist(err) {
		cfg = Default()
	} else {
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	ApplyEnvOverrides(cfg)
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	applyDefaults(cfg)
	normalize(cfg)
	return validate(cfg)
}

func validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateCache,
		validateBuild,
		validateResources,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.SourceRoots) == 0 {
		cfg.SourceRoots = []string{"src"}
	}
	if strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		cfg.Paths.CacheDir = ".jjsdev/cache"
	}

	if strings.TrimSpace(cfg.Cache.Mode) == "" {
		cfg.Cache.Mode = CachePersistent
	}
	if strings.TrimSpace(cfg.Cache.DBPath) == "" {
		cfg.Cache.DBPath = "units.db"
	}
	if strings.TrimSpace(cfg.Cache.BlobDir) == "" {
		cfg.Cache.BlobDir = "classes"
	}
	if cfg.Cache.HotBlobs == 0 {
		cfg.Cache.HotBlobs = 2048
	}
	if cfg.Cache.Contexts == 0 {
		cfg.Cache.Contexts = 4
	}

	if cfg.Build.MaxIterations == 0 {
		cfg.Build.MaxIterations = defaultMaxIterations
	}

	if len(cfg.Resources.Include) == 0 {
		cfg.Resources.Include = append([]string(nil), defaultIncludes...)
	}
	if len(cfg.Resources.ExcludeDirs) == 0 {
		cfg.Resources.ExcludeDirs = []string{".git", ".jjsdev", "build", "target"}
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RebuildsPerSecond == 0 {
		cfg.Watch.RebuildsPerSecond = 2
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Observability.LogLevel) == "" {
		cfg.Observability.LogLevel = "INFO"
	}
}

func normalize(cfg *Config) {
	for i, root := range cfg.SourceRoots {
		cfg.SourceRoots[i] = strings.TrimSpace(root)
	}
	cfg.Cache.Mode = strings.ToLower(strings.TrimSpace(cfg.Cache.Mode))
	cfg.Observability.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.Observability.LogLevel))
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.TraceEndpoint = strings.TrimSpace(cfg.Observability.TraceEndpoint)
}
