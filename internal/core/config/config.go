// Package config loads jjsdev.toml: where sources live, how units are
// cached between runs and how builds are triggered and observed.
package config

import "time"

const DefaultFile = "jjsdev.toml"

type Config struct {
	Version       int           `toml:"version"`
	SourceRoots   []string      `toml:"source_roots"`
	Paths         Paths         `toml:"paths"`
	Cache         Cache         `toml:"cache"`
	Build         Build         `toml:"build"`
	Resources     Resources     `toml:"resources"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	CacheDir    string `toml:"cache_dir"`
}

const (
	CacheMemory     = "memory"
	CachePersistent = "persistent"
)

type Cache struct {
	Mode string `toml:"mode"`
	// DBPath and BlobDir are relative to the context's cache directory.
	DBPath   string `toml:"db_path"`
	BlobDir  string `toml:"blob_dir"`
	HotBlobs int    `toml:"hot_blobs"`
	// Contexts bounds how many compilation contexts stay open.
	Contexts int `toml:"contexts"`
}

type Build struct {
	SuppressErrors *bool `toml:"suppress_errors"`
	Strict         bool  `toml:"strict"`
	MaxIterations  int   `toml:"max_iterations"`
	ParseWorkers   int   `toml:"parse_workers"`
}

// Suppressed reports whether first-pass compile errors are only logged at
// TRACE. Strict builds always report them.
func (b Build) Suppressed() bool {
	if b.Strict {
		return false
	}
	if b.SuppressErrors == nil {
		return true
	}
	return *b.SuppressErrors
}

type Resources struct {
	Include      []string `toml:"include"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// RebuildsPerSecond and Burst throttle watch-triggered builds.
	RebuildsPerSecond float64 `toml:"rebuilds_per_second"`
	Burst             int     `toml:"burst"`
}

type Observability struct {
	MetricsAddr   string `toml:"metrics_addr"`
	TraceEndpoint string `toml:"trace_endpoint"`
	LogLevel      string `toml:"log_level"`
}
