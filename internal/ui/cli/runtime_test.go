package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreapp "jjsdev/internal/core/app"
	"jjsdev/internal/core/config"
	"jjsdev/internal/core/ports"
	"jjsdev/internal/engine/javac"
)

func TestApplyModeOptions_RejectsOnceAndWatch(t *testing.T) {
	opts := &cliOptions{once: true, watch: true}
	err := applyModeOptions(opts, config.Default())
	if err == nil || !strings.Contains(err.Error(), "cannot be combined") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyModeOptions_RejectsWatchWithDump(t *testing.T) {
	opts := &cliOptions{watch: true, dumpAll: true}
	if err := applyModeOptions(opts, config.Default()); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyModeOptions_OverridesSourceRootsWithPositionalArgs(t *testing.T) {
	opts := &cliOptions{strict: true, args: []string{"java", "gen"}}
	cfg := config.Default()

	if err := applyModeOptions(opts, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.SourceRoots) != 2 || cfg.SourceRoots[0] != "java" || cfg.SourceRoots[1] != "gen" {
		t.Fatalf("unexpected source roots: %v", cfg.SourceRoots)
	}
	if !cfg.Build.Strict {
		t.Fatal("--strict must set build.strict")
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-once", "-dump", "a.B", "-archive-out", "out.jjsar", "src"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !opts.once || opts.dump != "a.B" || opts.archiveOut != "out.jjsar" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts.args) != 1 || opts.args[0] != "src" {
		t.Fatalf("unexpected args: %v", opts.args)
	}
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, ports.BuildResult{
		Units:      3,
		Classes:    4,
		ErrorUnits: []string{"p.Broken"},
		Stats:      javac.BuildStats{Compiled: 1, Reused: 2, Iterations: 1},
		Duration:   1500 * time.Millisecond,
	})
	got := out.String()
	if !strings.Contains(got, "Built 3 units, 4 classes in 1.5s (compiled 1, reused 2, invalidated 0, 1 rounds)") {
		t.Fatalf("unexpected summary: %q", got)
	}
	if !strings.Contains(got, "  p.Broken\n") {
		t.Fatalf("missing error unit: %q", got)
	}
}

func writeProject(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src", "demo")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	hello := "package demo;\n\npublic class Hello {\n  public static int answer() {\n    return 42;\n  }\n}\n"
	if err := os.WriteFile(filepath.Join(src, "Hello.java"), []byte(hello), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, config.DefaultFile)
	toml := "version = 1\nsource_roots = [\"src\"]\n\n[paths]\nproject_root = \"" + filepath.ToSlash(root) + "\"\n\n[cache]\nmode = \"memory\"\n"
	if err := os.WriteFile(cfgPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, cfgPath
}

func TestRun_OnceDumpAndArchive(t *testing.T) {
	root, cfgPath := writeProject(t)
	cfg, gotPath, err := loadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if gotPath != cfgPath {
		t.Fatalf("expected config path %q, got %q", cfgPath, gotPath)
	}
	app, err := coreapp.NewAt(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	archive := filepath.Join(root, "out", "demo.jjsar")
	opts := cliOptions{once: true, dump: "demo.Hello", archiveOut: archive}
	var out bytes.Buffer
	if code := run(context.Background(), app, cfg, gotPath, opts, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out.String())
	}
	got := out.String()
	for _, want := range []string{"Built 1 units", "// demo/Hello.java", "answer", "Archived 1 units"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive not written: %v", err)
	}
}

func TestObservabilityServerRoutes(t *testing.T) {
	root, cfgPath := writeProject(t)
	cfg, _, err := loadConfig(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	app, err := coreapp.NewAt(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()
	if _, err := app.BuildService().Build(context.Background(), ports.BuildRequest{}); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(NewObservabilityServer("", coreapp.NewHealthService(app)).handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status coreapp.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "up" {
		t.Fatalf("unexpected status: %+v", status)
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", metrics.StatusCode)
	}
}
