package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/config"
	"jjsdev/internal/core/errors"
	"jjsdev/internal/core/ports"
)

func TestBuildCompilesThenReusesAcrossRestarts(t *testing.T) {
	cfg, root := newProject(t, config.CachePersistent)
	ctx := context.Background()

	first := newApp(t, cfg, root)
	res, err := first.BuildService().Build(ctx, ports.BuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Units)
	assert.Equal(t, 2, res.Classes)
	assert.Equal(t, 2, res.Stats.Compiled)
	assert.Equal(t, 0, res.Stats.Reused)
	assert.Empty(t, res.ErrorUnits)
	require.NoError(t, first.Close())

	second := newApp(t, cfg, root)
	defer second.Close()
	res, err = second.BuildService().Build(ctx, ports.BuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Units)
	assert.Equal(t, 0, res.Stats.Compiled)
	assert.Equal(t, 2, res.Stats.Reused)
}

func TestStrictBuildReportsErrorUnits(t *testing.T) {
	cfg, root := newProject(t, config.CacheMemory)
	writeSource(t, root, "shapes/Square.java", "package shapes; class Square extends Shape { Missing m; }")
	a := newApp(t, cfg, root)
	defer a.Close()

	svc := a.BuildService()
	res, err := svc.Build(context.Background(), ports.BuildRequest{})
	require.NoError(t, err, "non-strict builds succeed with error units")
	assert.Equal(t, []string{"shapes.Square"}, res.ErrorUnits)

	res, err = svc.Build(context.Background(), ports.BuildRequest{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.Equal(t, []string{"shapes.Square"}, res.ErrorUnits)
}

func TestBuildHonorsCanceledContext(t *testing.T) {
	cfg, root := newProject(t, config.CacheMemory)
	a := newApp(t, cfg, root)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.BuildService().Build(ctx, ports.BuildRequest{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, a.LastState())
}

func TestDumpWritesMiniAST(t *testing.T) {
	cfg, root := newProject(t, config.CacheMemory)
	a := newApp(t, cfg, root)
	defer a.Close()
	svc := a.BuildService()

	var all bytes.Buffer
	require.NoError(t, svc.Dump(context.Background(), &all, ""))
	out := all.String()
	assert.Contains(t, out, "// shapes/Circle.java")
	assert.Contains(t, out, "// shapes/Shape.java")
	assert.Contains(t, out, "Circle")
	assert.Less(t, strings.Index(out, "shapes/Circle.java"), strings.Index(out, "shapes/Shape.java"))

	var one bytes.Buffer
	require.NoError(t, svc.Dump(context.Background(), &one, "shapes.Shape"))
	assert.NotContains(t, one.String(), "Circle")

	err := svc.Dump(context.Background(), &one, "shapes.Nope")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestArchiveSeedsAFreshContext(t *testing.T) {
	cfg, root := newProject(t, config.CacheMemory)
	ctx := context.Background()
	archivePath := filepath.Join(t.TempDir(), "shapes.jjsar")

	producer := newApp(t, cfg, root)
	n, err := producer.BuildService().WriteArchive(ctx, archivePath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, producer.Close())

	consumer := newApp(t, cfg, root)
	defer consumer.Close()
	svc := consumer.BuildService()
	added, err := svc.LoadArchive(ctx, archivePath)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	res, err := svc.Build(ctx, ports.BuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Reused)
	assert.Equal(t, 0, res.Stats.Compiled)
}

func TestWatchRebuildsOnChange(t *testing.T) {
	cfg, root := newProject(t, config.CacheMemory)
	cfg.Watch.Debounce = 50 * time.Millisecond
	cfg.Watch.RebuildsPerSecond = 100
	a := newApp(t, cfg, root)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan ports.BuildResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- a.BuildService().Watch(ctx, func(res ports.BuildResult, err error) {
			if err == nil {
				results <- res
			}
		})
	}()

	// Give the watcher time to register the roots.
	time.Sleep(200 * time.Millisecond)
	writeSource(t, root, "shapes/Square.java", `package shapes;

public class Square extends Shape {
  public double area() {
    return 4.0;
  }
}
`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-results:
			if res.Units == 3 {
				assert.Empty(t, res.ErrorUnits)
				cancel()
				require.NoError(t, <-done)
				return
			}
		case err := <-done:
			t.Fatalf("watch stopped early: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for a watch build")
		}
	}
}

func TestHealthReflectsLastBuild(t *testing.T) {
	cfg, root := newProject(t, config.CacheMemory)
	a := newApp(t, cfg, root)
	defer a.Close()
	health := NewHealthService(a)

	assert.Equal(t, "starting", health.Check(context.Background()).Status)

	_, err := a.BuildService().Build(context.Background(), ports.BuildRequest{})
	require.NoError(t, err)
	status := health.Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok (2 units, 2 classes)", status.Components["build"])

	writeSource(t, root, "shapes/Bad.java", "package shapes; class Bad { Missing m; }")
	_, err = a.BuildService().Build(context.Background(), ports.BuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, "degraded", health.Check(context.Background()).Status)
}
