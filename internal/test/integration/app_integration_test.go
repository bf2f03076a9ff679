package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/app"
	"jjsdev/internal/core/config"
	"jjsdev/internal/core/ports"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/jribble"
)

const shapeSrc = `package demo;

public abstract class Shape {
  public abstract double area();
}
`

const shapeWithSides = `package demo;

public abstract class Shape {
  public abstract double area();

  public int sides() {
    return 0;
  }
}
`

const squareSrc = `package demo;

public class Square extends Shape {
  public double area() {
    return 4.0;
  }

  public String label() {
    return Names.label();
  }
}
`

// names is the Jribble declaration of demo.Names, a type produced by a
// non-Java front end.
func names() *decl.DeclaredType {
	str := decl.Named("java.lang.String")
	return &decl.DeclaredType{
		Name:      decl.GlobalName{Pkg: "demo", Name: "Names"},
		Modifiers: decl.Modifiers{Public: true},
		Members: []decl.Member{{
			Kind:      decl.MemberMethod,
			Modifiers: decl.Modifiers{Public: true, Static: true},
			Method: &decl.Method{
				Name:       "label",
				ReturnType: str,
				Body:       decl.Stmts(&decl.Return{X: decl.StringLit("square")}),
			},
		}},
		SourceFile: "Names.scala",
	}
}

func createTestFiles(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "src", "demo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Shape.java"), []byte(shapeSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Square.java"), []byte(squareSrc), 0o644))

	var buf bytes.Buffer
	require.NoError(t, jribble.MustSchema().WriteText(&buf, names()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Names.jribble"), buf.Bytes(), 0o644))
}

func TestFullPipelineIntegration(t *testing.T) {
	root := t.TempDir()
	createTestFiles(t, root)

	cfg := config.Default()
	cfg.Paths.ProjectRoot = root
	cfg.Build.Strict = true

	appInstance, err := app.NewAt(cfg, root)
	require.NoError(t, err)
	svc := appInstance.BuildService()
	ctx := context.Background()

	res, err := svc.Build(ctx, ports.BuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Units)
	assert.Empty(t, res.ErrorUnits)

	state := appInstance.LastState()
	require.NotNil(t, state)
	square, ok := state.Unit("demo.Square")
	require.True(t, ok)
	assert.Contains(t, square.Dependencies().Qualified(), "demo.Names")
	assert.Contains(t, state.ClassFileMap(), "demo/Names")

	// A structural change to Shape invalidates Square, which depends on it.
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "demo", "Shape.java"), []byte(shapeWithSides), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src", "demo", "Shape.java"), later, later))
	res, err = svc.Build(ctx, ports.BuildRequest{Changed: []string{"demo/Shape.java"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Units)
	assert.GreaterOrEqual(t, res.Stats.Invalidated, 1)
	assert.GreaterOrEqual(t, res.Stats.Compiled, 2)
	require.NoError(t, appInstance.Close())

	// A restart reuses every persisted Java unit. Jribble units are not
	// persisted and come back from their resource.
	restarted, err := app.NewAt(cfg, root)
	require.NoError(t, err)
	defer restarted.Close()
	res, err = restarted.BuildService().Build(ctx, ports.BuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Units)
	assert.Equal(t, 2, res.Stats.Reused)
	assert.Empty(t, res.ErrorUnits)
}
