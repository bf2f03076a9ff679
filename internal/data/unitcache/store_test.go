package unitcache

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/javac"
	"jjsdev/internal/engine/javafe"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/intern"
	"jjsdev/internal/shared/treelog"
)

const (
	shapeSrc = `package shapes;

public abstract class Shape {
  public abstract double area();
}
`
	squareSrc = `package shapes;

public class Square extends Shape {
  private final double side;
  public Square(double side) { this.side = side; }
  public double area() { return side * side; }
}
`
)

func sources() []resource.Resource {
	return []resource.Resource{
		resource.NewMemory("shapes/Shape.java", []byte(shapeSrc), 10),
		resource.NewMemory("shapes/Square.java", []byte(squareSrc), 10),
	}
}

type fixture struct {
	dir      string
	store    *blob.Store
	interner *intern.Interner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := blob.Open(filepath.Join(dir, "blobs"), 16)
	require.NoError(t, err)
	return &fixture{dir: dir, store: store, interner: intern.New()}
}

func (f *fixture) open(t *testing.T) *PersistentUnitCache {
	t.Helper()
	c, err := Open(filepath.Join(f.dir, "units.db"), f.store, f.interner)
	require.NoError(t, err)
	return c
}

func (f *fixture) build(t *testing.T, c javac.UnitCache, res []resource.Resource) *javac.CompilationState {
	t.Helper()
	sb := javac.NewStateBuilder(javafe.Factory(),
		javac.WithUnitCache(c),
		javac.WithBlobStore(f.store),
		javac.WithInterner(f.interner))
	state, err := sb.BuildFrom(context.Background(), treelog.Discard(), res, false)
	require.NoError(t, err)
	require.Empty(t, state.ErrorUnits())
	return state
}

func TestUnitsSurviveReopen(t *testing.T) {
	f := newFixture(t)
	c := f.open(t)
	f.build(t, c, sources())
	require.NoError(t, c.Close())

	reopened := f.open(t)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, map[string]javac.Origin{
		"shapes/Shape.java":  javac.OriginPersistent,
		"shapes/Square.java": javac.OriginPersistent,
	}, reopened.Entries())

	state := f.build(t, reopened, sources())
	square, ok := state.Unit("shapes.Square")
	require.True(t, ok)
	_, cached := square.(*javac.CachedUnit)
	assert.True(t, cached, "an unchanged source is served from the reopened cache")
	assert.Contains(t, state.ClassFileMap(), "shapes/Square")

	types, err := square.Types()
	require.NoError(t, err)
	require.Len(t, types, 1)
}

func TestCleanupWritesAndPrunes(t *testing.T) {
	f := newFixture(t)
	c := f.open(t)
	defer c.Close()
	f.build(t, c, sources())

	paths, err := c.StoredPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes/Shape.java", "shapes/Square.java"}, paths)

	orphan, err := f.store.Put([]byte("orphan class bytes"))
	require.NoError(t, err)
	square := c.Find("shapes/Square.java")
	require.NotNil(t, square)
	c.Remove(square)
	c.Cleanup(treelog.Discard())

	paths, err = c.StoredPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes/Shape.java"}, paths)
	assert.False(t, f.store.Has(orphan))
	for _, cc := range c.Find("shapes/Shape.java").CompiledClasses() {
		assert.True(t, f.store.Has(cc.BlobKey()))
	}
}

func TestUnreadableRowsAreDropped(t *testing.T) {
	f := newFixture(t)
	c := f.open(t)
	f.build(t, c, sources())
	_, err := c.db.Exec(`INSERT INTO units (path, type_name, strong_hash, last_modified, types_version, record)
VALUES ('x/Broken.java', 'x.Broken', 'h', 1, ?, '{not json')`, javac.TypesVersion)
	require.NoError(t, err)
	_, err = c.db.Exec(`INSERT INTO units (path, type_name, strong_hash, last_modified, types_version, record)
VALUES ('x/Old.java', 'x.Old', 'h', 1, ?, '{}')`, javac.TypesVersion+1)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	reopened := f.open(t)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Len())
	_, err = reopened.Flush()
	require.NoError(t, err)
	paths, err := reopened.StoredPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes/Shape.java", "shapes/Square.java"}, paths)
}

func TestFlushCountsQueuedRecords(t *testing.T) {
	f := newFixture(t)
	c := f.open(t)
	defer c.Close()
	state := f.build(t, c, sources())
	for _, u := range state.Units() {
		c.queue(u)
	}
	n, err := c.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpenRejectsDirectory(t *testing.T) {
	_, err := Open(t.TempDir(), blob.NewMemory(), intern.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestArchiveRoundTrip(t *testing.T) {
	f := newFixture(t)
	state := f.build(t, javac.NewMemoryUnitCache(), sources())
	archive := javac.NewArchive(state.Units())
	require.Len(t, archive.Units, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, archive, f.store))

	store := blob.NewMemory()
	read, err := ReadArchive(bytes.NewReader(buf.Bytes()), store, intern.New())
	require.NoError(t, err)
	assert.Equal(t, archive.ID, read.ID)
	require.Len(t, read.Units, 2)

	sb := javac.NewStateBuilder(javafe.Factory(), javac.WithBlobStore(store))
	assert.Equal(t, 2, sb.AddArchive(read))
	rebuilt, err := sb.BuildFrom(context.Background(), treelog.Discard(), sources(), false)
	require.NoError(t, err)
	assert.Len(t, rebuilt.Units(), 2)
	assert.Equal(t, javac.OriginArchived, sb.Cache().(*javac.MemoryUnitCache).Entries()["shapes/Shape.java"])
}

func TestArchiveFileRoundTrip(t *testing.T) {
	f := newFixture(t)
	state := f.build(t, javac.NewMemoryUnitCache(), sources())
	path := filepath.Join(f.dir, "out", "lib.jjsar")
	require.NoError(t, WriteArchiveFile(path, javac.NewArchive(state.Units()), f.store))

	read, err := ReadArchiveFile(path, blob.NewMemory(), intern.New())
	require.NoError(t, err)
	assert.Len(t, read.Units, 2)

	_, err = ReadArchiveFile(filepath.Join(f.dir, "missing"), blob.NewMemory(), intern.New())
	assert.True(t, errors.IsCode(err, errors.CodeIO))
}

func TestTamperedArchiveIsCorrupt(t *testing.T) {
	f := newFixture(t)
	state := f.build(t, javac.NewMemoryUnitCache(), sources())
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, javac.NewArchive(state.Units()), f.store))

	var raw archiveFile
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for key := range raw.Blobs {
		raw.Blobs[key] = []byte("tampered")
	}
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = ReadArchive(bytes.NewReader(tampered), blob.NewMemory(), intern.New())
	assert.True(t, errors.IsCode(err, errors.CodeCorrupt))

	raw.Format = ArchiveFormat + 1
	future, err := json.Marshal(raw)
	require.NoError(t, err)
	_, err = ReadArchive(bytes.NewReader(future), blob.NewMemory(), intern.New())
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}
