package javac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/shared/treelog"
)

type closeCountingCache struct {
	*MemoryUnitCache
	closed int
}

func (c *closeCountingCache) Close() error {
	c.closed++
	return nil
}

func TestRegistryEvictsAndCloses(t *testing.T) {
	caches := map[string]*closeCountingCache{}
	opened := 0
	r, err := NewRegistry(1, func(key string) (*StateBuilder, error) {
		opened++
		c := &closeCountingCache{MemoryUnitCache: NewMemoryUnitCache()}
		caches[key] = c
		return NewStateBuilder((&fakeFactory{}).New, WithUnitCache(c)), nil
	})
	require.NoError(t, err)

	a, err := r.Get("a")
	require.NoError(t, err)
	again, err := r.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 1, opened)

	_, err = r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 1, caches["a"].closed, "evicted context is closed")
	assert.Equal(t, 1, r.Len())

	_, err = r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 3, opened, "evicted context is reopened")

	r.Close()
	assert.Equal(t, 1, caches["b"].closed)
	assert.Zero(t, r.Len())
}

func TestMemoryUnitCache(t *testing.T) {
	state := build(t, NewStateBuilder((&fakeFactory{}).New), memResources(1, "foo/A.java", srcA))
	a, _ := state.Unit("foo.A")

	c := NewMemoryUnitCache()
	assert.Nil(t, c.Find("foo/A.java"))
	c.Add(a)
	assert.Same(t, a, c.Find("foo/A.java"))
	assert.Same(t, a, c.FindByContentID(a.ContentID()))

	// Removing a unit that no longer owns the path leaves the entry alone.
	newer := a.AsCached().WithTimestamp(2, "mem:foo/A.java")
	c.Add(newer)
	c.Remove(a)
	assert.Same(t, newer, c.Find("foo/A.java"))

	c.Remove(newer)
	assert.Nil(t, c.Find("foo/A.java"))
	assert.Nil(t, c.FindByContentID(a.ContentID()))
	c.Cleanup(treelog.Discard())
	assert.Zero(t, c.Len())
}

func TestRecordRestore(t *testing.T) {
	store := blob.NewMemory()
	sb := NewStateBuilder((&fakeFactory{}).New, WithBlobStore(store))
	state := build(t, sb, memResources(1, "foo/A.java", srcA, "foo/B.java", srcB))
	a, _ := state.Unit("foo.A")

	rec, err := RecordOf(a.AsCached())
	require.NoError(t, err)
	restored, err := rec.Restore(store, sb.Interner())
	require.NoError(t, err)

	assert.Equal(t, a.ContentID(), restored.ContentID())
	assert.Equal(t, a.Dependencies().Qualified(), restored.Dependencies().Qualified())
	assert.Equal(t, TypesVersion, restored.TypesVersion())
	ok, err := restored.Dependencies().Validate(treelog.Discard(), state.ClassFileMap())
	require.NoError(t, err)
	assert.True(t, ok)
	types, err := restored.Types()
	require.NoError(t, err)
	require.Len(t, types, 1)

	rec.Classes[0].BlobKey = blob.Key([]byte("missing"))
	_, err = rec.Restore(store, sb.Interner())
	assert.True(t, errors.IsCode(err, errors.CodeCorrupt))
}
