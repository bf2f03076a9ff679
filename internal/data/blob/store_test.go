package blob

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/errors"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 1)
	require.NoError(t, err)

	a, err := s.Put([]byte("class a"))
	require.NoError(t, err)
	again, err := s.Put([]byte("class a"))
	require.NoError(t, err)
	assert.Equal(t, a, again)
	assert.Equal(t, Key([]byte("class a")), a)

	b, err := s.Put([]byte("class b"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("class b")), s.HotBytes(), "hot set holds one payload")

	// a was evicted from memory and comes back from disk
	got, err := s.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "class a", string(got))

	reopened, err := Open(dir, 4)
	require.NoError(t, err)
	got, err = reopened.Get(b)
	require.NoError(t, err)
	assert.Equal(t, "class b", string(got))
	assert.True(t, reopened.Has(a))
}

func TestMissingAndCorruptBlobs(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)

	_, err = s.Get(Key([]byte("nope")))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	key, err := s.Put([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.path(key), []byte("tampered"), 0o644))

	fresh, err := Open(dir, 4)
	require.NoError(t, err)
	_, err = fresh.Get(key)
	assert.True(t, errors.IsCode(err, errors.CodeCorrupt))
}

func TestPrune(t *testing.T) {
	for _, tc := range []struct {
		name string
		open func(t *testing.T) *Store
	}{
		{"disk", func(t *testing.T) *Store {
			s, err := Open(t.TempDir(), 8)
			require.NoError(t, err)
			return s
		}},
		{"memory", func(*testing.T) *Store { return NewMemory() }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.open(t)
			keep, err := s.Put([]byte("keep"))
			require.NoError(t, err)
			drop, err := s.Put([]byte("drop"))
			require.NoError(t, err)

			n, err := s.Prune(func(k string) bool { return k == keep })
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.True(t, s.Has(keep))
			assert.False(t, s.Has(drop))
		})
	}
}
