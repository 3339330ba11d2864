// SPDX-License-Identifier: MPL-2.0

package badgerstore

import (
	"testing"

	"github.com/abstractsdk/abstract/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetSetDelete(t *testing.T) {
	s := setupTestStore(t)

	v, err := s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	v, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := s.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Delete([]byte("k")))
	has, err = s.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_ScanRange(t *testing.T) {
	s := setupTestStore(t)
	for _, k := range []string{"c/a/1", "c/a/2", "c/b/1", "d"} {
		require.NoError(t, s.Set([]byte(k), []byte("v")))
	}

	var keys []string
	require.NoError(t, store.ScanPrefix(s, []byte("c/a/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	assert.Equal(t, []string{"c/a/1", "c/a/2"}, keys)

	keys = nil
	require.NoError(t, s.Scan(nil, nil, func(k, _ []byte) error {
		keys = append(keys, string(k))
		if len(keys) == 3 {
			return store.ErrStopScan
		}
		return nil
	}))
	assert.Equal(t, []string{"c/a/1", "c/a/2", "c/b/1"}, keys)
}

func TestStore_CacheCommitsAsBatch(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Set([]byte("old"), []byte("1")))

	branch := store.NewCache(s)
	require.NoError(t, branch.Set([]byte("new"), []byte("2")))
	require.NoError(t, branch.Delete([]byte("old")))
	require.NoError(t, branch.Write())

	v, err := s.Get([]byte("new"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	has, err := s.Has([]byte("old"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_TypedAccessors(t *testing.T) {
	s := setupTestStore(t)
	m := store.NewMap[string]("names")

	require.NoError(t, m.Save(s, "vault", "alice", "1"))
	require.NoError(t, m.Save(s, "dex", "bob", "1"))

	entries, err := m.Entries(s, []string{"alice"}, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vault", entries[0].Value)
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(Options{Path: dir})
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
