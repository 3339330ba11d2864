// SPDX-License-Identifier: MPL-2.0

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `json:"name"`
}

func TestItem(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	item := NewItem[record]("config")

	_, err := item.Load(s)
	assert.True(t, IsNotFound(err))

	require.NoError(t, item.Save(s, record{Name: "registry"}))
	got, err := item.Load(s)
	require.NoError(t, err)
	assert.Equal(t, "registry", got.Name)

	require.NoError(t, item.Remove(s))
	_, ok, err := item.MayLoad(s)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMap_RangeWithPrefixAndCursor(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	m := NewMap[int]("modules")
	other := NewMap[int]("modules-extra")
	require.NoError(t, other.Save(s, 99, "alice", "vault"))

	keys := [][]string{
		{"alice", "vault", "1.0.0"},
		{"alice", "vault", "1.1.0"},
		{"alice", "oracle", "1.0.0"},
		{"alicex", "vault", "1.0.0"},
		{"bob", "dex", "0.1.0"},
	}
	for i, k := range keys {
		require.NoError(t, m.Save(s, i, k...))
	}

	all, err := m.Entries(s, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, []string{"alice", "oracle", "1.0.0"}, all[0].Key)

	alice, err := m.Entries(s, []string{"alice"}, nil, 0)
	require.NoError(t, err)
	require.Len(t, alice, 3, "prefix must not match alicex")

	page, err := m.Entries(s, nil, []string{"alice", "vault", "1.0.0"}, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []string{"alice", "vault", "1.1.0"}, page[0].Key)
	assert.Equal(t, []string{"alicex", "vault", "1.0.0"}, page[1].Key)

	require.NoError(t, m.Clear(s, "alice"))
	rest, err := m.Entries(s, nil, nil, 0)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	v, err := other.Load(s, "alice", "vault")
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}
