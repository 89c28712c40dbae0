package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_EvictsAtZeroReferences(t *testing.T) {
	t.Parallel()

	c := New(map[string]int{"n": 2})
	require.NoError(t, c.Put("n", "s1", Entry{Value: 42}))
	require.Equal(t, 1, c.Len())

	// First consumer: entry stays.
	require.NoError(t, c.Release("n", "s1"))
	_, ok := c.Get("n", "s1")
	assert.True(t, ok)

	// Second consumer: entry is gone.
	require.NoError(t, c.Release("n", "s1"))
	_, ok = c.Get("n", "s1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_DuplicatePutFails(t *testing.T) {
	t.Parallel()

	c := New(map[string]int{"n": 1})
	require.NoError(t, c.Put("n", "s1", Entry{Value: 1}))
	assert.Error(t, c.Put("n", "s1", Entry{Value: 2}))
}

func TestCache_ReleaseAfterEvictionFails(t *testing.T) {
	t.Parallel()

	c := New(map[string]int{"n": 1})
	require.NoError(t, c.Put("n", "s1", Entry{Value: 1}))
	require.NoError(t, c.Release("n", "s1"))

	err := c.Release("n", "s1")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestCache_SamplesAreIndependent(t *testing.T) {
	t.Parallel()

	c := New(map[string]int{"n": 1})
	require.NoError(t, c.Put("n", "s1", Entry{Value: 1}))
	require.NoError(t, c.Put("n", "s2", Entry{Value: 2}))

	require.NoError(t, c.Release("n", "s1"))
	assert.False(t, c.Has("n", "s1"))
	assert.True(t, c.Has("n", "s2"))
}

func TestCache_DropBypassesReferences(t *testing.T) {
	t.Parallel()

	c := New(map[string]int{"n": 5})
	require.NoError(t, c.Put("n", "s1", Entry{Value: 1}))

	c.Drop("n", "s1")
	assert.False(t, c.Has("n", "s1"))
	assert.ErrorIs(t, c.Release("n", "s1"), ErrNotCached)
}

func TestEntry_Skipped(t *testing.T) {
	t.Parallel()

	assert.False(t, Entry{Value: 1}.Skipped())
	assert.True(t, Entry{Err: errors.New("boom")}.Skipped())
}
