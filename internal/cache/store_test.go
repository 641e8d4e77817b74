// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get("http://h/a")
	assert.False(t, ok)

	s.Set("http://h/a", "http://cdn/a.m3u8")
	v, ok := s.Get("http://h/a")
	require.True(t, ok)
	assert.Equal(t, "http://cdn/a.m3u8", v)

	s.Set("http://h/a", "http://cdn/b.m3u8")
	v, _ = s.Get("http://h/a")
	assert.Equal(t, "http://cdn/b.m3u8", v, "last writer wins")

	assert.Equal(t, Stats{Hits: 2, Misses: 1, Sets: 2, CurrentSize: 1}, s.Stats())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%8)
			s.Set(key, fmt.Sprintf("v%d", i))
			_, _ = s.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, int64(32), s.Stats().Sets)
}

func TestShared_IsProcessWide(t *testing.T) {
	a := Shared()
	b := Shared()
	require.Same(t, a, b)

	a.Set("shared-test-key", "v")
	v, ok := b.Get("shared-test-key")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestTiered_BackfillsFront(t *testing.T) {
	front := NewMemoryStore()
	back := NewMemoryStore()
	back.Set("k", "v")

	tiered := NewTiered(front, back)
	v, ok := tiered.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, front.Len(), "front backfilled")

	tiered.Set("k2", "v2")
	_, ok = back.Get("k2")
	assert.True(t, ok)

	_, ok = tiered.Get("missing")
	assert.False(t, ok)
}
