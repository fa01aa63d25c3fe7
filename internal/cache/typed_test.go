// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTyped[T any](t *testing.T, prefix string) *TypedCache[T] {
	t.Helper()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return NewTypedCache[T](c, prefix, time.Minute)
}

func TestTypedCache_SetGet(t *testing.T) {
	tc := newTestTyped[[]string](t, "memo:")
	ctx := context.Background()

	require.NoError(t, tc.Set(ctx, "k", []string{"Halo", "Dunia"}))

	got, ok := tc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []string{"Halo", "Dunia"}, got)

	_, ok = tc.Get(ctx, "other")
	assert.False(t, ok)
}

func TestTypedCache_PrefixIsolation(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	a := NewTypedCache[string](c, "a:", 0)
	b := NewTypedCache[string](c, "b:", 0)
	require.NoError(t, a.Set(ctx, "k", "from-a"))

	_, ok := b.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTypedCache_UndecodableIsMiss(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "n:k", []byte("not json"), 0))
	_, ok := NewTypedCache[int](c, "n:", 0).Get(ctx, "k")
	assert.False(t, ok)
}
