package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGeneration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gen := NewLocalGeneration()

	current, err := gen.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	bumped, err := gen.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bumped)
}

func TestRedisGenerationSharedAcrossClients(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	apiClient, err := NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer apiClient.Close()
	importerClient, err := NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer importerClient.Close()

	apiGen := NewRedisGeneration(apiClient, "pickem:season:generation")
	importerGen := NewRedisGeneration(importerClient, "pickem:season:generation")

	current, err := apiGen.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	_, err = importerGen.Bump(ctx)
	require.NoError(t, err)

	current, err = apiGen.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}

func TestGenerationKeyChangesAfterBump(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	gen := NewLocalGeneration()

	g0, _ := gen.Current(ctx)
	store.Set(ctx, GenerationKey(g0, "season:current"), "2011-2012")

	g1, _ := gen.Bump(ctx)
	if _, ok := store.Get(ctx, GenerationKey(g1, "season:current")); ok {
		t.Fatalf("value from previous generation must not be visible")
	}
	if _, ok := store.Get(ctx, GenerationKey(g0, "season:current")); !ok {
		t.Fatalf("old generation key should still be addressable")
	}
}

func TestNewRedisClientInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisClient(context.Background(), "invalid://url")
	require.Error(t, err)
}
