package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository_Blacklist(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	listed, err := repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, repo.Blacklist(ctx, "jti-1", time.Hour))
	listed, err = repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	mr.FastForward(2 * time.Hour)
	listed, err = repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestRedisRepository_BlacklistSkipsExpired(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, repo.Blacklist(ctx, "jti-2", 0))
	assert.False(t, mr.Exists("blacklist:jti-2"))
}
