package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodesAreSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewCodeStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "User@Test.local")
	require.NoError(t, err)
	n, err := strconv.Atoi(code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 10000)
	assert.LessOrEqual(t, n, 99999)
	assert.True(t, mr.Exists("login-code:user@test.local"))

	ok, err := store.Consume(ctx, "user@test.local", "12")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, "user@test.local", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "user@test.local", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewCodeStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "user@test.local")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	ok, err := store.Consume(ctx, "user@test.local", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodesDiscardedAfterRepeatedMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewCodeStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "user@test.local")
	require.NoError(t, err)
	wrong := "00000"

	for i := 1; i < MaxCodeAttempts; i++ {
		ok, err := store.Consume(ctx, "user@test.local", wrong)
		require.NoError(t, err)
		require.False(t, ok)
	}
	assert.True(t, mr.Exists("login-code:user@test.local"), "code survives until the last allowed miss")
	assert.Greater(t, mr.TTL("login-code-attempts:user@test.local"), time.Duration(0))

	ok, err := store.Consume(ctx, "user@test.local", wrong)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("login-code:user@test.local"))
	assert.False(t, mr.Exists("login-code-attempts:user@test.local"))

	ok, err = store.Consume(ctx, "user@test.local", code)
	require.NoError(t, err)
	assert.False(t, ok, "the right code no longer works once discarded")
}

func TestReissueResetsAttempts(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewCodeStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	_, err := store.Issue(ctx, "user@test.local")
	require.NoError(t, err)
	for i := 1; i < MaxCodeAttempts; i++ {
		_, err := store.Consume(ctx, "user@test.local", "00000")
		require.NoError(t, err)
	}

	code, err := store.Issue(ctx, "user@test.local")
	require.NoError(t, err)
	assert.False(t, mr.Exists("login-code-attempts:user@test.local"))

	ok, err := store.Consume(ctx, "user@test.local", "00000")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Consume(ctx, "user@test.local", code)
	require.NoError(t, err)
	assert.True(t, ok)
}
