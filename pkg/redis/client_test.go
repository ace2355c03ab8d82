package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	prev := GetClient()
	SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(prev) })
	return mr
}

func TestInit(t *testing.T) {
	mr := setupMiniredis(t)

	assert.NoError(t, Init("redis://"+mr.Addr(), ""))
	assert.Error(t, Init("not-a-url", ""))
	assert.Error(t, Init("redis://127.0.0.1:1", ""))
}

func TestSetGetDel(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	assert.NoError(t, Set(ctx, "k", "v", time.Minute))

	got, err := Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, "v", got)

	assert.NoError(t, Del(ctx, "k"))
	_, err = Get(ctx, "k")
	assert.ErrorIs(t, err, goredis.Nil)
}

func TestInitKeepsPreviousClientOnFailure(t *testing.T) {
	mr := setupMiniredis(t)

	require.NoError(t, Init("redis://"+mr.Addr(), ""))
	good := GetClient()

	assert.Error(t, Init("redis://127.0.0.1:1", ""))
	assert.Same(t, good, GetClient())
}
