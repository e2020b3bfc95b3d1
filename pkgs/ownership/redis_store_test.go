package ownership

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keys "github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/redis"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := NewRedisStore(client, keys.NewKeyBuilder("test"), 16)
	require.NoError(t, err)
	return store, mr
}

func TestRedisStore_UpsertAndFind(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	rejected, err := store.UpsertAssociation(ctx, walletA, []string{"x", "y"})
	require.NoError(t, err)
	assert.Empty(t, rejected)

	owner, err := mr.Get("test:owner:object:x")
	require.NoError(t, err)
	assert.Equal(t, walletA, owner)

	rejected, err = store.UpsertAssociation(ctx, walletB, []string{"y", "z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, rejected)

	store.ClearLocal()
	found, err := store.FindByObjectIDs(ctx, []string{"x", "y", "z", "missing"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	sort.Strings(found[0].ObjectIDs)
	assert.Equal(t, Association{Wallet: walletA, ObjectIDs: []string{"x", "y"}}, found[0])
	assert.Equal(t, Association{Wallet: walletB, ObjectIDs: []string{"z"}}, found[1])

	objs, err := store.WalletObjects(ctx, walletA)
	require.NoError(t, err)
	sort.Strings(objs)
	assert.Equal(t, []string{"x", "y"}, objs)
}

func TestRedisStore_IdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	for i := 0; i < 3; i++ {
		rejected, err := store.UpsertAssociation(ctx, walletA, []string{"x"})
		require.NoError(t, err)
		assert.Empty(t, rejected)
	}
	objs, err := store.WalletObjects(ctx, walletA)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, objs)
}

func TestRedisStore_CacheServesConfirmedOwners(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	_, err := store.UpsertAssociation(ctx, walletA, []string{"x"})
	require.NoError(t, err)

	// Owners never change, so the cached answer survives a backend wipe.
	mr.FlushAll()
	found, err := store.FindByObjectIDs(ctx, []string{"x"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, walletA, found[0].Wallet)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["owned_objects"])
	assert.Equal(t, 1, stats["local_cache_size"])
}

func TestRedisStore_WithGuard(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)
	g := NewGuard(store)

	require.NoError(t, g.Commit(ctx, walletA, []string{"x"}))
	c, err := g.CheckConflict(ctx, walletB, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, c.Conflicting)
}
