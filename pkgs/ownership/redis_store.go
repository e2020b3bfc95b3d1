package ownership

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	keys "github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/redis"
)

// upsertScript claims each object for ARGV[1] if it is unowned or already
// owned by ARGV[1], and returns the IDs owned by someone else.
// KEYS[1] = wallet object set, ARGV[2] = object owner key prefix, ARGV[3..] = object IDs.
var upsertScript = redis.NewScript(`
local rejected = {}
for i = 3, #ARGV do
  local key = ARGV[2] .. ARGV[i]
  local owner = redis.call('GET', key)
  if not owner then
    redis.call('SET', key, ARGV[1])
    redis.call('SADD', KEYS[1], ARGV[i])
  elseif owner == ARGV[1] then
    redis.call('SADD', KEYS[1], ARGV[i])
  else
    table.insert(rejected, ARGV[i])
  end
end
return rejected
`)

// RedisStore keeps one owner key per object plus a set per wallet.
// Associations never change once written, so confirmed owners are cached
// locally in an LRU and served without a round trip.
type RedisStore struct {
	redis      *redis.Client
	keys       *keys.KeyBuilder
	localCache *lru.Cache[string, string]
}

// NewRedisStore creates a RedisStore with a local cache of localCacheSize entries.
func NewRedisStore(redisClient *redis.Client, keyBuilder *keys.KeyBuilder, localCacheSize int) (*RedisStore, error) {
	if localCacheSize <= 0 {
		localCacheSize = 10000
	}
	cache, err := lru.New[string, string](localCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &RedisStore{
		redis:      redisClient,
		keys:       keyBuilder,
		localCache: cache,
	}, nil
}

// FindByObjectIDs groups the owned objects among objectIDs by wallet.
func (s *RedisStore) FindByObjectIDs(ctx context.Context, objectIDs []string) ([]Association, error) {
	byWallet := make(map[string][]string)

	// Fast path: local cache
	var misses []string
	for _, id := range objectIDs {
		if owner, ok := s.localCache.Get(id); ok {
			byWallet[owner] = append(byWallet[owner], id)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		redisKeys := make([]string, len(misses))
		for i, id := range misses {
			redisKeys[i] = s.keys.ObjectOwner(id)
		}

		values, err := s.redis.MGet(ctx, redisKeys...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis MGET failed: %w", err)
		}

		for i, v := range values {
			owner, ok := v.(string)
			if !ok || owner == "" {
				continue
			}
			s.localCache.Add(misses[i], owner)
			byWallet[owner] = append(byWallet[owner], misses[i])
		}
		log.Debugf("Ownership lookup: %d cached, %d from redis", len(objectIDs)-len(misses), len(misses))
	}

	return groupSorted(byWallet), nil
}

// UpsertAssociation runs the conditional claim as a single Lua script so the
// check and the write cannot interleave with another wallet's commit.
func (s *RedisStore) UpsertAssociation(ctx context.Context, wallet string, objectIDs []string) ([]string, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(objectIDs)+2)
	args = append(args, wallet, s.keys.ObjectOwnerPrefix())
	for _, id := range objectIDs {
		args = append(args, id)
	}

	rejected, err := upsertScript.Run(ctx, s.redis, []string{s.keys.WalletObjects(wallet)}, args...).StringSlice()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("ownership upsert script failed: %w", err)
	}

	lost := make(map[string]bool, len(rejected))
	for _, id := range rejected {
		lost[id] = true
	}
	for _, id := range objectIDs {
		if !lost[id] {
			s.localCache.Add(id, wallet)
		}
	}

	return rejected, nil
}

// WalletObjects returns the objects credited to wallet.
func (s *RedisStore) WalletObjects(ctx context.Context, wallet string) ([]string, error) {
	return s.redis.SMembers(ctx, s.keys.WalletObjects(wallet)).Result()
}

// GetStats reports the size of the ownership keyspace
func (s *RedisStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	pattern := s.keys.ObjectOwnerPrefix() + "*"

	// Use SCAN to count keys without blocking
	var cursor uint64
	var totalKeys int64

	for {
		found, nextCursor, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}

		totalKeys += int64(len(found))
		cursor = nextCursor

		if cursor == 0 {
			break
		}
	}

	return map[string]interface{}{
		"owned_objects":    totalKeys,
		"local_cache_size": s.localCache.Len(),
	}, nil
}

// ClearLocal clears the local LRU cache (useful for testing)
func (s *RedisStore) ClearLocal() {
	s.localCache.Purge()
	log.Info("Local ownership cache cleared")
}
