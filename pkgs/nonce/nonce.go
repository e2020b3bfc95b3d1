// Package nonce tracks the per-wallet claim counter embedded in signed
// messages.
package nonce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	keys "github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/redis"
)

// Source returns and advances per-wallet nonces. Values never decrease.
type Source interface {
	Current(ctx context.Context, wallet string) (uint64, error)
	Advance(ctx context.Context, wallet string, seen uint64) (uint64, error)
}

// advanceScript stores max(stored, ARGV[1]) and returns the result.
var advanceScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local seen = tonumber(ARGV[1])
if seen > cur then
  redis.call('SET', KEYS[1], ARGV[1])
  return ARGV[1]
end
return tostring(cur)
`)

// RedisSource keeps nonces under the claim nonce key of each wallet.
type RedisSource struct {
	redis *redis.Client
	keys  *keys.KeyBuilder
}

// NewRedisSource creates a Redis-backed nonce source.
func NewRedisSource(client *redis.Client, kb *keys.KeyBuilder) *RedisSource {
	return &RedisSource{redis: client, keys: kb}
}

// Current returns the stored nonce, 0 when none is stored.
func (s *RedisSource) Current(ctx context.Context, wallet string) (uint64, error) {
	v, err := s.redis.Get(ctx, s.keys.ClaimNonce(wallet)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read nonce: %w", err)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt nonce %q for %s: %w", v, wallet, err)
	}
	return n, nil
}

// Advance raises the stored nonce to seen if seen is larger.
func (s *RedisSource) Advance(ctx context.Context, wallet string, seen uint64) (uint64, error) {
	v, err := advanceScript.Run(ctx, s.redis, []string{s.keys.ClaimNonce(wallet)}, strconv.FormatUint(seen, 10)).Text()
	if err != nil {
		return 0, fmt.Errorf("failed to advance nonce: %w", err)
	}
	return strconv.ParseUint(v, 10, 64)
}

// Static is an in-memory Source.
type Static struct {
	mu     sync.Mutex
	values map[string]uint64
}

// NewStatic creates a Static source seeded with values.
func NewStatic(values map[string]uint64) *Static {
	s := &Static{values: make(map[string]uint64, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *Static) Current(_ context.Context, wallet string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[wallet], nil
}

func (s *Static) Advance(_ context.Context, wallet string, seen uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seen > s.values[wallet] {
		s.values[wallet] = seen
	}
	return s.values[wallet], nil
}
