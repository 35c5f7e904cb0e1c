package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// bumpScript increments a generation and refreshes its expiry in one step.
// ARGV[1] is the TTL in milliseconds; 0 leaves the key persistent.
var bumpScript = redis.NewScript(`
local g = redis.call("INCR", KEYS[1])
local ttl = tonumber(ARGV[1])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[1], ttl)
end
return g
`)

// RedisGenStore shares generations across gateway replicas and survives
// restarts. Keys live under "gen:<namespace>:<storage key>".
//
// With a TTL, an expired generation reads as 0 and any image stored under an
// older generation self-heals on its next read.
type RedisGenStore struct {
	rdb redis.UniversalClient
	ns  string
	ttl time.Duration
}

var _ GenStore = (*RedisGenStore)(nil)

// NewRedisGenStore uses the bank namespace so replicas of one gateway agree.
func NewRedisGenStore(client redis.UniversalClient, namespace string) *RedisGenStore {
	return &RedisGenStore{rdb: client, ns: namespace}
}

// NewRedisGenStoreWithTTL expires generation keys ttl after their last bump.
// ttl <= 0 behaves like NewRedisGenStore.
func NewRedisGenStoreWithTTL(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisGenStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisGenStore{rdb: client, ns: namespace, ttl: ttl}
}

func (s *RedisGenStore) key(storageKey string) string { return "gen:" + s.ns + ":" + storageKey }

func (s *RedisGenStore) Snapshot(ctx context.Context, storageKey string) (uint64, error) {
	v, err := s.rdb.Get(ctx, s.key(storageKey)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("genstore: get %s: %w", storageKey, err)
	}
	return parseGen(storageKey, v)
}

// SnapshotMany issues a single MGET.
func (s *RedisGenStore) SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(storageKeys))
	if len(storageKeys) == 0 {
		return out, nil
	}
	full := make([]string, len(storageKeys))
	for i, k := range storageKeys {
		full[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("genstore: mget %d keys: %w", len(full), err)
	}
	for i, v := range vals {
		if out[storageKeys[i]], err = parseGen(storageKeys[i], v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *RedisGenStore) Bump(ctx context.Context, storageKey string) (uint64, error) {
	g, err := bumpScript.Run(ctx, s.rdb, []string{s.key(storageKey)}, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("genstore: bump %s: %w", storageKey, err)
	}
	return uint64(g), nil
}

// Cleanup does nothing; Redis expires keys itself.
func (s *RedisGenStore) Cleanup(time.Duration) {}

func (s *RedisGenStore) Close(context.Context) error { return s.rdb.Close() }

// parseGen reads a generation as returned by GET or MGET. nil means missing.
func parseGen(storageKey string, v any) (uint64, error) {
	var text string
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		text = x
	case []byte:
		text = string(x)
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("genstore: negative generation %d at %s", x, storageKey)
		}
		return uint64(x), nil
	default:
		text = fmt.Sprint(x)
	}
	g, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("genstore: generation at %s: %w", storageKey, err)
	}
	return g, nil
}
