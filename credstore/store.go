package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/pwhash/phc"
)

var (
	// ErrNotFound is returned when no hash is stored for a user.
	ErrNotFound = errors.New("credential not found")
	// ErrHashMismatch is returned by Swap when the stored hash changed
	// since it was read.
	ErrHashMismatch = errors.New("stored hash changed concurrently")
	// ErrRedisUnavailable wraps every transport failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrNotEncodedHash is returned when a value is not an encoded Argon2id hash.
	ErrNotEncodedHash = errors.New("value is not an encoded argon2id hash")
)

const (
	swapStatusNotFound int64 = 0
	swapStatusMismatch int64 = 1
	swapStatusSwapped  int64 = 2
)

// KEYS[1] credential key
// ARGV[1] expected hash, ARGV[2] replacement, ARGV[3] ttl seconds (0 keeps none)
const swapScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
local ttl = tonumber(ARGV[3])
if ttl and ttl > 0 then
  redis.call("SET", KEYS[1], ARGV[2], "EX", ttl)
else
  redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
end
return 2
`

var swapLua = redis.NewScript(swapScript)

// Store keeps one encoded password hash per user in Redis.
//
// Only encoded hashes are stored, never passwords. Swap replaces a hash
// atomically so a rehash after login cannot overwrite a concurrent password
// change.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a Store under the given key prefix. A zero ttl stores
// credentials without expiry.
func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "pwh"
	}
	return &Store{redis: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":cred:" + userID
}

// Put stores encoded for userID, replacing any previous value.
func (s *Store) Put(ctx context.Context, userID, encoded string) error {
	if err := checkEncoded(encoded); err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(userID), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the encoded hash stored for userID.
func (s *Store) Get(ctx context.Context, userID string) (string, error) {
	encoded, err := s.redis.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return encoded, nil
}

// Delete removes the credential. It reports whether one existed and is
// idempotent.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Swap replaces expected with next only if expected is still the stored
// value.
//
//	Performance: 1 Redis EVALSHA.
func (s *Store) Swap(ctx context.Context, userID, expected, next string) error {
	if err := checkEncoded(next); err != nil {
		return err
	}

	result, err := swapLua.Run(
		ctx,
		s.redis,
		[]string{s.key(userID)},
		expected,
		next,
		int64(s.ttl/time.Second),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch result {
	case swapStatusNotFound:
		return ErrNotFound
	case swapStatusMismatch:
		return ErrHashMismatch
	case swapStatusSwapped:
		return nil
	default:
		return fmt.Errorf("%w: unexpected swap status %d", ErrRedisUnavailable, result)
	}
}

func checkEncoded(encoded string) error {
	if !phc.HasPrefix(encoded) || len(encoded) > phc.MaxEncodedLen {
		return ErrNotEncodedHash
	}
	return nil
}
