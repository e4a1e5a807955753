package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:"
)

// slidingWindow prunes, counts and conditionally records in one round trip so
// concurrent admissions from several processes cannot overshoot the limit.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[1])
local count = redis.call('ZCARD', key)
if count >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', key, ARGV[2], ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return 1
`)

// BucketStore implements domain.BucketStore on sorted sets scored by
// admission time in milliseconds
type BucketStore struct {
	client *Client
	prefix string
}

// NewBucketStore creates a bucket store whose keys live under scope
func NewBucketStore(client *Client, scope string) *BucketStore {
	return &BucketStore{
		client: client,
		prefix: rateLimitPrefix + scope + ":",
	}
}

// Admit checks the window for key and records now when admitted
func (s *BucketStore) Admit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	nowMs := now.UnixMilli()
	cutoff := nowMs - window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := slidingWindow.Run(ctx, s.client.rdb,
		[]string{s.prefix + key},
		strconv.FormatInt(cutoff, 10),
		strconv.FormatInt(nowMs, 10),
		strconv.Itoa(limit),
		member,
		strconv.FormatInt(window.Milliseconds(), 10),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	return res == 1, nil
}

// Reset clears the window for a key
func (s *BucketStore) Reset(ctx context.Context, key string) error {
	return s.client.rdb.Del(ctx, s.prefix+key).Err()
}
