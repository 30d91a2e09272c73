package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "quota"
	// Counters outlive their period a little so late releases still find them.
	expirySlack = time.Hour
)

// reserveScript grants min(n, daily room, weekly room) and increments both
// counters in one step.
var reserveScript = redis.NewScript(`
local daily = tonumber(redis.call('GET', KEYS[1]) or '0')
local weekly = tonumber(redis.call('GET', KEYS[2]) or '0')
local n = tonumber(ARGV[1])
local dl = tonumber(ARGV[2])
local wl = tonumber(ARGV[3])
local grant = n
if dl > 0 then grant = math.min(grant, dl - daily) end
if wl > 0 then grant = math.min(grant, wl - weekly) end
if grant <= 0 then return 0 end
redis.call('INCRBY', KEYS[1], grant)
redis.call('EXPIRE', KEYS[1], ARGV[4])
redis.call('INCRBY', KEYS[2], grant)
redis.call('EXPIRE', KEYS[2], ARGV[5])
return grant
`)

var releaseScript = redis.NewScript(`
local n = tonumber(ARGV[1])
for _, key in ipairs(KEYS) do
  local v = tonumber(redis.call('GET', key) or '0')
  local dec = math.min(v, n)
  if dec > 0 then redis.call('DECRBY', key, dec) end
end
return 1
`)

// RedisStore shares counters between processes. Keys are named after the
// period start, e.g. quota:{user}:daily:2026-10-19, so a new period simply
// starts from a fresh key.
type RedisStore struct {
	client redis.UniversalClient
	loc    *time.Location
	prefix string
}

func NewRedisStore(client redis.UniversalClient, loc *time.Location, prefix string) *RedisStore {
	if loc == nil {
		loc = time.UTC
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, loc: loc, prefix: prefix}
}

func (s *RedisStore) keys(userID string, p Period) []string {
	return []string{
		fmt.Sprintf("%s:{%s}:daily:%s", s.prefix, userID, p.DayKey()),
		fmt.Sprintf("%s:{%s}:weekly:%s", s.prefix, userID, p.WeekKey()),
	}
}

func ttlSeconds(now, until time.Time) int64 {
	return int64((until.Sub(now) + expirySlack).Seconds())
}

func (s *RedisStore) Reserve(ctx context.Context, userID string, n int, limits Limits, now time.Time) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	p := Periods(now, s.loc)
	granted, err := reserveScript.Run(ctx, s.client, s.keys(userID, p),
		n, limits.Daily, limits.Weekly,
		ttlSeconds(now, p.NextDay()), ttlSeconds(now, p.NextWeek()),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("reserve quota for %s: %w", userID, err)
	}

	return granted, nil
}

func (s *RedisStore) Release(ctx context.Context, userID string, n int, now time.Time) error {
	if n <= 0 {
		return nil
	}

	if err := releaseScript.Run(ctx, s.client, s.keys(userID, Periods(now, s.loc)), n).Err(); err != nil {
		return fmt.Errorf("release quota for %s: %w", userID, err)
	}

	return nil
}

func (s *RedisStore) Usage(ctx context.Context, userID string, limits Limits, now time.Time) (Usage, error) {
	values, err := s.client.MGet(ctx, s.keys(userID, Periods(now, s.loc))...).Result()
	if err != nil {
		return Usage{}, fmt.Errorf("read quota for %s: %w", userID, err)
	}

	counts := make([]int, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		counts[i], err = strconv.Atoi(str)
		if err != nil {
			return Usage{}, fmt.Errorf("parse quota counter for %s: %w", userID, err)
		}
	}

	return newUsage(counts[0], counts[1], limits), nil
}
