package quota

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var wednesday = time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(time.UTC),
		"redis":  NewRedisStore(client, time.UTC, ""),
	}
}

func TestPeriods(t *testing.T) {
	p := Periods(wednesday, time.UTC)

	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), p.Day)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), p.Week)
	assert.Equal(t, "2026-10-21", p.DayKey())
	assert.Equal(t, "2026-10-19", p.WeekKey())

	sunday := Periods(time.Date(2026, 10, 25, 23, 59, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, "2026-10-19", sunday.WeekKey())

	monday := Periods(time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, "2026-10-26", monday.WeekKey())
}

func TestPeriodsUseLocalMidnight(t *testing.T) {
	paris := time.FixedZone("CET", 3600)

	// 23:30 UTC on Sunday is already Monday in Paris.
	p := Periods(time.Date(2026, 10, 25, 23, 30, 0, 0, time.UTC), paris)
	assert.Equal(t, "2026-10-26", p.DayKey())
	assert.Equal(t, "2026-10-26", p.WeekKey())
}

func TestTierLimits(t *testing.T) {
	free, err := TierLimits("Free")
	require.NoError(t, err)
	assert.Equal(t, Limits{Daily: 5, Weekly: 20}, free)

	_, err = TierLimits("gold")
	assert.Error(t, err)

	assert.Equal(t, Limits{Daily: 3, Weekly: 20}, free.WithDailyCap(3))
	assert.Equal(t, free, free.WithDailyCap(50))
	assert.Equal(t, Limits{Daily: 7}, Limits{}.WithDailyCap(7))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, Unlimited, remaining(10, 10, Limits{}))
	assert.Equal(t, 2, remaining(3, 3, Limits{Daily: 5}))
	assert.Equal(t, 1, remaining(3, 19, Limits{Daily: 5, Weekly: 20}))
	assert.Equal(t, 0, remaining(9, 9, Limits{Daily: 5}))
}

func TestStoreReserveTruncatesToLimits(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			limits := Limits{Daily: 3, Weekly: 10}

			granted, err := store.Reserve(ctx, "u1", 2, limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 2, granted)

			granted, err = store.Reserve(ctx, "u1", 5, limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 1, granted)

			granted, err = store.Reserve(ctx, "u1", 1, limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 0, granted)

			usage, err := store.Usage(ctx, "u1", limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, Usage{Daily: 3, Weekly: 3, Remaining: 0}, usage)

			other, err := store.Reserve(ctx, "u2", 1, limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 1, other)
		})
	}
}

func TestStoreDailyResetKeepsWeekly(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			limits := Limits{Daily: 2, Weekly: 3}

			granted, err := store.Reserve(ctx, "u1", 2, limits, wednesday)
			require.NoError(t, err)
			require.Equal(t, 2, granted)

			// Several calls in the same period must not reset anything.
			for i := 0; i < 3; i++ {
				usage, err := store.Usage(ctx, "u1", limits, wednesday.Add(time.Duration(i)*time.Hour))
				require.NoError(t, err)
				assert.Equal(t, 2, usage.Daily)
			}

			thursday := wednesday.AddDate(0, 0, 1)
			granted, err = store.Reserve(ctx, "u1", 2, limits, thursday)
			require.NoError(t, err)
			assert.Equal(t, 1, granted)

			nextMonday := time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC)
			usage, err := store.Usage(ctx, "u1", limits, nextMonday)
			require.NoError(t, err)
			assert.Equal(t, Usage{Daily: 0, Weekly: 0, Remaining: 2}, usage)
		})
	}
}

func TestStoreRelease(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			limits := Limits{Daily: 5}

			_, err := store.Reserve(ctx, "u1", 3, limits, wednesday)
			require.NoError(t, err)
			require.NoError(t, store.Release(ctx, "u1", 1, wednesday))

			usage, err := store.Usage(ctx, "u1", limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 2, usage.Daily)
			assert.Equal(t, 3, usage.Remaining)

			require.NoError(t, store.Release(ctx, "u1", 10, wednesday))
			usage, err = store.Usage(ctx, "u1", limits, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 0, usage.Daily)
			assert.Equal(t, 0, usage.Weekly)
		})
	}
}

func TestStoreUncapped(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			granted, err := store.Reserve(context.Background(), "u1", 42, Limits{}, wednesday)
			require.NoError(t, err)
			assert.Equal(t, 42, granted)

			usage, err := store.Usage(context.Background(), "u1", Limits{}, wednesday)
			require.NoError(t, err)
			assert.Equal(t, Unlimited, usage.Remaining)
		})
	}
}

func TestStoreConcurrentReserveNeverExceedsLimit(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			limits := Limits{Daily: 7, Weekly: 100}
			var total atomic.Int64
			var wg sync.WaitGroup

			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					granted, err := store.Reserve(context.Background(), "u1", 1, limits, wednesday)
					assert.NoError(t, err)
					total.Add(int64(granted))
				}()
			}
			wg.Wait()

			assert.EqualValues(t, 7, total.Load())
		})
	}
}

func TestRedisStoreKeysExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.UTC, "jh")
	_, err := store.Reserve(context.Background(), "u1", 1, Limits{Daily: 5}, wednesday)
	require.NoError(t, err)

	dailyKey := "jh:{u1}:daily:2026-10-21"
	weeklyKey := "jh:{u1}:weekly:2026-10-19"
	require.True(t, mr.Exists(dailyKey))
	require.True(t, mr.Exists(weeklyKey))

	// 8h30m until midnight plus one hour of slack.
	assert.Equal(t, 9*time.Hour+30*time.Minute, mr.TTL(dailyKey))
	assert.Greater(t, mr.TTL(weeklyKey), mr.TTL(dailyKey))
}
