// Package quota counts automated applications per user per day and per week.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Unlimited is reported as Remaining when neither limit is capped.
const Unlimited = -1

const (
	TierFree    = "free"
	TierPro     = "pro"
	TierPremium = "premium"
)

// Limits caps applications per period. A non-positive value means uncapped.
type Limits struct {
	Daily  int `mapstructure:"daily" json:"daily"`
	Weekly int `mapstructure:"weekly" json:"weekly"`
}

var tiers = map[string]Limits{
	TierFree:    {Daily: 5, Weekly: 20},
	TierPro:     {Daily: 25, Weekly: 100},
	TierPremium: {Daily: 100, Weekly: 500},
}

// TierLimits returns the limits bundled with a subscription tier.
func TierLimits(tier string) (Limits, error) {
	l, ok := tiers[strings.ToLower(strings.TrimSpace(tier))]
	if !ok {
		return Limits{}, fmt.Errorf("unknown subscription tier %q", tier)
	}
	return l, nil
}

// WithDailyCap lowers the daily limit to limit when it is tighter.
func (l Limits) WithDailyCap(limit int) Limits {
	if limit > 0 && (l.Daily <= 0 || limit < l.Daily) {
		l.Daily = limit
	}
	return l
}

// Usage is a snapshot of the counters for the current periods.
type Usage struct {
	Daily     int `json:"daily"`
	Weekly    int `json:"weekly"`
	Remaining int `json:"remaining"`
}

func newUsage(daily, weekly int, limits Limits) Usage {
	return Usage{
		Daily:     daily,
		Weekly:    weekly,
		Remaining: remaining(daily, weekly, limits),
	}
}

func remaining(daily, weekly int, limits Limits) int {
	if limits.Daily <= 0 && limits.Weekly <= 0 {
		return Unlimited
	}
	left := -1
	if limits.Daily > 0 {
		left = max(limits.Daily-daily, 0)
	}
	if limits.Weekly > 0 {
		w := max(limits.Weekly-weekly, 0)
		if left < 0 || w < left {
			left = w
		}
	}
	return left
}

// grant is how many of n slots fit under limits given current counters.
func grant(n, daily, weekly int, limits Limits) int {
	if n <= 0 {
		return 0
	}
	g := n
	if limits.Daily > 0 {
		g = min(g, limits.Daily-daily)
	}
	if limits.Weekly > 0 {
		g = min(g, limits.Weekly-weekly)
	}
	return max(g, 0)
}

// Period identifies the current daily and weekly windows.
type Period struct {
	Day  time.Time
	Week time.Time
}

// Periods returns the start of the day (local midnight) and of the week
// (Monday midnight) containing now in loc.
func Periods(now time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	return Period{
		Day:  day,
		Week: day.AddDate(0, 0, -sinceMonday),
	}
}

func (p Period) DayKey() string  { return p.Day.Format(time.DateOnly) }
func (p Period) WeekKey() string { return p.Week.Format(time.DateOnly) }

// NextDay is when the daily window resets.
func (p Period) NextDay() time.Time { return p.Day.AddDate(0, 0, 1) }

// NextWeek is when the weekly window resets.
func (p Period) NextWeek() time.Time { return p.Week.AddDate(0, 0, 7) }

// Store keeps per-user counters. Reserve must be atomic per user: concurrent
// callers never get more slots in total than the limits allow.
type Store interface {
	Reserve(ctx context.Context, userID string, n int, limits Limits, now time.Time) (int, error)
	Release(ctx context.Context, userID string, n int, now time.Time) error
	Usage(ctx context.Context, userID string, limits Limits, now time.Time) (Usage, error)
}
