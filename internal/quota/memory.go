package quota

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	day    string
	week   string
	daily  int
	weekly int
}

// roll resets the counters whose period changed. Calling it again within the
// same period is a no-op.
func (c *counter) roll(p Period) {
	if day := p.DayKey(); c.day != day {
		c.day = day
		c.daily = 0
	}
	if week := p.WeekKey(); c.week != week {
		c.week = week
		c.weekly = 0
	}
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	loc      *time.Location
	counters map[string]*counter
}

func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryStore{
		loc:      loc,
		counters: make(map[string]*counter),
	}
}

func (s *MemoryStore) get(userID string, now time.Time) *counter {
	c, ok := s.counters[userID]
	if !ok {
		c = &counter{}
		s.counters[userID] = c
	}
	c.roll(Periods(now, s.loc))
	return c
}

func (s *MemoryStore) Reserve(_ context.Context, userID string, n int, limits Limits, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.get(userID, now)
	g := grant(n, c.daily, c.weekly, limits)
	c.daily += g
	c.weekly += g
	return g, nil
}

func (s *MemoryStore) Release(_ context.Context, userID string, n int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.get(userID, now)
	c.daily = max(c.daily-n, 0)
	c.weekly = max(c.weekly-n, 0)
	return nil
}

func (s *MemoryStore) Usage(_ context.Context, userID string, limits Limits, now time.Time) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.get(userID, now)
	return newUsage(c.daily, c.weekly, limits), nil
}
