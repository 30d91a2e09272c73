// Package gate decides which scored jobs are actually submitted for a user.
package gate

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/matching"
	"github.com/spigell/jobhackr/internal/quota"
)

type Strategy string

const (
	// Conservative sends only results the scorer marked ShouldApply.
	Conservative Strategy = "conservative"
	// Aggressive lowers the floor to AggressiveFloor whatever the profile says.
	// Language mismatches and excluded companies stay blocked.
	Aggressive Strategy = "aggressive"

	AggressiveFloor = 60
)

// StrategyFor maps the profile flag to a strategy.
func StrategyFor(aggressive bool) Strategy {
	if aggressive {
		return Aggressive
	}
	return Conservative
}

type Request struct {
	UserID   string
	Strategy Strategy
	Limits   quota.Limits
	// Applied holds application keys (jobs.ApplicationKey) already sent.
	Applied map[string]bool
}

// Decision is what the caller should submit now.
type Decision struct {
	Selected       []*matching.Result
	Deduplicated   int
	BelowThreshold int
	Remaining      quota.Usage
	// LimitReached is set once the quota for the period is used up.
	LimitReached bool
}

type Gate struct {
	store  quota.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(store quota.Store, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, logger: logger, now: time.Now}
}

// Select filters, orders and reserves quota for results. Exceeding the quota
// is not an error: the selection is truncated and LimitReached is set.
func (g *Gate) Select(ctx context.Context, req Request, results []*matching.Result) (*Decision, error) {
	decision := &Decision{Selected: make([]*matching.Result, 0)}

	ranked := make([]*matching.Result, 0, len(results))
	for _, result := range results {
		if result != nil && result.Job != nil {
			ranked = append(ranked, result)
		}
	}
	slices.SortStableFunc(ranked, func(a, b *matching.Result) int {
		return b.Score - a.Score
	})

	// Only passing results claim a key.
	seen := make(map[string]bool, len(ranked))
	candidates := make([]*matching.Result, 0, len(ranked))
	for _, result := range ranked {
		key := result.Job.ApplicationKey()
		if req.Applied[key] {
			decision.Deduplicated++
			continue
		}
		if !passes(req.Strategy, result) {
			decision.BelowThreshold++
			continue
		}
		if seen[key] {
			decision.Deduplicated++
			continue
		}
		seen[key] = true
		candidates = append(candidates, result)
	}

	now := g.now()
	granted, err := g.store.Reserve(ctx, req.UserID, len(candidates), req.Limits, now)
	if err != nil {
		return nil, fmt.Errorf("reserve quota: %w", err)
	}

	decision.Selected = candidates[:granted]
	decision.LimitReached = granted < len(candidates)

	decision.Remaining, err = g.store.Usage(ctx, req.UserID, req.Limits, now)
	if err != nil {
		return nil, fmt.Errorf("read quota usage: %w", err)
	}
	if decision.Remaining.Remaining == 0 {
		decision.LimitReached = true
	}

	g.logger.Info("gate decision",
		zap.String("user_id", req.UserID),
		zap.String("strategy", string(req.Strategy)),
		zap.Int("scored", len(results)),
		zap.Int("selected", len(decision.Selected)),
		zap.Int("deduplicated", decision.Deduplicated),
		zap.Int("below_threshold", decision.BelowThreshold),
		zap.Int("remaining", decision.Remaining.Remaining),
		zap.Bool("limit_reached", decision.LimitReached),
	)

	return decision, nil
}

// Release gives back n reserved slots, typically after a failed submission.
func (g *Gate) Release(ctx context.Context, userID string, n int) error {
	if err := g.store.Release(ctx, userID, n, g.now()); err != nil {
		return fmt.Errorf("release quota: %w", err)
	}
	return nil
}

func passes(strategy Strategy, result *matching.Result) bool {
	if strategy == Aggressive {
		return matching.Eligible(result, AggressiveFloor)
	}
	return result.ShouldApply
}
