package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobhackr/internal/jobs"
	"github.com/spigell/jobhackr/internal/matching"
	"github.com/spigell/jobhackr/internal/quota"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newGate(store quota.Store, logger *zap.Logger) *Gate {
	g := New(store, logger)
	g.now = func() time.Time { return now }
	return g
}

func result(id, company, title string, score int, apply bool, reasons ...string) *matching.Result {
	return &matching.Result{
		Job:         &jobs.Posting{ID: id, Company: company, Title: title},
		Score:       score,
		ShouldApply: apply,
		Reasons:     reasons,
	}
}

func ids(results []*matching.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Job.ID)
	}
	return out
}

func TestSelectConservative(t *testing.T) {
	g := newGate(quota.NewMemoryStore(time.UTC), nil)
	results := []*matching.Result{
		result("1", "Acme", "Go Developer", 75, true),
		result("2", "Globex", "SRE", 90, true),
		result("3", "Initech", "QA", 65, false),
		result("4", "acme", "go developer", 80, true),
		result("5", "Umbrella", "Platform Engineer", 85, true),
	}

	decision, err := g.Select(context.Background(), Request{
		UserID:   "u1",
		Strategy: Conservative,
		Limits:   quota.Limits{Daily: 10},
		Applied:  map[string]bool{jobs.ApplicationKey("Umbrella", "Platform Engineer"): true},
	}, results)
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "4"}, ids(decision.Selected))
	assert.Equal(t, 2, decision.Deduplicated)
	assert.Equal(t, 1, decision.BelowThreshold)
	assert.False(t, decision.LimitReached)
	assert.Equal(t, 8, decision.Remaining.Remaining)
}

func TestSelectIneligibleDuplicateDoesNotHideEligibleOne(t *testing.T) {
	g := newGate(quota.NewMemoryStore(time.UTC), nil)
	results := []*matching.Result{
		result("fr", "Acme", "Go Developer", 30, false, matching.ReasonLanguageMismatch),
		result("en", "Acme", "Go Developer", 25, true),
		result("low", "Globex", "SRE", 40, false),
		result("ok", "globex", "sre", 20, true),
	}

	decision, err := g.Select(context.Background(), Request{
		UserID:   "u1",
		Strategy: Conservative,
		Limits:   quota.Limits{Daily: 5},
	}, results)
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "ok"}, ids(decision.Selected))
	assert.Equal(t, 0, decision.Deduplicated)
	assert.Equal(t, 2, decision.BelowThreshold)
}

func TestSelectAggressiveKeepsHardBlocks(t *testing.T) {
	g := newGate(quota.NewMemoryStore(time.UTC), nil)
	results := []*matching.Result{
		result("1", "A", "one", 62, false),
		result("2", "B", "two", 59, false),
		result("3", "C", "three", 95, false, matching.ReasonExcludedCompany),
		result("4", "D", "four", 70, false, matching.ReasonLanguageMismatch),
	}

	decision, err := g.Select(context.Background(), Request{UserID: "u1", Strategy: Aggressive}, results)
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, ids(decision.Selected))
	assert.Equal(t, 3, decision.BelowThreshold)
}

func TestSelectTruncatesToQuota(t *testing.T) {
	store := quota.NewMemoryStore(time.UTC)
	g := newGate(store, nil)
	results := []*matching.Result{
		result("1", "A", "one", 71, true),
		result("2", "B", "two", 99, true),
		result("3", "C", "three", 80, true),
	}
	req := Request{UserID: "u1", Strategy: Conservative, Limits: quota.Limits{Daily: 2, Weekly: 10}}

	decision, err := g.Select(context.Background(), req, results)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(decision.Selected))
	assert.True(t, decision.LimitReached)
	assert.Equal(t, 0, decision.Remaining.Remaining)

	// The quota is exhausted: nothing more today, and it is not an error.
	decision, err = g.Select(context.Background(), req, []*matching.Result{result("4", "D", "four", 90, true)})
	require.NoError(t, err)
	assert.Empty(t, decision.Selected)
	assert.True(t, decision.LimitReached)

	require.NoError(t, g.Release(context.Background(), "u1", 1))
	decision, err = g.Select(context.Background(), req, []*matching.Result{result("4", "D", "four", 90, true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(decision.Selected))
}

func TestSelectSkipsNilResults(t *testing.T) {
	g := newGate(quota.NewMemoryStore(time.UTC), nil)

	decision, err := g.Select(context.Background(), Request{UserID: "u1"}, []*matching.Result{nil, {Score: 99, ShouldApply: true}})
	require.NoError(t, err)
	assert.Empty(t, decision.Selected)
}

type failingStore struct{ quota.Store }

func (failingStore) Reserve(context.Context, string, int, quota.Limits, time.Time) (int, error) {
	return 0, errors.New("redis down")
}

func TestSelectReturnsStoreErrors(t *testing.T) {
	g := newGate(failingStore{}, nil)

	_, err := g.Select(context.Background(), Request{UserID: "u1"}, []*matching.Result{result("1", "A", "one", 90, true)})
	assert.ErrorContains(t, err, "redis down")
}

func TestSelectLogsDecision(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	g := newGate(quota.NewMemoryStore(time.UTC), zap.New(core))

	_, err := g.Select(context.Background(), Request{UserID: "u1", Strategy: Conservative}, []*matching.Result{result("1", "A", "one", 90, true)})
	require.NoError(t, err)

	entries := logs.FilterMessage("gate decision").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.EqualValues(t, 1, fields["selected"])
}

func TestStrategyFor(t *testing.T) {
	assert.Equal(t, Aggressive, StrategyFor(true))
	assert.Equal(t, Conservative, StrategyFor(false))
}
