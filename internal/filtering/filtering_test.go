package filtering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobhackr/internal/jobs"
)

type appliedStub struct {
	name string
	ids  []string
	err  error
}

func (s *appliedStub) Name() string { return s.name }

func (s *appliedStub) AppliedIDs(context.Context) ([]string, error) { return s.ids, s.err }

func samplePostings() *jobs.Postings {
	return jobs.NewPostings(
		&jobs.Posting{ID: "1", Source: "headhunter", Title: "Go Developer", Company: "Acme"},
		&jobs.Posting{ID: "2", Source: "headhunter", Title: "SRE", Company: "Globex", RequiresTest: true},
		&jobs.Posting{ID: "3", Source: "file", Title: "Backend Engineer", Company: "Initech", Description: "Unpaid internship first"},
		&jobs.Posting{ID: "1", Source: "file", Title: "Platform Engineer", Company: " ACME "},
	)
}

func ids(p *jobs.Postings) []string {
	out := make([]string, 0, p.Len())
	for _, posting := range p.Items {
		out = append(out, posting.Source+"/"+posting.ID)
	}
	return out
}

func TestRunDefaults(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := &Config{
		Companies: []string{"globex"},
		RedFlags:  []string{"unpaid"},
	}
	deps := Deps{
		Logger:  zap.New(core),
		Applied: []AppliedSource{&appliedStub{name: "headhunter", ids: []string{"1"}}},
	}

	got, err := Run(context.Background(), cfg, deps, Defaults(false), samplePostings())
	require.NoError(t, err)

	assert.Equal(t, []string{"file/1"}, ids(got))
	assert.Equal(t, 5, logs.FilterMessage("filter step").Len())
}

func TestWithTest(t *testing.T) {
	p := samplePostings()

	_, step, err := NewWithTest().Apply(context.Background(), Deps{Logger: zap.NewNop()}, p)
	require.NoError(t, err)

	assert.Equal(t, Step{Initial: 4, Dropped: 1, Left: 3}, step)
	assert.Nil(t, p.FindByID("2"))
}

func TestAppliedHistoryMatchesPerSource(t *testing.T) {
	p := samplePostings()
	deps := Deps{
		Logger:  zap.NewNop(),
		Applied: []AppliedSource{&appliedStub{name: "headhunter", ids: []string{"1", "2"}}},
	}

	_, step, err := NewAppliedHistory(false).Apply(context.Background(), deps, p)
	require.NoError(t, err)

	assert.Equal(t, 2, step.Dropped)
	assert.Equal(t, []string{"file/3", "file/1"}, ids(p))
}

func TestAppliedHistoryIgnored(t *testing.T) {
	p := samplePostings()
	deps := Deps{
		Logger:  zap.NewNop(),
		Applied: []AppliedSource{&appliedStub{name: "headhunter", err: errors.New("boom")}},
	}

	f := NewAppliedHistory(true)
	_, step, err := f.Apply(context.Background(), deps, p)
	require.NoError(t, err)
	assert.Equal(t, 0, step.Dropped)

	status := f.(statusProvider).Status()
	assert.Equal(t, "false", status.Details["exclude_applied"])
}

func TestAppliedHistoryUnavailableSourceDropsOnlyItsPostings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	deps := Deps{
		Logger: zap.New(core),
		Applied: []AppliedSource{
			&appliedStub{name: "headhunter", err: errors.New("hh unavailable")},
			&appliedStub{name: "file", ids: []string{"3"}},
		},
	}

	got, err := Run(context.Background(), nil, deps, []Filter{NewAppliedHistory(false)}, samplePostings())
	require.NoError(t, err)

	assert.Equal(t, []string{"file/1"}, ids(got))
	assert.Equal(t, 1, logs.FilterMessage("cannot get applied jobs, dropping postings of the source").Len())
}

func TestCompaniesCaseInsensitive(t *testing.T) {
	p := samplePostings()
	f := NewCompanies()
	require.NoError(t, f.Validate(&Config{Companies: []string{"Acme", " "}}))

	_, step, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, p)
	require.NoError(t, err)

	assert.Equal(t, 2, step.Dropped)
	assert.Equal(t, []string{"headhunter/2", "file/3"}, ids(p))
}

func TestContainsRedFlag(t *testing.T) {
	posting := &jobs.Posting{Title: "Senior Go", Company: "Crypto Casino", Description: "Fast paced"}

	assert.True(t, ContainsRedFlag(posting, []string{"casino"}))
	assert.True(t, ContainsRedFlag(posting, []string{"", "FAST PACED"}))
	assert.False(t, ContainsRedFlag(posting, []string{"unpaid"}))
	assert.False(t, ContainsRedFlag(posting, nil))
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.json")
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	excluded, err := LoadExcluded(path)
	require.NoError(t, err)
	assert.Empty(t, excluded.Items)

	excluded.Append(ToExcluded(jobs.NewPostings(&jobs.Posting{ID: "3", Source: "file", Company: "Initech"}), now))
	excluded.Append(&ExcludedJobs{Items: []*ExcludedJob{{ID: "2"}}})
	require.NoError(t, excluded.ToFile(path))

	loaded, err := LoadExcluded(path)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.True(t, loaded.Items[0].ExcludedAt.Equal(now))

	p := samplePostings()
	f := NewExcludeFile()
	require.NoError(t, f.Validate(&Config{ExcludeFile: path}))

	_, step, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, p)
	require.NoError(t, err)

	assert.Equal(t, 2, step.Dropped)
	assert.Equal(t, []string{"headhunter/1", "file/1"}, ids(p))
}

func TestDisableAndDescribe(t *testing.T) {
	steps := Defaults(false)
	DisableByName(steps, "red_flags", "not configured")

	p, err := Run(context.Background(), &Config{RedFlags: []string{"go"}}, Deps{}, steps, jobs.NewPostings(
		&jobs.Posting{ID: "1", Title: "Go Developer"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	statuses := Describe(steps)
	require.Len(t, statuses, 5)
	assert.Equal(t, "red_flags", statuses[3].Name)
	assert.False(t, statuses[3].Enabled)
	assert.Equal(t, "not configured", statuses[3].Reason)
}
