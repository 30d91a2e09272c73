// Package pipeline runs one full search-score-apply cycle for a candidate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/ai"
	"github.com/spigell/jobhackr/internal/analyzer"
	"github.com/spigell/jobhackr/internal/filtering"
	"github.com/spigell/jobhackr/internal/gate"
	"github.com/spigell/jobhackr/internal/history"
	"github.com/spigell/jobhackr/internal/jobs"
	applog "github.com/spigell/jobhackr/internal/logger"
	"github.com/spigell/jobhackr/internal/matching"
	"github.com/spigell/jobhackr/internal/metrics"
	"github.com/spigell/jobhackr/internal/quota"
)

var ErrNoSubmitter = errors.New("no submitter for job source")

// Fetcher is satisfied by jobs.Aggregator.
type Fetcher interface {
	Fetch(ctx context.Context, q jobs.Query) (*jobs.Postings, []jobs.SourceReport)
}

// Submitter sends one application with its cover letter.
type Submitter interface {
	Submit(ctx context.Context, posting *jobs.Posting, letter string) error
}

// HistoryStore is satisfied by history.Store.
type HistoryStore interface {
	AppliedKeys(ctx context.Context, userID string) (map[string]bool, error)
	Record(ctx context.Context, app *history.Application) (bool, error)
}

// Candidate is who the run applies for.
type Candidate struct {
	Name    string
	CV      string
	Profile *matching.Profile
	Limits  quota.Limits
}

type Pipeline struct {
	Fetcher  Fetcher
	Analyzer *analyzer.Analyzer
	Scorer   *matching.Scorer
	Gate     *gate.Gate
	Letters  ai.CoverLetterWriter
	// Submitters are looked up by posting source.
	Submitters map[string]Submitter
	History    HistoryStore
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	Query        jobs.Query
	FilterConfig *filtering.Config
	FilterDeps   filtering.Deps
	Filters      []filtering.Filter
	Confirm      func(ctx context.Context, selected []*matching.Result) (bool, error)
	DryRun       bool
}

// Failure is an application that was selected but not sent.
type Failure struct {
	JobID string
	Err   error
}

// Report summarizes one run.
type Report struct {
	Sources   []jobs.SourceReport
	Fetched   int
	Filtered  int
	Results   []*matching.Result
	Decision  *gate.Decision
	Submitted []*history.Application
	Failed    []Failure
	Cancelled bool
}

// Score fetches, filters and ranks postings for the candidate without
// touching quota or submitting anything.
func (p *Pipeline) Score(ctx context.Context, c Candidate) (*Report, error) {
	if c.Profile == nil {
		return nil, matching.ErrNoProfile
	}
	if p.Fetcher == nil || p.Scorer == nil {
		return nil, errors.New("pipeline requires a fetcher and a scorer")
	}
	logger := applog.WithFields(p.Logger, zap.String("user_id", c.Profile.UserID))

	report := &Report{}

	query := p.Query
	if len(query.Titles) == 0 {
		query.Titles = c.Profile.Titles
	}
	if len(query.Locations) == 0 {
		query.Locations = c.Profile.Locations
	}
	if c.Profile.RemotePreference == matching.RemoteOnly {
		query.Remote = true
	}

	postings, sources := p.Fetcher.Fetch(ctx, query)
	report.Sources = sources
	report.Fetched = postings.Len()
	p.Metrics.ObserveFetch(sources)

	jobs.Enrich(postings, p.Analyzer)

	steps := p.Filters
	if steps == nil {
		steps = filtering.Defaults(false)
	}
	deps := p.FilterDeps
	if deps.Logger == nil {
		deps.Logger = logger
	}
	postings, err := filtering.Run(ctx, p.FilterConfig, deps, steps, postings)
	if err != nil {
		return report, fmt.Errorf("filter jobs: %w", err)
	}
	report.Filtered = report.Fetched - postings.Len()

	results, err := p.Scorer.Rank(postings.Items, c.Profile)
	if err != nil {
		return report, fmt.Errorf("rank jobs: %w", err)
	}
	report.Results = results
	for _, r := range results {
		p.Metrics.ObserveScore(r.Score)
	}

	return report, nil
}

// Run scores and applies. A failed submission gives its quota slot back and
// the run continues with the next job.
func (p *Pipeline) Run(ctx context.Context, c Candidate) (*Report, error) {
	if c.Profile == nil {
		return nil, matching.ErrNoProfile
	}
	if p.Gate == nil {
		return nil, errors.New("pipeline requires a gate")
	}
	logger := applog.WithFields(p.Logger, zap.String("user_id", c.Profile.UserID))

	started := time.Now()
	defer p.Metrics.ObserveRun(started)

	report, err := p.Score(ctx, c)
	if err != nil {
		return report, err
	}
	results := report.Results

	applied := map[string]bool{}
	if p.History != nil {
		applied, err = p.History.AppliedKeys(ctx, c.Profile.UserID)
		if err != nil {
			return report, fmt.Errorf("load application history: %w", err)
		}
	}

	decision, err := p.Gate.Select(ctx, gate.Request{
		UserID:   c.Profile.UserID,
		Strategy: gate.StrategyFor(c.Profile.Aggressive),
		Limits:   c.Limits.WithDailyCap(c.Profile.DailyApplicationCap),
		Applied:  applied,
	}, results)
	if err != nil {
		return report, fmt.Errorf("gate: %w", err)
	}
	report.Decision = decision
	p.Metrics.ObserveGate(len(decision.Selected), decision.Deduplicated, decision.BelowThreshold, decision.LimitReached)

	if len(decision.Selected) == 0 {
		logger.Info("nothing to apply", zap.Int("scored", len(results)))
		return report, nil
	}

	if p.Confirm != nil {
		ok, err := p.Confirm(ctx, decision.Selected)
		if err != nil || !ok {
			p.release(ctx, logger, c.Profile.UserID, len(decision.Selected))
			report.Cancelled = true
			return report, err
		}
	}

	for i, result := range decision.Selected {
		if err := ctx.Err(); err != nil {
			p.release(ctx, logger, c.Profile.UserID, len(decision.Selected)-i)
			return report, err
		}

		app, err := p.apply(ctx, logger, c, result)
		if err != nil {
			report.Failed = append(report.Failed, Failure{JobID: result.Job.ID, Err: err})
			p.Metrics.ObserveApplication(metrics.StatusFailed)
			p.release(ctx, logger, c.Profile.UserID, 1)
			logger.Warn("application failed", append(applog.JobFields(result.Job), zap.Error(err))...)
			continue
		}
		report.Submitted = append(report.Submitted, app)
	}

	logger.Info("run finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("filtered", report.Filtered),
		zap.Int("scored", len(report.Results)),
		zap.Int("submitted", len(report.Submitted)),
		zap.Int("failed", len(report.Failed)),
		zap.Bool("dry_run", p.DryRun),
		zap.Duration("took", time.Since(started)),
	)

	return report, nil
}

func (p *Pipeline) apply(ctx context.Context, logger *zap.Logger, c Candidate, result *matching.Result) (*history.Application, error) {
	job := result.Job

	letter := ""
	if p.Letters != nil {
		var err error
		letter, err = p.Letters.Write(ctx, ai.LetterRequest{
			Candidate: c.Name,
			CV:        c.CV,
			Profile:   c.Profile,
			Result:    result,
		})
		if err != nil {
			return nil, fmt.Errorf("write cover letter: %w", err)
		}
	}

	app := &history.Application{
		UserID:      c.Profile.UserID,
		JobID:       job.ID,
		Key:         job.ApplicationKey(),
		Company:     job.Company,
		Title:       job.Title,
		Source:      job.Source,
		Score:       result.Score,
		Status:      history.StatusSubmitted,
		CoverLetter: letter,
	}

	if p.DryRun {
		if err := (&DryRun{Logger: logger}).Submit(ctx, job, letter); err != nil {
			return nil, err
		}
		// Dry runs do not consume quota.
		p.release(ctx, logger, c.Profile.UserID, 1)
		p.Metrics.ObserveApplication(metrics.StatusDryRun)
		return app, nil
	}

	submitter, ok := p.Submitters[job.Source]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoSubmitter, job.Source)
	}
	if err := submitter.Submit(ctx, job, letter); err != nil {
		return nil, err
	}
	p.Metrics.ObserveApplication(metrics.StatusSubmitted)

	logger.Info("application submitted", append(applog.JobFields(job), zap.Int("score", result.Score))...)

	if p.History != nil {
		inserted, err := p.History.Record(ctx, app)
		if err != nil {
			logger.Error("record application", zap.String("job_id", job.ID), zap.Error(err))
		} else if !inserted {
			logger.Debug("application already recorded", zap.String("key", app.Key))
		}
	}

	return app, nil
}

func (p *Pipeline) release(ctx context.Context, logger *zap.Logger, userID string, n int) {
	if n <= 0 {
		return
	}
	if err := p.Gate.Release(context.WithoutCancel(ctx), userID, n); err != nil {
		logger.Error("release quota", zap.Int("slots", n), zap.Error(err))
	}
}

// DryRun logs what would be sent instead of sending it.
type DryRun struct {
	Logger *zap.Logger
}

func (d *DryRun) Submit(_ context.Context, posting *jobs.Posting, letter string) error {
	if d.Logger != nil {
		d.Logger.Info("dry run: would apply", append(applog.JobFields(posting), zap.Int("letter_length", len(letter)))...)
	}
	return nil
}
