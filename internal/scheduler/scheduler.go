// Package scheduler runs a job on a cron spec and once at start.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpec = "@every 6h"

// Job is one scheduled cycle.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Runs never overlap: a tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     Job
	logger  *zap.Logger
	running atomic.Bool
	runs    atomic.Int64
}

func New(spec string, job Job, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultSpec
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		spec:   spec,
		job:    job,
		logger: logger,
	}
}

// Start registers the job, starts the cron loop and triggers one run right
// away without blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("add cron func %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	go s.run(ctx)

	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped", zap.Int64("runs", s.runs.Load()))
}

// Runs reports how many runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping")
		return
	}
	defer s.running.Store(false)

	started := time.Now()
	s.logger.Info("scheduled run started")

	err := s.job(ctx)
	s.runs.Add(1)
	if err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err), zap.Duration("took", time.Since(started)))
		return
	}
	s.logger.Info("scheduled run complete", zap.Duration("took", time.Since(started)))
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
