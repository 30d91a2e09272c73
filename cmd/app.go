package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/ai"
	"github.com/spigell/jobhackr/internal/ai/gemini"
	"github.com/spigell/jobhackr/internal/analyzer"
	"github.com/spigell/jobhackr/internal/filtering"
	"github.com/spigell/jobhackr/internal/gate"
	"github.com/spigell/jobhackr/internal/headhunter"
	"github.com/spigell/jobhackr/internal/history"
	"github.com/spigell/jobhackr/internal/jobs"
	"github.com/spigell/jobhackr/internal/matching"
	"github.com/spigell/jobhackr/internal/metrics"
	"github.com/spigell/jobhackr/internal/pipeline"
	"github.com/spigell/jobhackr/internal/profile"
	"github.com/spigell/jobhackr/internal/quota"
	"github.com/spigell/jobhackr/internal/secrets"
)

const (
	defaultHistoryDSN = "data/history.db"
	defaultHHTokenEnv = "HH_TOKEN"
	defaultGeminiEnv  = "GEMINI_API_KEY"
)

var errNoSources = errors.New("no job sources configured (sources.files or sources.headhunter)")

type buildOptions struct {
	IgnoreApplied bool
	DryRun        bool
	// Apply wires quota, history and cover letters. Scoring alone needs none of them.
	Apply bool
}

// application is everything a command needs, built once from the config.
type application struct {
	pipeline  *pipeline.Pipeline
	candidate pipeline.Candidate
	analysis  *analyzer.CVAnalysis
	history   *history.Store
	metrics   *metrics.Metrics
	logger    *zap.Logger
	quotaLoc  *time.Location
	closers   []func() error
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing resources", zap.Error(err))
		}
	}
}

func newApplication(ctx context.Context, cfg *Config, logger *zap.Logger, opts buildOptions) (*application, error) {
	a := &application{
		metrics: metrics.New(),
		logger:  logger,
	}

	dict := analyzer.DefaultDictionary()
	if cfg.Dictionary != "" {
		loaded, err := analyzer.LoadDictionary(cfg.Dictionary)
		if err != nil {
			return nil, err
		}
		dict = loaded
	}
	textAnalyzer := analyzer.New(dict)

	srcCfg := cfg.Sources
	if srcCfg == nil {
		srcCfg = &SourcesConfig{}
	}

	var (
		sources    []jobs.Source
		applied    []filtering.AppliedSource
		submitters = map[string]pipeline.Submitter{}
		hh         *headhunter.Client
	)

	for _, path := range srcCfg.Files {
		sources = append(sources, jobs.NewFileSource(path))
	}

	if srcCfg.HeadHunter != nil && srcCfg.HeadHunter.Enabled {
		client, err := newHeadHunter(ctx, srcCfg.HeadHunter, logger)
		if err != nil {
			return nil, err
		}
		hh = client
		sources = append(sources, client)
		applied = append(applied, client)
		submitters[client.Name()] = client
	}

	if len(sources) == 0 {
		return nil, errNoSources
	}

	cvText, err := loadCV(ctx, cfg.Profile, hh, logger)
	if err != nil {
		return nil, err
	}

	candidateProfile, analysis, err := profile.Build(cfg.Profile, textAnalyzer, cvText)
	if err != nil {
		return nil, err
	}
	a.analysis = analysis
	if analysis != nil {
		logger.Info("cv analyzed",
			zap.Int("cv_score", analysis.Score),
			zap.String("experience_level", string(analysis.ExperienceLevel)),
			zap.Int("skills", len(analysis.Skills)),
		)
	}

	limits, err := candidateLimits(cfg)
	if err != nil {
		return nil, err
	}

	a.candidate = pipeline.Candidate{
		Name:    cfg.Profile.Name,
		CV:      cvText,
		Profile: candidateProfile,
		Limits:  limits,
	}

	filterCfg := cfg.Filters
	if filterCfg == nil {
		filterCfg = &filtering.Config{}
	}

	a.pipeline = &pipeline.Pipeline{
		Fetcher:  jobs.NewAggregator(logger.Named("sources"), srcCfg.Parallel, sources...),
		Analyzer: textAnalyzer,
		Scorer: matching.NewScorer(matching.Options{
			BestTitleMatch: cfg.Profile.Preferences.BestTitleMatch,
			Analyzer:       textAnalyzer,
		}, logger.Named("scorer")),
		Submitters:   submitters,
		Metrics:      a.metrics,
		Logger:       logger,
		Query:        jobs.Query{Limit: srcCfg.Limit},
		FilterConfig: filterCfg,
		FilterDeps:   filtering.Deps{Logger: logger.Named("filters"), Applied: applied},
		Filters:      filtering.Defaults(opts.IgnoreApplied),
		DryRun:       opts.DryRun,
	}

	if !opts.Apply {
		return a, nil
	}

	store, closeStore, err := newQuotaStore(ctx, cfg.Quota)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.quotaLoc, _ = quotaLocation(cfg.Quota)
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	a.pipeline.Gate = gate.New(store, logger.Named("gate"))

	if err := a.openHistory(ctx, cfg.History); err != nil {
		a.Close()
		return nil, err
	}

	letters, err := newLetterWriter(ctx, cfg.AI, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pipeline.Letters = letters

	return a, nil
}

func newHeadHunter(ctx context.Context, cfg *HeadHunterConfig, logger *zap.Logger) (*headhunter.Client, error) {
	env := cfg.TokenEnv
	if env == "" {
		env = defaultHHTokenEnv
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "headhunter token",
		File:  cfg.TokenFile,
		Env:   env,
		Value: cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set sources.headhunter.token-file or $%s)", err, env)
	}

	client := headhunter.New(logger.Named("headhunter"), token, cfg.RPS)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.Search != nil {
		client.Params = cfg.Search
	}

	if cfg.Resume == "" {
		logger.Warn("no headhunter resume configured, applications to headhunter will fail",
			zap.String("hint", "set sources.headhunter.resume to the resume title"))
		return client, nil
	}

	resumes, err := client.GetMineResumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting mine resumes: %w", err)
	}

	selected := resumes.FindByTitle(cfg.Resume)
	if selected == nil {
		logger.Error("resume with given title not found",
			zap.Strings("existing_titles", resumes.Titles()),
			zap.String("resume_title", cfg.Resume),
		)
		return nil, fmt.Errorf("resume %q not found", cfg.Resume)
	}
	client.ResumeID = selected.ID

	return client, nil
}

// loadCV reads the CV file, or the headhunter resume when no file is set.
func loadCV(ctx context.Context, cfg *profile.Config, hh *headhunter.Client, logger *zap.Logger) (string, error) {
	if cfg.CVFile != "" {
		data, err := os.ReadFile(cfg.CVFile)
		if err != nil {
			return "", fmt.Errorf("reading cv: %w", err)
		}
		return string(data), nil
	}

	if hh == nil || hh.ResumeID == "" {
		return "", nil
	}

	details, err := hh.GetResumeDetails(ctx, hh.ResumeID)
	if err != nil {
		logger.Warn("cannot load resume details, scoring without cv", zap.Error(err))
		return "", nil
	}
	return details.Text(), nil
}

func candidateLimits(cfg *Config) (quota.Limits, error) {
	tier := cfg.Profile.Tier
	if tier == "" {
		tier = quota.TierFree
	}

	limits, err := quota.TierLimits(tier)
	if err != nil {
		return quota.Limits{}, err
	}

	if cfg.Quota != nil && cfg.Quota.Limits != nil {
		limits = *cfg.Quota.Limits
	}
	return limits, nil
}

// newQuotaStore returns the store and, for redis, a func closing its client.
func newQuotaStore(ctx context.Context, cfg *QuotaConfig) (quota.Store, func() error, error) {
	if cfg == nil {
		cfg = &QuotaConfig{}
	}

	loc, err := quotaLocation(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		return quota.NewMemoryStore(loc), nil, nil
	}

	password := cfg.Redis.Password
	if cfg.Redis.PasswordFile != "" {
		p, err := secrets.Load(secrets.Source{Name: "redis password", File: cfg.Redis.PasswordFile})
		if err != nil {
			return nil, nil, err
		}
		password = p
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}

	return quota.NewRedisStore(client, loc, cfg.Redis.Prefix), client.Close, nil
}

func quotaLocation(cfg *QuotaConfig) (*time.Location, error) {
	if cfg == nil || cfg.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("quota timezone: %w", err)
	}
	return loc, nil
}

// historyFields reports what the history holds for the current quota day and week.
func (a *application) historyFields(ctx context.Context, now time.Time) []zap.Field {
	if a.history == nil {
		return nil
	}

	p := quota.Periods(now, a.quotaLoc)
	userID := a.candidate.Profile.UserID

	today, err := a.history.CountSince(ctx, userID, p.Day)
	if err != nil {
		a.logger.Warn("cannot count applications", zap.Error(err))
		return nil
	}
	week, err := a.history.CountSince(ctx, userID, p.Week)
	if err != nil {
		a.logger.Warn("cannot count applications", zap.Error(err))
		return nil
	}

	return []zap.Field{
		zap.Int("applied_today", today),
		zap.Int("applied_this_week", week),
	}
}

func (a *application) openHistory(ctx context.Context, cfg *HistoryConfig) error {
	driver, dsn := history.DriverSQLite, defaultHistoryDSN
	if cfg != nil {
		if cfg.Driver != "" {
			driver = strings.ToLower(cfg.Driver)
		}
		if cfg.DSN != "" {
			dsn = cfg.DSN
		}
	}

	store, err := history.Open(ctx, driver, dsn, a.logger.Named("history"))
	if err != nil {
		return err
	}
	a.history = store
	a.pipeline.History = store
	a.closers = append(a.closers, store.Close)
	return nil
}

func newLetterWriter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.CoverLetterWriter, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	text := ""
	if cfg.Template != "" {
		data, err := os.ReadFile(cfg.Template)
		if err != nil {
			return nil, fmt.Errorf("reading cover letter template: %w", err)
		}
		text = string(data)
	}

	tmpl, err := ai.NewTemplateWriter(text)
	if err != nil {
		return nil, err
	}

	if cfg.Gemini == nil || !cfg.Gemini.Enabled {
		return tmpl, nil
	}

	env := cfg.Gemini.APIKeyEnv
	if env == "" {
		env = defaultGeminiEnv
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   env,
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		logger.Warn("gemini disabled, using template cover letters", zap.Error(err))
		return tmpl, nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger.Named("gemini"))
	if err != nil {
		return nil, err
	}

	return &ai.Fallback{
		Primary:   gemini.NewWriter(generator, logger.Named("gemini"), cfg.Gemini.MaxLogLength),
		Secondary: tmpl,
		Logger:    logger,
	}, nil
}
