package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/filtering"
	"github.com/spigell/jobhackr/internal/jobs"
	applog "github.com/spigell/jobhackr/internal/logger"
	"github.com/spigell/jobhackr/internal/matching"
	"github.com/spigell/jobhackr/internal/pipeline"
)

const (
	PromptYes                 = "Yes"
	PromptNo                  = "No"
	PromptReportByCompanies   = "Report by companies"
	PromptJobsToFile          = "Dump jobs to file"
	PromptAppendToExcludeFile = "Append all jobs to exclude file and skip them"
)

var prompt = promptui.Select{
	Label: "Apply to the selected jobs?",
	Items: []string{PromptYes, PromptNo, PromptReportByCompanies, PromptJobsToFile, PromptAppendToExcludeFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search, score and apply to the best matching jobs once",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude jobs if already applied on the board")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before applying")
	runCmd.Flags().Bool("dry-run", false, "log what would be sent without applying")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")

	viper.BindPFlag("filters.exclude-file", runCmd.Flags().Lookup("exclude-file"))
}

func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	ignoreApplied, _ := cmd.Flags().GetBool("do-not-exclude-applied")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	a, err := newApplication(ctx, config, logger, buildOptions{
		IgnoreApplied: ignoreApplied,
		DryRun:        dryRun,
		Apply:         true,
	})
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer a.Close()

	if !autoApprove {
		a.pipeline.Confirm = confirm(logger, config.Filters)
	}

	report, err := a.pipeline.Run(ctx, a.candidate)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	logReport(logger, report, a.historyFields(ctx, time.Now())...)
}

// setup builds the logger and reads the config, exiting on failure like the
// rest of the cli does.
func setup() (*zap.Logger, *Config) {
	logger, err := applog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobhackr", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// confirm shows the selected jobs and asks what to do with them until the
// user says yes or no.
func confirm(logger *zap.Logger, filters *filtering.Config) func(context.Context, []*matching.Result) (bool, error) {
	return func(_ context.Context, selected []*matching.Result) (bool, error) {
		postings := jobs.NewPostings()
		for _, r := range selected {
			postings.Items = append(postings.Items, r.Job)
			logger.Info("selected job", append(applog.JobFields(r.Job),
				zap.Int("score", r.Score),
				zap.Strings("reasons", r.Reasons),
				zap.String("url", r.Job.URL),
			)...)
		}

		for {
			_, action, err := prompt.Run()
			if err != nil {
				return false, err
			}

			switch action {
			case PromptYes:
				return true, nil
			case PromptNo:
				logger.Info("exiting", zap.String("reason", "got no from prompt"))
				return false, nil
			case PromptReportByCompanies:
				pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
				logger.Info(string(pretty), zap.Int("jobs_count", postings.Len()))
			case PromptJobsToFile:
				filename, err := postings.DumpToTmpFile()
				if err != nil {
					return false, fmt.Errorf("dump jobs to file: %w", err)
				}
				logger.Info("dumping jobs to file", zap.String("filename", filename))
			case PromptAppendToExcludeFile:
				if filters == nil || filters.ExcludeFile == "" {
					logger.Warn("exclude file is not configured", zap.String("hint", "set filters.exclude-file or --exclude-file"))
					continue
				}
				if err := appendToExcludeFile(filters.ExcludeFile, postings); err != nil {
					return false, err
				}
				logger.Info("appended to exclude file", zap.String("filename", filters.ExcludeFile))
				return false, nil
			default:
				return false, fmt.Errorf("invalid action: %s", action)
			}
		}
	}
}

func appendToExcludeFile(path string, postings *jobs.Postings) error {
	excluded, err := filtering.LoadExcluded(path)
	if err != nil {
		return fmt.Errorf("load exclude file: %w", err)
	}

	excluded.Append(filtering.ToExcluded(postings, time.Now()))

	return excluded.ToFile(path)
}

func logReport(logger *zap.Logger, report *pipeline.Report, extra ...zap.Field) {
	if report == nil {
		return
	}

	for _, s := range report.Sources {
		if s.Err != nil {
			logger.Warn("source failed", zap.String("source", s.Source), zap.Error(s.Err))
		}
	}

	for _, f := range report.Failed {
		if errors.Is(f.Err, pipeline.ErrNoSubmitter) {
			logger.Warn("job source cannot take applications", zap.String("job_id", f.JobID))
		}
	}

	fields := []zap.Field{
		zap.Int("fetched", report.Fetched),
		zap.Int("filtered", report.Filtered),
		zap.Int("scored", len(report.Results)),
		zap.Int("submitted", len(report.Submitted)),
		zap.Int("failed", len(report.Failed)),
		zap.Bool("cancelled", report.Cancelled),
	}
	if d := report.Decision; d != nil {
		fields = append(fields,
			zap.Int("deduplicated", d.Deduplicated),
			zap.Int("below_threshold", d.BelowThreshold),
			zap.Int("remaining_quota", d.Remaining.Remaining),
			zap.Bool("limit_reached", d.LimitReached),
		)
	}
	logger.Info("summary", append(fields, extra...)...)
}
