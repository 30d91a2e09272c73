package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/matching"
)

const defaultTop = 20

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Search and score jobs without applying",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude jobs if already applied on the board")
	scoreCmd.Flags().IntP("top", "n", defaultTop, "how many jobs to print, 0 prints all")
	scoreCmd.Flags().StringP("output", "o", "text", "output format: text or json")
}

func score(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	ignoreApplied, _ := cmd.Flags().GetBool("do-not-exclude-applied")
	top, _ := cmd.Flags().GetInt("top")
	output, _ := cmd.Flags().GetString("output")

	a, err := newApplication(ctx, config, logger, buildOptions{IgnoreApplied: ignoreApplied})
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer a.Close()

	report, err := a.pipeline.Score(ctx, a.candidate)
	if err != nil {
		logger.Fatal("scoring failed", zap.Error(err))
	}
	logReport(logger, report)

	results := report.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	if err := printResults(os.Stdout, output, results, a.candidate.Profile.Threshold()); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}
}

func printResults(w io.Writer, format string, results []*matching.Result, threshold int) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "text", "":
		for _, r := range results {
			mark := " "
			if r.ShouldApply {
				mark = "*"
			}
			fmt.Fprintf(w, "%s %3d  %s / %s / %s\n", mark, r.Score, r.Job.Title, r.Job.Company, r.Job.URL)
			fmt.Fprintf(w, "       %s\n", strings.Join(r.Reasons, "; "))
		}
		fmt.Fprintf(w, "%d jobs, * marks a score of at least %d with no blocking reason\n", len(results), threshold)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
