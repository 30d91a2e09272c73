package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobhackr/internal/metrics"
	"github.com/spigell/jobhackr/internal/scheduler"
)

const (
	defaultMetricsAddr = ":2112"
	shutdownTimeout    = 10 * time.Second
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run on a schedule and expose Prometheus metrics",
	Long: "watch runs once at start and then on the configured cron schedule (default " + scheduler.DefaultSpec + ").\n" +
		"Applications are sent without confirmation, within the profile quota.",
	Run: func(cmd *cobra.Command, _ []string) {
		watch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("schedule", "", "cron spec, overrides the schedule key of the config")
	watchCmd.Flags().String("metrics-addr", "", "listen address for /metrics, overrides metrics-addr of the config")
	watchCmd.Flags().Bool("dry-run", false, "log what would be sent without applying")
}

func watch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	spec := config.Schedule
	if flag, _ := cmd.Flags().GetString("schedule"); flag != "" {
		spec = flag
	}
	addr := config.MetricsAddr
	if flag, _ := cmd.Flags().GetString("metrics-addr"); flag != "" {
		addr = flag
	}
	if addr == "" {
		addr = defaultMetricsAddr
	}

	a, err := newApplication(ctx, config, logger, buildOptions{DryRun: dryRun, Apply: true})
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer a.Close()

	sched := scheduler.New(spec, func(ctx context.Context) error {
		report, err := a.pipeline.Run(ctx, a.candidate)
		logReport(logger, report, a.historyFields(ctx, time.Now())...)
		return err
	}, logger.Named("scheduler"))

	if err := sched.Start(ctx); err != nil {
		logger.Fatal("starting the scheduler", zap.Error(err))
	}

	if err := serveMetrics(ctx, addr, a.metrics, logger); err != nil {
		logger.Error("metrics server", zap.Error(err))
	}

	sched.Stop()
}

// serveMetrics blocks until ctx is done, then shuts the server down.
func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
