package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-docs/internal/adapters/driving/watcher"
	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise the index with the work directory",
	Long: `Indexes new and modified documents of the work directory and drops
documents that no longer exist. Label classifiers learn from the changes.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var (
	watchMetricsAddr string
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in sync with the work directory",
	Long: `Synchronises once, then again every time the work directory changes,
until interrupted.

Use --metrics-addr to expose Prometheus metrics while watching:
  sercha-docs watch --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve /metrics on this address")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", domain.SyncDebounce, "quiet period before syncing")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	cmd.Printf("Synchronising %s...\n", settings.WorkDir)
	report, err := syncService.Sync(cmd.Context(), newProgress(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.SyncReport) {
	cmd.Printf("Sync complete in %s: %d new, %d modified, %d deleted, %d unchanged.\n",
		report.Duration.Round(time.Millisecond),
		report.New, report.Modified, report.Deleted, report.Unchanged)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runSync(cmd, nil); err != nil {
		return err
	}

	w, err := watcher.New(settings.WorkDir, watchDebounce, func(ctx context.Context) error {
		report, err := syncService.Sync(ctx, domain.NoProgress)
		if errors.Is(err, domain.ErrSyncInProgress) {
			logger.Debug("sync already running, skipping")
			return nil
		}
		if err != nil {
			return err
		}
		if report.Changed() {
			printReport(cmd, report)
		}
		return nil
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(ctx)
	})
	if watchMetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, watchMetricsAddr)
		})
		cmd.Printf("Metrics on http://%s/metrics\n", watchMetricsAddr)
	}
	return g.Wait()
}

// serveMetrics blocks until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string) error {
	if metricsHandler == nil {
		return errors.New("metrics not configured")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
