// Package cli provides the cobra command tree of sercha-docs.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the entrypoint.
var (
	searchService   driving.SearchService
	labelService    driving.LabelService
	documentService driving.DocumentService
	syncService     driving.SyncService
	settingsService driving.SettingsService
	metricsHandler  http.Handler
	settings        = domain.DefaultSettings("")
)

// Services aggregates what the commands need.
type Services struct {
	Search    driving.SearchService
	Labels    driving.LabelService
	Documents driving.DocumentService
	Sync      driving.SyncService
	Config    driving.SettingsService
	// Metrics serves the Prometheus registry for watch --metrics-addr.
	Metrics  http.Handler
	Settings domain.Settings
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	searchService = s.Search
	labelService = s.Labels
	documentService = s.Documents
	syncService = s.Sync
	settingsService = s.Config
	metricsHandler = s.Metrics
	settings = s.Settings
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sercha-docs",
	Short: "Search and label scanned documents",
	Long: `sercha-docs indexes a directory of scanned documents, finds them by
label and content with typo tolerant search, and learns to guess their labels.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
