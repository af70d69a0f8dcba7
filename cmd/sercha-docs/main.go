// Command sercha-docs indexes, searches and labels a directory of scanned documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	configfile "github.com/custodia-labs/sercha-docs/internal/adapters/driven/config/file"
	modelfile "github.com/custodia-labs/sercha-docs/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/sercha-docs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-docs/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-docs/internal/core/services"
	"github.com/custodia-labs/sercha-docs/internal/doctypes"
	"github.com/custodia-labs/sercha-docs/internal/logger"
	"github.com/custodia-labs/sercha-docs/internal/metrics"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A .env file is optional.
	_ = godotenv.Load()

	store, err := configfile.NewSettingsStore(os.Getenv(configfile.EnvConfigDir))
	if err != nil {
		return report(err)
	}
	settings, err := store.Load()
	if err != nil {
		return report(err)
	}
	logger.SetVerbose(settings.Verbose)
	logger.Debug("settings loaded from %s", store.Path())

	// 1. Metadata database holding storage page counters
	db, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return report(fmt.Errorf("opening metadata store: %w", err))
	}
	defer db.Close()

	// 2. Full-text index
	index, err := sqlite.OpenIndexStore(settings.IndexDir())
	if err != nil {
		return report(fmt.Errorf("opening index: %w", err))
	}

	// 3. Metrics registry shared by the engine and watch --metrics-addr
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// 4. Engine over the work directory
	engine, err := services.NewEngine(ctx,
		services.EngineConfig{RootDir: settings.WorkDir, Metrics: m},
		index,
		modelfile.NewModelStore(settings.ModelsDir()),
		doctypes.Default(db.PageCounter()),
		nil,
	)
	if err != nil {
		_ = index.Close()
		return report(fmt.Errorf("opening engine: %w", err))
	}
	defer engine.Close()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Search:    services.NewSearchService(engine, settings.Search.FuzzyMaxDistance),
		Labels:    services.NewLabelService(engine),
		Documents: services.NewDocumentService(engine),
		Sync:      services.NewSyncService(engine),
		Config:    services.NewSettingsService(store),
		Metrics:   m.Handler(),
		Settings:  settings,
	})

	// cobra already printed command errors
	return cli.Execute(ctx)
}

func report(err error) error {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return err
}
