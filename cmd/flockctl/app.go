package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/config"
	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/repository/backend"
	historysvc "github.com/mamadbah2/flocktracker/internal/service/history"
	reportingsvc "github.com/mamadbah2/flocktracker/internal/service/reporting"
	snapshotsvc "github.com/mamadbah2/flocktracker/internal/service/snapshot"
	"github.com/mamadbah2/flocktracker/pkg/logger"
)

// app holds what every subcommand needs. It is filled before the command
// runs.
type app struct {
	envFile string
	outDir  string
	verbose bool

	cfg       *config.Config
	logger    *zap.Logger
	store     repository.Store
	history   *historysvc.Service
	snapshots *snapshotsvc.Service
	reporting *reportingsvc.Service
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:          "flockctl",
		Short:        "Export, inspect and clear stored flock snapshots",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env", "", "env file to load (default .env)")
	root.PersistentFlags().StringVar(&a.outDir, "out", "", "export directory (default EXPORT_DIR)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(exportCmd(a))
	root.AddCommand(historyCmd(a))
	root.AddCommand(clearCmd(a))
	root.AddCommand(reportCmd(a))
	return root, a
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logger.NewConsole(a.verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	taxonomy, err := models.LoadTaxonomy(cfg.Tracker.TaxonomyFile)
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	a.store, err = backend.Open(ctx, backendCfg, a.logger)
	if err != nil {
		return err
	}

	a.history = historysvc.NewService(a.store, taxonomy, a.logger.Named("svc.history"))
	a.snapshots = snapshotsvc.NewService(a.store, taxonomy, loc, a.logger.Named("svc.snapshot"))
	a.reporting = reportingsvc.NewService(a.snapshots, a.history, taxonomy, a.logger.Named("svc.reporting"))
	if a.outDir == "" {
		a.outDir = cfg.Tracker.ExportDir
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.store != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.store.Close(ctx); err != nil && a.logger != nil {
			a.logger.Error("failed to close store", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
