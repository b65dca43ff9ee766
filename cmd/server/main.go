package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/flocktracker/internal/config"
	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository/backend"
	"github.com/mamadbah2/flocktracker/internal/repository/sheets"
	"github.com/mamadbah2/flocktracker/internal/scheduler"
	"github.com/mamadbah2/flocktracker/internal/server/handlers"
	"github.com/mamadbah2/flocktracker/internal/server/router"
	"github.com/mamadbah2/flocktracker/internal/service/counts"
	historysvc "github.com/mamadbah2/flocktracker/internal/service/history"
	reportingsvc "github.com/mamadbah2/flocktracker/internal/service/reporting"
	snapshotsvc "github.com/mamadbah2/flocktracker/internal/service/snapshot"
	whatsappclient "github.com/mamadbah2/flocktracker/pkg/clients/whatsapp"
	"github.com/mamadbah2/flocktracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	if err := run(cfg, baseLogger); err != nil {
		baseLogger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, baseLogger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	taxonomy, err := models.LoadTaxonomy(cfg.Tracker.TaxonomyFile)
	if err != nil {
		return err
	}
	baseLogger.Info("taxonomy loaded",
		zap.Int("breeds", len(taxonomy.Breeds())),
		zap.Strings("stages", taxonomy.Stages()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.Open(ctx, backendCfg, baseLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	board := counts.NewBoard(taxonomy, baseLogger.Named("svc.counts"))
	snapshotSvc := snapshotsvc.NewService(store, taxonomy, loc, baseLogger.Named("svc.snapshot"))
	if cfg.Tracker.RehydrateOnStart {
		if _, err := snapshotSvc.Rehydrate(ctx, board); err != nil {
			baseLogger.Error("failed to rehydrate board, starting empty", zap.Error(err))
		}
	}
	autosaver := snapshotsvc.NewAutosaver(board, snapshotSvc, cfg.Tracker.AutosaveDebounce, baseLogger.Named("svc.autosave"))
	historySvc := historysvc.NewService(store, taxonomy, baseLogger.Named("svc.history"))

	reportingSvc := reportingsvc.NewService(snapshotSvc, historySvc, taxonomy, baseLogger.Named("svc.reporting"))
	schedOpts := scheduler.Options{Schedule: cfg.Reporting.CronSchedule, Location: loc}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			return err
		}
		reportingSvc.WithSheet(sheetsRepo, cfg.Sheets.Range).WithHistory(cfg.Sheets.HistoryRange)
		schedOpts.Publish = true
		baseLogger.Info("google sheets mirror enabled",
			zap.String("range", cfg.Sheets.Range),
			zap.String("history_range", cfg.Sheets.HistoryRange))
	}
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		schedOpts.Notifier = whatsappclient.NewNotifier(whatsClient, cfg.WhatsApp.Recipient, baseLogger.Named("client.whatsapp"))
		baseLogger.Info("whatsapp daily report enabled")
	}

	sched := scheduler.NewScheduler(reportingSvc, schedOpts, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}

	handler := handlers.NewHandler(taxonomy, board, autosaver, historySvc, snapshotSvc.Today, baseLogger.Named("handlers.api"))
	engine := router.New(handler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		baseLogger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error("graceful shutdown failed", zap.Error(err))
		}
		sched.Stop()
		if err := autosaver.Close(shutdownCtx); err != nil {
			baseLogger.Error("final save failed", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
