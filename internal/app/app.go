// Package app wires configuration, database, services and transports into
// runnable processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/autoorder"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/config"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/db"
	adminapi "github.com/YatharthKaushal/tiffsy-backend-sub001/internal/http/api/admin"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/http/api/front"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/notify"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/payment"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

// settingsRefreshInterval is how often the runtime settings snapshot is
// reloaded from the database.
const settingsRefreshInterval = time.Minute

// Components holds the wired service graph.
type Components struct {
	DB       *gorm.DB
	Ledger   *ledger.Ledger
	Orders   *orders.Service
	Runner   *autoorder.Runner
	Location *time.Location
}

// Build opens the database, runs migrations, loads the settings snapshot and
// wires the services.
func Build(ctx context.Context, cfg *config.AppConfig) (*Components, error) {
	if errTZ := db.SetBusinessTimeZone(cfg.Timezone); errTZ != nil {
		return nil, fmt.Errorf("set business timezone: %w", errTZ)
	}
	loc := db.BusinessLocation()

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return nil, errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		log.WithError(errRefresh).Warn("app: initial settings snapshot load, using defaults")
	}

	clock := cutoff.SystemClock{}
	notifier := notify.LogNotifier{}
	l := ledger.New(conn, clock, loc)
	svc := orders.NewService(conn, l, payment.LogEmitter{}, notifier, clock, loc)
	runner := autoorder.NewRunner(conn, l, svc, notifier, clock, loc)

	return &Components{DB: conn, Ledger: l, Orders: svc, Runner: runner, Location: loc}, nil
}

// Migrate opens the database and runs migrations.
func Migrate(_ context.Context, cfg *config.AppConfig) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP API and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg *config.AppConfig) error {
	components, errBuild := Build(ctx, cfg)
	if errBuild != nil {
		return errBuild
	}
	go refreshSettingsLoop(ctx, components.DB)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	front.RegisterFrontRoutes(engine, components.DB, components.Orders, components.Ledger)
	adminapi.RegisterAdminRoutes(engine, components.DB, components.Orders, components.Ledger, components.Runner, cfg.Server.AdminToken)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: engine}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("app: http server listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// RunCron schedules the per-window auto-order passes and blocks until ctx is
// cancelled, then stops the scheduler gracefully.
func RunCron(ctx context.Context, cfg *config.AppConfig) error {
	components, errBuild := Build(ctx, cfg)
	if errBuild != nil {
		return errBuild
	}
	go refreshSettingsLoop(ctx, components.DB)

	scheduler := cron.New(cron.WithLocation(components.Location))

	addJob := func(schedule, window string) error {
		_, errAdd := scheduler.AddFunc(schedule, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			stats, errRun := components.Runner.Run(runCtx, window, cfg.Cron.DryRun)
			if errRun != nil {
				log.WithError(errRun).Errorf("cron: %s auto-order run", window)
				return
			}
			log.Infof("cron: %s run %s processed=%d succeeded=%d skipped=%d failed=%d",
				window, stats.RunID, stats.Processed, stats.Succeeded, stats.Skipped, stats.Failed)
		})
		return errAdd
	}
	if errAdd := addJob(cfg.Cron.LunchSchedule, cutoff.WindowLunch); errAdd != nil {
		return fmt.Errorf("schedule lunch run: %w", errAdd)
	}
	if errAdd := addJob(cfg.Cron.DinnerSchedule, cutoff.WindowDinner); errAdd != nil {
		return fmt.Errorf("schedule dinner run: %w", errAdd)
	}

	scheduler.Start()
	log.Infof("cron: scheduler started (lunch %q, dinner %q, tz %s)",
		cfg.Cron.LunchSchedule, cfg.Cron.DinnerSchedule, components.Location)

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		log.Info("cron: scheduler stopped")
	case <-time.After(30 * time.Second):
		log.Warn("cron: scheduler stop timed out")
	}
	return nil
}

// refreshSettingsLoop keeps the in-process settings snapshot close to the
// database.
func refreshSettingsLoop(ctx context.Context, conn *gorm.DB) {
	ticker := time.NewTicker(settingsRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
				log.WithError(errRefresh).Warn("app: settings snapshot refresh")
			}
		}
	}
}
