package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/app"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/config"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/logging"
)

func main() {
	var confPath string
	var migrateOnly bool
	flag.StringVar(&confPath, "conf", "", "config path, eg: -conf config.yaml")
	flag.BoolVar(&migrateOnly, "migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, errLoad := config.Load(config.ResolveConfigPath(confPath))
	if errLoad != nil {
		log.WithError(errLoad).Fatal("load config")
	}
	logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateOnly {
		if errMigrate := app.Migrate(ctx, cfg); errMigrate != nil {
			log.WithError(errMigrate).Fatal("migrate")
		}
		log.Info("migrations applied")
		os.Exit(0)
	}

	if errRun := app.RunServer(ctx, cfg); errRun != nil {
		log.WithError(errRun).Fatal("server exited")
	}
}
