package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/app"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/config"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/logging"
)

func main() {
	var confPath string
	flag.StringVar(&confPath, "conf", "", "config path, eg: -conf config.yaml")
	flag.Parse()

	cfg, errLoad := config.Load(config.ResolveConfigPath(confPath))
	if errLoad != nil {
		log.WithError(errLoad).Fatal("load config")
	}
	logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if errRun := app.RunCron(ctx, cfg); errRun != nil {
		log.WithError(errRun).Fatal("cron exited")
	}
}
