package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"catalogsync_api/config"
	"catalogsync_api/internal/catalog/app"
	"catalogsync_api/pkg/dbconnect/postgres"
	"catalogsync_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the application config")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", *configPath, err)
	}

	zapLogger := logger.New(os.Stdout, *debug)
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connector := postgres.NewPgConnector(&cfg.Postgres, zapLogger)
	server := app.NewServer(cfg, connector, zapLogger)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
