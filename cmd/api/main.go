package main

import (
	"log"

	"matchpush/config"
	"matchpush/internal/handler"
	"matchpush/internal/jobs"
	"matchpush/internal/redis"
	"matchpush/internal/server"
	"matchpush/pkg/database"
	"matchpush/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})

	svc, err := jobs.Build(cfg, database.DB, l)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	runner := jobs.NewRunner(jobs.DefaultRegistry(cfg, svc), l)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Webhook: handler.NewWebhookHandler(svc.Correlator),
		Jobs:    handler.NewJobsHandler(runner, svc.Locks),
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
