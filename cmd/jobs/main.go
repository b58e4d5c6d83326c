package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchpush/config"
	"matchpush/internal/jobs"
	"matchpush/internal/redis"
	"matchpush/pkg/database"
	"matchpush/pkg/logger"
)

const usage = `
matchpush jobs runner

Usage:
  jobs [flags] <job>

Jobs:
  schedule    Create remote schedules for qualifying upcoming fixtures
  reconcile   Cancel duplicate remote schedules (keep earliest-created)
  presend     Recreate schedules missing at the platform shortly before send
  audit       Compare ledger vs remote counts, report drift

Flags:
  -every duration   Keep running the job on this interval instead of once

Examples:
  jobs schedule
  jobs -every 5m presend
`

func main() {
	every := flag.Duration("every", 0, "run the job repeatedly on this interval")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	jobName := flag.Arg(0)

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	mode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if *every > 0 {
		if *every < time.Minute {
			log.Fatalf("-every must be at least 1m, got %s", *every)
		}
		if err := runner.RunEvery(ctx, jobName, *every); err != nil && err != context.Canceled {
			log.Fatalf("Job loop exited: %v", err)
		}
		return
	}

	if _, err := runner.RunOnce(ctx, jobName); err != nil {
		log.Fatalf("Job %s failed: %v", jobName, err)
	}
}
