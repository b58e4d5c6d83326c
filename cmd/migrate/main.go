package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"matchpush/config"
	"matchpush/internal/repository"
	"matchpush/pkg/database"
)

const usage = `
matchpush - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create extensions, tables and indexes
  status      Show database connection status
  seed-dev    Insert a handful of development fixtures
  truncate    Truncate all matchpush tables (DANGEROUS)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed-dev
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	database.Connect(cfg)

	switch flag.Arg(0) {
	case "up":
		if err := repository.InitSchema(database.DB); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Schema is up to date")
	case "status":
		if err := database.HealthCheck(); err != nil {
			log.Fatalf("Database unreachable: %v", err)
		}
		log.Println("Database connection OK")
	case "seed-dev":
		if err := seedDev(); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Development fixtures inserted")
	case "truncate":
		if err := truncate(); err != nil {
			log.Fatalf("Truncate failed: %v", err)
		}
		log.Println("Tables truncated")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func seedDev() error {
	fixtures := []struct {
		home, away, category string
		kickoffIn            time.Duration
	}{
		{"Manchester City", "Liverpool", "EPL", 26 * time.Hour},
		{"Real Madrid", "Barcelona", "LALIGA", 50 * time.Hour},
		{"Bayern Munich", "Borussia Dortmund", "BUNDESLIGA", 74 * time.Hour},
	}
	for _, f := range fixtures {
		_, err := database.DB.Exec(`
            INSERT INTO fixtures (home_name, away_name, category, kickoff_utc)
            VALUES ($1, $2, $3, $4)
        `, f.home, f.away, f.category, time.Now().UTC().Add(f.kickoffIn).Truncate(time.Minute))
		if err != nil {
			return err
		}
	}
	return nil
}

func truncate() error {
	_, err := database.DB.Exec(`
        TRUNCATE fixtures, push_ledger, job_locks, delivery_confirmations, audit_log
    `)
	return err
}
