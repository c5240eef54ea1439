package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/contentguard/backend/config"
	"github.com/contentguard/backend/internal/database"
	"github.com/contentguard/backend/internal/logger"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/main.go [up|down|status]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.IsProduction(), cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.GetDSN(), database.PoolConfig{MaxOpenConns: 1}, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	switch command {
	case "up":
		if err := database.RunMigrations(ctx, db.DB, lg); err != nil {
			lg.Fatal("migration failed", zap.Error(err))
		}

	case "down":
		version, err := database.RollbackLast(ctx, db.DB, lg)
		if err != nil {
			lg.Fatal("rollback failed", zap.Error(err))
		}
		if version == 0 {
			fmt.Println("Nothing to roll back")
			return
		}
		fmt.Printf("Rolled back version %d\n", version)

	case "status":
		showMigrationStatus(ctx, db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Available commands: up, down, status")
		os.Exit(1)
	}
}

func showMigrationStatus(ctx context.Context, db *database.DB) {
	applied, err := database.Status(ctx, db.DB)
	if err != nil {
		fmt.Printf("No migrations found or table doesn't exist: %v\n", err)
		return
	}

	fmt.Println("\nApplied Migrations:")
	fmt.Println("-------------------")
	for _, m := range applied {
		fmt.Printf("Version %d - Applied at: %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("\n%d of %d migrations applied\n", len(applied), len(database.Migrations))
}
