package main

import (
	"flag"
	"log"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/database"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"

	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", database.DefaultMigrationsDir, "migrations directory")
	down := flag.Int("down", 0, "number of migrations to roll back instead of migrating up")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer func() { _ = logger.Sync() }()

	if *down > 0 {
		if err := database.RollbackMigrations(cfg.GetMigrateDSN(), *dir, *down); err != nil {
			l.Fatal("Failed to roll back migrations", zap.Error(err))
		}
		return
	}

	if err := database.RunMigrations(cfg.GetMigrateDSN(), *dir); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
}
