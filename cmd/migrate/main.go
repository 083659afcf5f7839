package main

import (
	"context"
	"time"

	mongoMigration "fleetbook/internal/migrations/mongo"
	"fleetbook/internal/reservations/repository"
	"fleetbook/pkg/config"
	"fleetbook/pkg/db/sqlite"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.Connect()
	defer cfg.Client.GracefulShutdown(ctx, cfg.Log)

	cfg.Log.Info("Starting migration job", "store", cfg.StoreDriver)
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		sqlite.MustMigrate(cfg.Client.SQL, repository.SQLiteSchema)
	default:
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	}
	cfg.Log.Info("Migration completed successfully")
}
