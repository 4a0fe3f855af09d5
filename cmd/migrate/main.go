// Command migrate prepares the booking database: collections with their
// JSON-schema validators, the unique span index backing conflict exclusion,
// and the TTL index that expires stale locks. Run it before the first
// service start and after any schema change.
package main

import (
	"context"
	"time"

	mongoMigration "resbook/internal/migrations/mongo"
	"resbook/pkg/config"
)

const JobName = "mongo-migration"

const migrationTimeout = 120 * time.Second

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed")
}
