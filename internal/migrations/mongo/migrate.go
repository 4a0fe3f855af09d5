package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resbook/internal/migrations/mongo/validators"
)

var (
	// The unique compound partial index is the storage-level backstop for
	// the overlap scan: it covers the (resource_id, start_time, end_time)
	// range query, rejects identical spans racing past the advisory lock,
	// and skips exception tombstones entirely.
	InstanceIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "resource_id", Value: 1},
				{Key: "start_time", Value: 1},
				{Key: "end_time", Value: 1},
			},
			Options: options.Index().
				SetName("resource_active_span").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_exception": false}),
		},
		{
			Keys: bson.D{
				{Key: "series_id", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().SetName("series_start"),
		},
	}

	// Partial indexes cannot filter on absent fields, so the unbounded-series
	// lookup rides a plain resource index and filters the rest server-side.
	SeriesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resource_id", Value: 1}},
			Options: options.Index().SetName("resource"),
		},
	}

	// expires_at TTL reaps advisory locks whose holder died mid-flight.
	LockIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("lock_expiry_ttl").
				SetExpireAfterSeconds(0),
		},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running booking engine Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Booking_series": {
			Indexes:   SeriesIndexes,
			Validator: validators.BookingSeriesValidator,
		},
		"Booking_instances": {
			Indexes:   InstanceIndexes,
			Validator: validators.BookingInstanceValidator,
		},
		"Booking_locks": {
			Indexes:   LockIndexes,
			Validator: validators.BookingLockValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists, updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
