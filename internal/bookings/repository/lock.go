package repository

import (
	"context"
	"fmt"
	bookingerrors "resbook/internal/bookings/errors"
	"resbook/pkg/config"
	"resbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Booking_locks"
)

// LockRepository provides advisory locks keyed by resource ID. A unique _id
// insert is the acquisition; the TTL index on expires_at reaps locks whose
// holder died mid-transaction.
type LockRepository interface {
	Acquire(ctx context.Context, resourceID, owner string, ttl time.Duration) error
	Release(ctx context.Context, resourceID, owner string) error
}

type mongoLockRepository struct {
	collection *mongo.Collection
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. A duplicate key means another
// transaction holds the resource; that maps to ErrLockUnavailable so the
// caller can poll instead of failing the whole request.
func (r *mongoLockRepository) Acquire(ctx context.Context, resourceID, owner string, ttl time.Duration) error {
	now := time.Now().UTC()
	lock := &model.ResourceLock{
		ResourceID: resourceID,
		Owner:      owner,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingerrors.ErrLockUnavailable
		}
		return fmt.Errorf("failed to acquire resource lock: %w", err)
	}
	return nil
}

// Release deletes the lock only when still owned by the caller, so a holder
// whose lock expired and was re-acquired cannot delete the new owner's lock.
func (r *mongoLockRepository) Release(ctx context.Context, resourceID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": resourceID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release resource lock: %w", err)
	}
	return nil
}
