package repository

import (
	"context"
	"errors"
	"fmt"
	bookingerrors "resbook/internal/bookings/errors"
	"resbook/pkg/config"
	"resbook/pkg/interval"
	"resbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	InstanceCollectionName = "Booking_instances"
)

// InstanceRepository stores materialized occurrences. Single bookings and
// finite series have one row per occurrence; unbounded series only ever get
// exception rows here, written when one of their occurrences is cancelled.
type InstanceRepository interface {
	CreateMany(ctx context.Context, instances []*model.BookingInstance) error
	CreateException(ctx context.Context, instance *model.BookingInstance) error
	FindByID(ctx context.Context, id string) (*model.BookingInstance, error)
	FindOverlapping(ctx context.Context, resourceID string, span interval.Span) ([]*model.BookingInstance, error)
	FindBySeries(ctx context.Context, seriesID string) ([]*model.BookingInstance, error)
	FindExceptionStarts(ctx context.Context, seriesID string) ([]time.Time, error)
	MarkException(ctx context.Context, id string) error
	DeleteBySeries(ctx context.Context, seriesID string) (int64, error)
}

type mongoInstanceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInstanceRepository(cfg *config.Config) InstanceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInstanceRepository{
		cfg:        cfg,
		collection: db.Collection(InstanceCollectionName),
	}
}

func (r *mongoInstanceRepository) CreateMany(ctx context.Context, instances []*model.BookingInstance) error {
	if len(instances) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(instances))
	for _, inst := range instances {
		inst.CreatedAt = now
		inst.UpdatedAt = now
		docs = append(docs, inst)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		// The unique span index fires when an identical booking won the
		// slot between the conflict check and this insert.
		if mongo.IsDuplicateKeyError(err) {
			return bookingerrors.ErrExclusionViolation
		}
		return fmt.Errorf("failed to create booking instances: %w", err)
	}

	for i, raw := range result.InsertedIDs {
		if oid, ok := raw.(primitive.ObjectID); ok && i < len(instances) {
			instances[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoInstanceRepository) CreateException(ctx context.Context, instance *model.BookingInstance) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	instance.IsException = true
	now := time.Now().UTC().Truncate(time.Millisecond)
	instance.CreatedAt = now
	instance.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, instance)
	if err != nil {
		return fmt.Errorf("failed to create exception instance: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		instance.ID = oid.Hex()
	}
	return nil
}

func (r *mongoInstanceRepository) FindByID(ctx context.Context, id string) (*model.BookingInstance, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var instance model.BookingInstance
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&instance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking instance: %w", err)
	}

	return &instance, nil
}

// FindOverlapping returns active instances on a resource whose half-open
// span intersects the given one. Exception rows never block time and are
// excluded here.
func (r *mongoInstanceRepository) FindOverlapping(ctx context.Context, resourceID string, span interval.Span) ([]*model.BookingInstance, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"resource_id":  resourceID,
		"is_exception": false,
		"start_time":   bson.M{"$lt": span.End},
		"end_time":     bson.M{"$gt": span.Start},
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping instances: %w", err)
	}
	defer cursor.Close(ctx)

	var instances []*model.BookingInstance
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping instances: %w", err)
	}

	return instances, nil
}

func (r *mongoInstanceRepository) FindBySeries(ctx context.Context, seriesID string) ([]*model.BookingInstance, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"series_id": seriesID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find series instances: %w", err)
	}
	defer cursor.Close(ctx)

	var instances []*model.BookingInstance
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, fmt.Errorf("failed to decode series instances: %w", err)
	}

	return instances, nil
}

// FindExceptionStarts returns the template start times already cancelled on
// a series, the set subtracted from every expansion.
func (r *mongoInstanceRepository) FindExceptionStarts(ctx context.Context, seriesID string) ([]time.Time, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"series_id":    seriesID,
		"is_exception": true,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find exception instances: %w", err)
	}
	defer cursor.Close(ctx)

	var instances []*model.BookingInstance
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, fmt.Errorf("failed to decode exception instances: %w", err)
	}

	starts := make([]time.Time, 0, len(instances))
	for _, inst := range instances {
		starts = append(starts, inst.StartTime)
	}
	return starts, nil
}

// MarkException flips an active instance into a cancellation tombstone.
// Flipping an instance that is already an exception matches nothing and
// reports ErrNotFound; callers decide whether that is an error.
func (r *mongoInstanceRepository) MarkException(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "is_exception": false}
	update := bson.M{
		"$set": bson.M{
			"is_exception": true,
			"updated_at":   time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark exception: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingerrors.ErrNotFound
	}
	return nil
}

func (r *mongoInstanceRepository) DeleteBySeries(ctx context.Context, seriesID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"series_id": seriesID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete series instances: %w", err)
	}
	return result.DeletedCount, nil
}
