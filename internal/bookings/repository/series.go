package repository

import (
	"context"
	"errors"
	"fmt"
	bookingerrors "resbook/internal/bookings/errors"
	"resbook/pkg/config"
	mongotx "resbook/pkg/db/mongo"
	"resbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SeriesCollectionName = "Booking_series"
)

// SeriesRepository stores booking series records. Unbounded series are never
// materialized into instances, so conflict checks fetch them separately and
// expand on the fly.
type SeriesRepository interface {
	Create(ctx context.Context, series *model.BookingSeries) error
	FindByID(ctx context.Context, id string) (*model.BookingSeries, error)
	FindUnboundedByResource(ctx context.Context, resourceID string) ([]*model.BookingSeries, error)
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSeriesRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSeriesRepository(cfg *config.Config) SeriesRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSeriesRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(SeriesCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds a single repository call. Session contexts pass through
// untouched: wrapping a mongo.SessionContext detaches the call from its
// transaction, so transactional work keeps whatever deadline the session has.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSeriesRepository) Create(ctx context.Context, series *model.BookingSeries) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	series.CreatedAt = now
	series.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, series)
	if err != nil {
		return fmt.Errorf("failed to create booking series: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		series.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSeriesRepository) FindByID(ctx context.Context, id string) (*model.BookingSeries, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var series model.BookingSeries
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&series)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to find booking series: %w", err)
	}

	return &series, nil
}

// FindUnboundedByResource returns the series on a resource that repeat
// without a count or end date. Pointer fields are stored with omitempty, so
// absence of the bson keys is the unbounded marker.
func (r *mongoSeriesRepository) FindUnboundedByResource(ctx context.Context, resourceID string) ([]*model.BookingSeries, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"resource_id":           resourceID,
		"recurrence_rule":       bson.M{"$exists": true},
		"recurrence_rule.count": bson.M{"$exists": false},
		"recurrence_rule.until": bson.M{"$exists": false},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find unbounded series: %w", err)
	}
	defer cursor.Close(ctx)

	var series []*model.BookingSeries
	if err = cursor.All(ctx, &series); err != nil {
		return nil, fmt.Errorf("failed to decode unbounded series: %w", err)
	}

	return series, nil
}

func (r *mongoSeriesRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking series: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingerrors.ErrSeriesNotFound
	}

	return nil
}

func (r *mongoSeriesRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
