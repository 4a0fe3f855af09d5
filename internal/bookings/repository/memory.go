package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingerrors "resbook/internal/bookings/errors"
	mongotx "resbook/pkg/db/mongo"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/interval"
	"resbook/pkg/model"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the booking repositories
// with transactional semantics: ExecuteTransaction serializes writers and
// rolls series and instance state back when the function fails. Tests and
// local runs use it in place of Mongo. Advisory locks sit outside the
// rollback, matching the Mongo layout where the lock collection is not part
// of the session.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	series    map[string]*model.BookingSeries
	instances map[string]*model.BookingInstance
	locks     map[string]model.ResourceLock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series:    make(map[string]*model.BookingSeries),
		instances: make(map[string]*model.BookingInstance),
		locks:     make(map[string]model.ResourceLock),
	}
}

// Series returns the store's SeriesRepository facet.
func (s *MemoryStore) Series() SeriesRepository {
	return &memorySeriesRepo{store: s}
}

// Instances returns the store's InstanceRepository facet.
func (s *MemoryStore) Instances() InstanceRepository {
	return &memoryInstanceRepo{store: s}
}

// Locks returns the store's LockRepository facet.
func (s *MemoryStore) Locks() LockRepository {
	return &memoryLockRepo{store: s}
}

// ExecuteTransaction runs fn with all-or-nothing semantics. Concurrent
// transactions execute one at a time.
func (s *MemoryStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	seriesSnap := make(map[string]*model.BookingSeries, len(s.series))
	for id, sr := range s.series {
		seriesSnap[id] = sr
	}
	instanceSnap := make(map[string]*model.BookingInstance, len(s.instances))
	for id, inst := range s.instances {
		instanceSnap[id] = inst
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.series = seriesSnap
		s.instances = instanceSnap
		s.mu.Unlock()

		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

type memorySeriesRepo struct {
	store *MemoryStore
}

func (r *memorySeriesRepo) Create(ctx context.Context, series *model.BookingSeries) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Millisecond)
	series.ID = uuid.NewString()
	series.CreatedAt = now
	series.UpdatedAt = now

	r.store.series[series.ID] = cloneSeries(series)
	return nil
}

func (r *memorySeriesRepo) FindByID(ctx context.Context, id string) (*model.BookingSeries, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	series, ok := r.store.series[id]
	if !ok {
		return nil, bookingerrors.ErrSeriesNotFound
	}
	return cloneSeries(series), nil
}

func (r *memorySeriesRepo) FindUnboundedByResource(ctx context.Context, resourceID string) ([]*model.BookingSeries, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*model.BookingSeries
	for _, series := range r.store.series {
		if series.ResourceID == resourceID && series.IsUnbounded() {
			out = append(out, cloneSeries(series))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memorySeriesRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.series[id]; !ok {
		return bookingerrors.ErrSeriesNotFound
	}
	delete(r.store.series, id)
	return nil
}

func (r *memorySeriesRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}

type memoryInstanceRepo struct {
	store *MemoryStore
}

func (r *memoryInstanceRepo) CreateMany(ctx context.Context, instances []*model.BookingInstance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, inst := range instances {
		inst.ID = uuid.NewString()
		inst.CreatedAt = now
		inst.UpdatedAt = now
		copied := *inst
		r.store.instances[inst.ID] = &copied
	}
	return nil
}

func (r *memoryInstanceRepo) CreateException(ctx context.Context, instance *model.BookingInstance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Millisecond)
	instance.ID = uuid.NewString()
	instance.IsException = true
	instance.CreatedAt = now
	instance.UpdatedAt = now

	copied := *instance
	r.store.instances[instance.ID] = &copied
	return nil
}

func (r *memoryInstanceRepo) FindByID(ctx context.Context, id string) (*model.BookingInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	inst, ok := r.store.instances[id]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	copied := *inst
	return &copied, nil
}

func (r *memoryInstanceRepo) FindOverlapping(ctx context.Context, resourceID string, span interval.Span) ([]*model.BookingInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*model.BookingInstance
	for _, inst := range r.store.instances {
		if inst.ResourceID != resourceID || inst.IsException {
			continue
		}
		if interval.New(inst.StartTime, inst.EndTime).Overlaps(span) {
			copied := *inst
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memoryInstanceRepo) FindBySeries(ctx context.Context, seriesID string) ([]*model.BookingInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*model.BookingInstance
	for _, inst := range r.store.instances {
		if inst.SeriesID == seriesID {
			copied := *inst
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memoryInstanceRepo) FindExceptionStarts(ctx context.Context, seriesID string) ([]time.Time, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var starts []time.Time
	for _, inst := range r.store.instances {
		if inst.SeriesID == seriesID && inst.IsException {
			starts = append(starts, inst.StartTime)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts, nil
}

func (r *memoryInstanceRepo) MarkException(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	inst, ok := r.store.instances[id]
	if !ok || inst.IsException {
		return bookingerrors.ErrNotFound
	}

	copied := *inst
	copied.IsException = true
	copied.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.store.instances[id] = &copied
	return nil
}

func (r *memoryInstanceRepo) DeleteBySeries(ctx context.Context, seriesID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for id, inst := range r.store.instances {
		if inst.SeriesID == seriesID {
			delete(r.store.instances, id)
			deleted++
		}
	}
	return deleted, nil
}

type memoryLockRepo struct {
	store *MemoryStore
}

func (r *memoryLockRepo) Acquire(ctx context.Context, resourceID, owner string, ttl time.Duration) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if lock, ok := r.store.locks[resourceID]; ok {
		if now.Before(lock.ExpiresAt) && lock.Owner != owner {
			return bookingerrors.ErrLockUnavailable
		}
	}

	r.store.locks[resourceID] = model.ResourceLock{
		ResourceID: resourceID,
		Owner:      owner,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	return nil
}

func (r *memoryLockRepo) Release(ctx context.Context, resourceID, owner string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if lock, ok := r.store.locks[resourceID]; ok && lock.Owner == owner {
		delete(r.store.locks, resourceID)
	}
	return nil
}

func cloneSeries(s *model.BookingSeries) *model.BookingSeries {
	copied := *s
	if s.Recurrence != nil {
		rule := *s.Recurrence
		if s.Recurrence.Count != nil {
			count := *s.Recurrence.Count
			rule.Count = &count
		}
		if s.Recurrence.Until != nil {
			until := *s.Recurrence.Until
			rule.Until = &until
		}
		copied.Recurrence = &rule
	}
	return &copied
}
