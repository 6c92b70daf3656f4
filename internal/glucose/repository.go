package glucose

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("reading not found")

type Repository interface {
	// List returns the user's readings newest first.
	List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Reading, error)
	Get(ctx context.Context, id uuid.UUID) (Reading, error)
	Create(ctx context.Context, reading Reading) error
	Update(ctx context.Context, reading Reading) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (Stats, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	readings map[uuid.UUID]Reading
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed ...Reading) *InMemoryRepository {
	repo := &InMemoryRepository{readings: make(map[uuid.UUID]Reading, len(seed))}
	for _, r := range seed {
		repo.readings[r.ID] = r
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, userID uuid.UUID, filter Filter) ([]Reading, error) {
	r.mu.RLock()
	out := make([]Reading, 0)
	for _, reading := range r.readings {
		if reading.UserID == userID && filter.matches(reading) {
			out = append(out, reading)
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Reading) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reading, ok := r.readings[id]
	if !ok {
		return Reading{}, ErrNotFound
	}
	return reading, nil
}

func (r *InMemoryRepository) Create(_ context.Context, reading Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readings[reading.ID] = reading
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, reading Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.readings[reading.ID]; !ok {
		return ErrNotFound
	}
	r.readings[reading.ID] = reading
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.readings[id]; !ok {
		return ErrNotFound
	}
	delete(r.readings, id)
	return nil
}

func (r *InMemoryRepository) Stats(_ context.Context, userID uuid.UUID) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		stats Stats
		sum   float64
	)
	for _, reading := range r.readings {
		if reading.UserID != userID {
			continue
		}
		if stats.TotalReadings == 0 || reading.Value < stats.Minimum {
			stats.Minimum = reading.Value
		}
		if stats.TotalReadings == 0 || reading.Value > stats.Maximum {
			stats.Maximum = reading.Value
		}
		sum += reading.Value
		stats.TotalReadings++
	}
	if stats.TotalReadings > 0 {
		stats.Average = sum / float64(stats.TotalReadings)
	}
	return stats, nil
}
