package user

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

// Repository is the credential store. Lookups by email expect a normalized address.
type Repository interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	// GetActiveByID only returns users with IsActive set.
	GetActiveByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	CompleteOnboarding(ctx context.Context, id uuid.UUID) error
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]User
	byEmail map[string]uuid.UUID
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed ...User) *InMemoryRepository {
	repo := &InMemoryRepository{
		byID:    make(map[uuid.UUID]User, len(seed)),
		byEmail: make(map[string]uuid.UUID, len(seed)),
	}
	for _, u := range seed {
		repo.byID[u.ID] = u
		repo.byEmail[u.Email] = u.ID
	}
	return repo
}

func (r *InMemoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return ErrEmailExists
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !u.IsActive {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *InMemoryRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	r.byID[id] = u
	return nil
}

func (r *InMemoryRepository) CompleteOnboarding(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.OnboardingCompleted = true
	r.byID[id] = u
	return nil
}
