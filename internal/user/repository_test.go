package user

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(email string) User {
	return NewUser(NewUserParams{Email: email, PasswordHash: "hash"}, time.Now())
}

func TestInMemoryRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	u := newTestUser("ana@example.com")

	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	exists, err := repo.ExistsByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository(newTestUser("ana@example.com"))

	err := repo.Create(ctx, newTestUser("ana@example.com"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestInMemoryRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SetActive(ctx, uuid.New(), false), ErrNotFound)
	assert.ErrorIs(t, repo.CompleteOnboarding(ctx, uuid.New()), ErrNotFound)
}

func TestInMemoryRepository_ActiveFlag(t *testing.T) {
	ctx := context.Background()
	u := newTestUser("ana@example.com")
	repo := NewInMemoryRepository(u)

	_, err := repo.GetActiveByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, u.ID, false))
	_, err = repo.GetActiveByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// still visible to plain lookups
	_, err = repo.GetByID(ctx, u.ID)
	assert.NoError(t, err)
}

func TestInMemoryRepository_CompleteOnboarding(t *testing.T) {
	ctx := context.Background()
	u := newTestUser("ana@example.com")
	repo := NewInMemoryRepository(u)

	require.NoError(t, repo.CompleteOnboarding(ctx, u.ID))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.OnboardingCompleted)
}

func TestInMemoryRepository_ConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	const workers = 16
	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, newTestUser("race@example.com"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrEmailExists):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}
