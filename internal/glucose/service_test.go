package glucose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
)

type brokenRepo struct {
	Repository
}

func (brokenRepo) List(context.Context, uuid.UUID, Filter) ([]Reading, error) {
	return nil, errors.New("db down")
}

func (brokenRepo) Stats(context.Context, uuid.UUID) (Stats, error) {
	return Stats{}, errors.New("db down")
}

func newTestService(seed ...Reading) *Service {
	svc := NewService(NewInMemoryRepository(seed...), logging.Nop())
	svc.now = func() time.Time { return base }
	return svc
}

func TestService_CreateDefaults(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	r, err := svc.Create(context.Background(), userID, CreateInput{Value: 95})
	require.NoError(t, err)
	assert.Equal(t, Other, r.MomentOfDay)
	assert.Equal(t, base, r.Timestamp)
	assert.Equal(t, base, r.CreatedAt)
	assert.Equal(t, userID, r.UserID)
}

func TestService_ValueBounds(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()
	ctx := context.Background()

	for _, v := range []float64{20, 600, 115.5} {
		_, err := svc.Create(ctx, userID, CreateInput{Value: v})
		assert.NoError(t, err, v)
	}
	for _, v := range []float64{19.9, 600.1, 0, -5} {
		_, err := svc.Create(ctx, userID, CreateInput{Value: v})
		assert.ErrorIs(t, err, ErrInvalidValue, v)
	}
}

func TestService_Ownership(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	r := reading(owner, 100, base, Other)
	svc := newTestService(r)
	ctx := context.Background()

	_, err := svc.Get(ctx, other, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, other, r.ID, UpdateInput{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other, r.ID), ErrForbidden)

	_, err = svc.Get(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrReadingNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner, uuid.New()), ErrReadingNotFound)

	got, err := svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
}

func TestService_PartialUpdate(t *testing.T) {
	owner := uuid.New()
	notes := "fasting"
	r := reading(owner, 100, base, BeforeBreakfast)
	r.Notes = &notes
	svc := newTestService(r)
	ctx := context.Background()

	v := 130.0
	updated, err := svc.Update(ctx, owner, r.ID, UpdateInput{Value: &v})
	require.NoError(t, err)
	assert.Equal(t, 130.0, updated.Value)
	assert.Equal(t, BeforeBreakfast, updated.MomentOfDay)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "fasting", *updated.Notes)

	bad := 700.0
	_, err = svc.Update(ctx, owner, r.ID, UpdateInput{Value: &bad})
	assert.ErrorIs(t, err, ErrInvalidValue)

	stored, err := svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, stored.Value)
}

func TestService_Delete(t *testing.T) {
	owner := uuid.New()
	r := reading(owner, 100, base, Other)
	svc := newTestService(r)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, owner, r.ID))
	_, err := svc.Get(ctx, owner, r.ID)
	assert.ErrorIs(t, err, ErrReadingNotFound)
}

func TestService_StoreFailures(t *testing.T) {
	svc := NewService(brokenRepo{}, logging.Nop())

	_, err := svc.List(context.Background(), uuid.New(), Filter{})
	assert.ErrorIs(t, err, ErrDatabase)
	_, err = svc.Stats(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDatabase)
}
