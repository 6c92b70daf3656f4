package glucose

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/diabetapp-backend/internal/apperror"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
)

var (
	ErrReadingNotFound = apperror.New(apperror.KindNotFound, "READING_NOT_FOUND", "Glucose reading not found")
	ErrForbidden       = apperror.New(apperror.KindAuthorization, "FORBIDDEN", "You do not have access to this reading")
	ErrInvalidValue    = apperror.New(apperror.KindValidation, "INVALID_GLUCOSE_VALUE", "Glucose value must be between 20 and 600 mg/dL")
	ErrDatabase        = apperror.New(apperror.KindPersistence, "DB_ERROR", "Database error, please try again")
)

type CreateInput struct {
	Value       float64
	Timestamp   time.Time
	MomentOfDay MomentOfDay
	Notes       *string
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Value       *float64
	Timestamp   *time.Time
	MomentOfDay *MomentOfDay
	Notes       *string
}

type Service struct {
	repo Repository
	log  logging.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log.With("component", "glucose"), now: time.Now}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Reading, error) {
	readings, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}
	return readings, nil
}

// Get returns a reading owned by userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (Reading, error) {
	reading, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reading{}, ErrReadingNotFound
		}
		return Reading{}, ErrDatabase.Wrap(err)
	}
	if reading.UserID != userID {
		return Reading{}, ErrForbidden
	}
	return reading, nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (Reading, error) {
	if !validValue(in.Value) {
		return Reading{}, ErrInvalidValue
	}

	now := s.now().UTC()
	reading := Reading{
		ID:          uuid.New(),
		UserID:      userID,
		Value:       in.Value,
		Timestamp:   in.Timestamp,
		MomentOfDay: in.MomentOfDay,
		Notes:       in.Notes,
		CreatedAt:   now,
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = now
	}
	if reading.MomentOfDay == "" {
		reading.MomentOfDay = Other
	}

	if err := s.repo.Create(ctx, reading); err != nil {
		return Reading{}, ErrDatabase.Wrap(err)
	}
	s.log.Debug(ctx, "reading created", "user_id", userID, "reading_id", reading.ID)
	return reading, nil
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (Reading, error) {
	reading, err := s.Get(ctx, userID, id)
	if err != nil {
		return Reading{}, err
	}

	if in.Value != nil {
		if !validValue(*in.Value) {
			return Reading{}, ErrInvalidValue
		}
		reading.Value = *in.Value
	}
	if in.Timestamp != nil {
		reading.Timestamp = *in.Timestamp
	}
	if in.MomentOfDay != nil {
		reading.MomentOfDay = *in.MomentOfDay
	}
	if in.Notes != nil {
		reading.Notes = in.Notes
	}

	if err := s.repo.Update(ctx, reading); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reading{}, ErrReadingNotFound
		}
		return Reading{}, ErrDatabase.Wrap(err)
	}
	return reading, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrReadingNotFound
		}
		return ErrDatabase.Wrap(err)
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	stats, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return Stats{}, ErrDatabase.Wrap(err)
	}
	return stats, nil
}
