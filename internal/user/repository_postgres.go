package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wichananm65/diabetapp-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, email, password_hash, first_name, last_name, type_of_diabetes, birth_date,
		onboarding_completed, is_active, data_consent_at, created_at`

	insertUserQuery = `
		INSERT INTO users (id, email, password_hash, first_name, last_name, type_of_diabetes, birth_date,
			onboarding_completed, is_active, data_consent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	getUserByIDQuery        = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getActiveUserByIDQuery  = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`
	getUserByEmailQuery     = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	existsByEmailQuery      = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	setActiveQuery          = `UPDATE users SET is_active = $1 WHERE id = $2`
	completeOnboardingQuery = `UPDATE users SET onboarding_completed = TRUE WHERE id = $1`
)

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	var diabetes any
	if user.TypeOfDiabetes != nil {
		diabetes = string(*user.TypeOfDiabetes)
	}
	var birthDate any
	if user.BirthDate != nil {
		birthDate = *user.BirthDate
	}

	_, err := r.db.ExecContext(ctx, insertUserQuery,
		user.ID,
		user.Email,
		user.PasswordHash,
		nullableString(user.FirstName),
		nullableString(user.LastName),
		diabetes,
		birthDate,
		user.OnboardingCompleted,
		user.IsActive,
		user.DataConsentAt,
		user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (User, error) {
	return r.getOne(ctx, getActiveUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsByEmailQuery, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.execOne(ctx, setActiveQuery, active, id)
}

func (r *PostgresRepository) CompleteOnboarding(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, completeOnboardingQuery, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (User, error) {
	var (
		u         User
		firstName sql.NullString
		lastName  sql.NullString
		diabetes  sql.NullString
		birthDate sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&firstName,
		&lastName,
		&diabetes,
		&birthDate,
		&u.OnboardingCompleted,
		&u.IsActive,
		&u.DataConsentAt,
		&u.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}

	if firstName.Valid {
		u.FirstName = &firstName.String
	}
	if lastName.Valid {
		u.LastName = &lastName.String
	}
	if diabetes.Valid {
		t := DiabetesType(diabetes.String)
		u.TypeOfDiabetes = &t
	}
	if birthDate.Valid {
		d := birthDate.Time
		u.BirthDate = &d
	}
	return u, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
