// Package auth implements registration, login, token verification and the
// request gate that protects every non-public route.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/diabetapp-backend/internal/apperror"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
	"github.com/wichananm65/diabetapp-backend/internal/token"
	"github.com/wichananm65/diabetapp-backend/internal/user"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
	VerifyDummy(plain string)
}

type TokenManager interface {
	Issue(userID, email string) (string, *token.Claims, error)
	Verify(raw string) (*token.Claims, error)
}

type Service struct {
	users  user.Repository
	hasher PasswordHasher
	tokens TokenManager
	log    logging.Logger
	now    func() time.Time
}

type LoginResult struct {
	User               user.PublicUser
	Token              string
	Claims             *token.Claims
	RequiresOnboarding bool
}

type VerifyResult struct {
	User   user.PublicUser
	Claims *token.Claims
}

func NewService(users user.Repository, hasher PasswordHasher, tokens TokenManager, log logging.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log.With("component", "auth"),
		now:    time.Now,
	}
}

// Register creates an account. The store's unique email constraint decides
// concurrent registrations; the loser gets ErrUserAlreadyExists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.PublicUser, error) {
	email := user.NormalizeEmail(in.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return user.PublicUser{}, ErrUserAlreadyExists
	case !errors.Is(err, user.ErrNotFound):
		return user.PublicUser{}, ErrDatabase.Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return user.PublicUser{}, apperror.Internal.Wrap(err)
	}

	u := user.NewUser(user.NewUserParams{
		Email:          email,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		TypeOfDiabetes: in.TypeOfDiabetes,
		BirthDate:      in.BirthDate,
	}, s.now())

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return user.PublicUser{}, ErrUserAlreadyExists
		}
		return user.PublicUser{}, ErrDatabase.Wrap(err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u.Public(), nil
}

// CheckEmailAvailability reports whether no account uses email. Read-only.
func (s *Service) CheckEmailAvailability(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.ExistsByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return false, ErrDatabase.Wrap(err)
	}
	return !exists, nil
}

// Login checks credentials and issues a token. Unknown email, wrong password
// and a deactivated account all fail with the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.VerifyDummy(in.Password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, ErrDatabase.Wrap(err)
	}

	ok, err := s.hasher.Verify(in.Password, u.PasswordHash)
	if err != nil {
		return LoginResult{}, apperror.Internal.Wrap(err)
	}
	if !ok || !u.IsActive {
		return LoginResult{}, ErrInvalidCredentials
	}

	signed, claims, err := s.tokens.Issue(u.ID.String(), u.Email)
	if err != nil {
		if errors.Is(err, token.ErrSecretMissing) {
			return LoginResult{}, ErrConfiguration.Wrap(err)
		}
		return LoginResult{}, apperror.Internal.Wrap(err)
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return LoginResult{
		User:               u.Public(),
		Token:              signed,
		Claims:             claims,
		RequiresOnboarding: !u.OnboardingCompleted,
	}, nil
}

// VerifyToken resolves a raw token to its active user.
func (s *Service) VerifyToken(ctx context.Context, raw string) (VerifyResult, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return VerifyResult{}, ErrTokenExpired
		case errors.Is(err, token.ErrSecretMissing):
			return VerifyResult{}, ErrConfiguration.Wrap(err)
		default:
			return VerifyResult{}, ErrInvalidToken.Wrap(err)
		}
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return VerifyResult{}, ErrInvalidToken.Wrap(err)
	}

	u, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return VerifyResult{}, ErrUserNotFound
		}
		return VerifyResult{}, ErrDatabase.Wrap(err)
	}
	return VerifyResult{User: u.Public(), Claims: claims}, nil
}

// CompleteOnboarding marks the user's profile setup as done.
func (s *Service) CompleteOnboarding(ctx context.Context, id uuid.UUID) (user.PublicUser, error) {
	if err := s.users.CompleteOnboarding(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicUser{}, ErrUserNotFound
		}
		return user.PublicUser{}, ErrDatabase.Wrap(err)
	}
	u, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicUser{}, ErrUserNotFound
		}
		return user.PublicUser{}, ErrDatabase.Wrap(err)
	}
	return u.Public(), nil
}

// Profile returns the active user behind an authenticated request.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (user.PublicUser, error) {
	u, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicUser{}, ErrUserNotFound
		}
		return user.PublicUser{}, ErrDatabase.Wrap(err)
	}
	return u.Public(), nil
}
