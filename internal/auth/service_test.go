package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/diabetapp-backend/internal/apperror"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
	"github.com/wichananm65/diabetapp-backend/internal/password"
	"github.com/wichananm65/diabetapp-backend/internal/token"
	"github.com/wichananm65/diabetapp-backend/internal/user"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	repo    *user.InMemoryRepository
	hasher  *password.Hasher
	tokens  *token.Manager
	service *Service
}

func newFixture(t *testing.T, opts ...token.Option) fixture {
	t.Helper()
	hasher, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.NewManager(testSecret, opts...)
	require.NoError(t, err)
	repo := user.NewInMemoryRepository()
	return fixture{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		service: NewService(repo, hasher, tokens, logging.Nop()),
	}
}

func registerInput(email string) RegisterInput {
	return RegisterInput{Email: email, Password: "Abcdefg1"}
}

// failingRepo fails every call with err.
type failingRepo struct {
	user.Repository
	err error
}

func (f failingRepo) GetByEmail(context.Context, string) (user.User, error) { return user.User{}, f.err }
func (f failingRepo) ExistsByEmail(context.Context, string) (bool, error) { return false, f.err }
func (f failingRepo) GetActiveByID(context.Context, uuid.UUID) (user.User, error) {
	return user.User{}, f.err
}

// racingRepo reports the email as free, then loses the insert.
type racingRepo struct {
	*user.InMemoryRepository
}

func (racingRepo) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func TestRegister_CreatesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub, err := f.service.Register(ctx, registerInput("A@X.com"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", pub.Email)
	assert.False(t, pub.OnboardingCompleted)
	assert.True(t, pub.IsActive)

	stored, err := f.repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcdefg1", stored.PasswordHash)
	ok, err := f.hasher.Verify("Abcdefg1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_DuplicateIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	_, err = f.service.Register(ctx, registerInput("A@X.COM"))
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_StoreConstraintMapsToConflict(t *testing.T) {
	repo := user.NewInMemoryRepository(user.NewUser(user.NewUserParams{Email: "a@x.com", PasswordHash: "h"}, time.Now()))
	f := newFixture(t)
	svc := NewService(racingRepo{repo}, f.hasher, f.tokens, logging.Nop())

	_, err := svc.Register(context.Background(), registerInput("a@x.com"))
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Register(ctx, registerInput("race@x.com"))
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrUserAlreadyExists):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}

func TestRegister_StoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewService(failingRepo{err: errors.New("connection refused")}, f.hasher, f.tokens, logging.Nop())

	_, err := svc.Register(context.Background(), registerInput("a@x.com"))
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestCheckEmailAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	available, err := f.service.CheckEmailAvailability(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	available, err = f.service.CheckEmailAvailability(ctx, " A@x.com")
	require.NoError(t, err)
	assert.False(t, available)

	svc := NewService(failingRepo{err: errors.New("down")}, f.hasher, f.tokens, logging.Nop())
	_, err = svc.CheckEmailAvailability(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestLogin_IssuesTokenForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	res, err := f.service.Login(ctx, LoginInput{Email: "A@x.com", Password: "Abcdefg1"})
	require.NoError(t, err)
	assert.True(t, res.RequiresOnboarding)
	assert.Equal(t, pub.ID, res.User.ID)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, pub.ID.String(), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	_, wrongPassword := f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "Wrongpass1"})
	_, unknownEmail := f.service.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "Abcdefg1"})

	a, ok := apperror.As(wrongPassword)
	require.True(t, ok)
	b, ok := apperror.As(unknownEmail)
	require.True(t, ok)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, "INVALID_CREDENTIALS", a.Code)
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)
	require.NoError(t, f.repo.SetActive(ctx, pub.ID, false))

	_, err = f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "Abcdefg1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_MissingSecretIsConfigError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	var noSecret *token.Manager
	svc := NewService(f.repo, f.hasher, noSecret, logging.Nop())
	_, err = svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "Abcdefg1"})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLogin_StoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewService(failingRepo{err: errors.New("down")}, f.hasher, f.tokens, logging.Nop())

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Abcdefg1"})
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)
	res, err := f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "Abcdefg1"})
	require.NoError(t, err)

	got, err := f.service.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.User.ID)
	assert.Equal(t, pub.ID.String(), got.Claims.UserID)
	assert.Equal(t, "a@x.com", got.Claims.Email)
}

func TestVerifyToken_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	f := newFixture(t, token.WithClock(func() time.Time { return issuedAt }))
	ctx := context.Background()
	pub, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	raw, _, err := f.tokens.Issue(pub.ID.String(), pub.Email)
	require.NoError(t, err)

	verifier, err := token.NewManager(testSecret)
	require.NoError(t, err)
	svc := NewService(f.repo, f.hasher, verifier, logging.Nop())

	_, err = svc.VerifyToken(ctx, raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.VerifyToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := token.NewManager([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	raw, _, err := other.Issue(uuid.NewString(), "a@x.com")
	require.NoError(t, err)
	_, err = f.service.VerifyToken(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_DeactivatedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)
	res, err := f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "Abcdefg1"})
	require.NoError(t, err)

	require.NoError(t, f.repo.SetActive(ctx, pub.ID, false))

	_, err = f.service.VerifyToken(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyToken_NonUUIDSubject(t *testing.T) {
	f := newFixture(t)
	raw, _, err := f.tokens.Issue("42", "a@x.com")
	require.NoError(t, err)

	_, err = f.service.VerifyToken(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_StoreFailure(t *testing.T) {
	f := newFixture(t)
	raw, _, err := f.tokens.Issue(uuid.NewString(), "a@x.com")
	require.NoError(t, err)

	svc := NewService(failingRepo{err: errors.New("down")}, f.hasher, f.tokens, logging.Nop())
	_, err = svc.VerifyToken(context.Background(), raw)
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestCompleteOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub, err := f.service.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	got, err := f.service.CompleteOnboarding(ctx, pub.ID)
	require.NoError(t, err)
	assert.True(t, got.OnboardingCompleted)

	res, err := f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "Abcdefg1"})
	require.NoError(t, err)
	assert.False(t, res.RequiresOnboarding)

	_, err = f.service.CompleteOnboarding(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
