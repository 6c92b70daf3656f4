package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
	"github.com/wichananm65/diabetapp-backend/internal/token"
)

const (
	bearerPrefix = "Bearer "
	jwtLocalsKey = "jwt"
	identityKey  = "identity"
)

// Identity is the authenticated caller attached to a request by Middleware.
type Identity struct {
	ID    uuid.UUID
	Email string
}

type identityCtxKey struct{}

func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityKey).(Identity)
	return id, ok
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

func withIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(identityKey, id)
	c.SetUserContext(context.WithValue(c.UserContext(), identityCtxKey{}, id))
}

// Middleware gates a route on a valid bearer token. Header and configuration
// checks run first; signature and expiry are checked by jwtware using the same
// claims type the token manager issues. Expiry here uses the wall clock, not
// a clock injected into the manager with token.WithClock.
func Middleware(tokens *token.Manager, log logging.Logger) fiber.Handler {
	var verify fiber.Handler
	if secret := tokens.Secret(); len(secret) > 0 {
		verify = jwtware.New(jwtware.Config{
			SigningKey:     secret,
			SigningMethod:  jwt.SigningMethodHS256.Alg(),
			ContextKey:     jwtLocalsKey,
			Claims:         &token.Claims{},
			ErrorHandler:   rejectToken,
			SuccessHandler: attachIdentity,
		})
	}

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return ErrAccessTokenRequired
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			return ErrInvalidTokenFormat
		}
		if verify == nil {
			log.Error(c.UserContext(), "token signing secret is not configured", "path", c.Path())
			return ErrServerConfiguration
		}
		return verify(c)
	}
}

// rejectToken reports expiry only for tokens whose sole defect is expiry, so a
// forged token that is also expired is still INVALID_TOKEN.
func rejectToken(_ *fiber.Ctx, err error) error {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) && ve.Errors == jwt.ValidationErrorExpired {
		return ErrTokenExpired
	}
	return ErrInvalidToken.Wrap(err)
}

func attachIdentity(c *fiber.Ctx) error {
	tok, ok := c.Locals(jwtLocalsKey).(*jwt.Token)
	if !ok {
		return ErrInvalidToken
	}
	claims, ok := tok.Claims.(*token.Claims)
	if !ok {
		return ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return ErrTokenExpired
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ErrInvalidToken.Wrap(err)
	}

	withIdentity(c, Identity{ID: id, Email: claims.Email})
	return c.Next()
}
