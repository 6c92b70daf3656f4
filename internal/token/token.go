// Package token issues and verifies the HS256 bearer tokens handed out at login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// MinSecretLength is the minimum signing secret size in bytes.
	MinSecretLength = 32
	DefaultTTL      = time.Hour
)

var (
	ErrSecretMissing    = errors.New("token signing secret not configured")
	ErrSecretTooShort   = fmt.Errorf("token signing secret must be at least %d bytes", MinSecretLength)
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// Claims is the payload embedded in every token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns exp as a time, zero when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(secret []byte, opts ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	m := &Manager{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue mints a token for the user, valid for the manager TTL from now.
func (m *Manager) Issue(userID, email string) (string, *Claims, error) {
	if m == nil || len(m.secret) == 0 {
		return "", nil, ErrSecretMissing
	}

	now := m.clock()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature first, then expiry. A genuine token past its exp
// is always ErrExpired; anything forged, corrupted or malformed is ErrInvalidSignature.
func (m *Manager) Verify(raw string) (*Claims, error) {
	if m == nil || len(m.secret) == 0 {
		return nil, ErrSecretMissing
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, m.Keyfunc)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.ExpiresAt == nil || !m.clock().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	return claims, nil
}

// Keyfunc hands out the signing secret for HS256 tokens only.
func (m *Manager) Keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return m.secret, nil
}

// Secret returns a copy of the signing key.
func (m *Manager) Secret() []byte {
	if m == nil {
		return nil
	}
	return append([]byte(nil), m.secret...)
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
