// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the production work factor. It is above bcrypt.DefaultCost
// because the accounts hold health data.
const DefaultCost = 12

// ErrHashing means the bcrypt primitive itself failed (malformed stored hash,
// oversized input, entropy failure). It never means "wrong password".
var ErrHashing = errors.New("password hashing failed")

type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
	dummyErr  error
}

func New(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hashed), nil
}

// Verify compares plain against a stored hash in constant time.
func (h *Hasher) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrHashing, err)
	}
}

// VerifyDummy burns the same CPU as Verify against a real hash. Login calls it
// for unknown emails so response time does not reveal whether an account exists.
func (h *Hasher) VerifyDummy(plain string) {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), h.cost)
	})
	if h.dummyErr != nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
