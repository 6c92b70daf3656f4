package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type DiabetesType string

const (
	Type1       DiabetesType = "TYPE_1"
	Type2       DiabetesType = "TYPE_2"
	Gestational DiabetesType = "GESTATIONAL"
	Prediabetes DiabetesType = "PREDIABETES"
)

var DiabetesTypes = []DiabetesType{Type1, Type2, Gestational, Prediabetes}

func (t DiabetesType) Valid() bool {
	for _, v := range DiabetesTypes {
		if t == v {
			return true
		}
	}
	return false
}

// User is the stored account record. PasswordHash never leaves the store
// layer in a response; use Public for anything client-facing.
type User struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        string
	FirstName           *string
	LastName            *string
	TypeOfDiabetes      *DiabetesType
	BirthDate           *time.Time
	OnboardingCompleted bool
	IsActive            bool
	DataConsentAt       time.Time
	CreatedAt           time.Time
}

// PublicUser is the projection of User sent to clients.
type PublicUser struct {
	ID                  uuid.UUID     `json:"id"`
	Email               string        `json:"email"`
	FirstName           *string       `json:"firstName,omitempty"`
	LastName            *string       `json:"lastName,omitempty"`
	TypeOfDiabetes      *DiabetesType `json:"typeOfDiabetes,omitempty"`
	BirthDate           *string       `json:"birthDate,omitempty"`
	OnboardingCompleted bool          `json:"onboardingCompleted"`
	IsActive            bool          `json:"isActive"`
	DataConsentAt       time.Time     `json:"dataConsentAt"`
	CreatedAt           time.Time     `json:"createdAt"`
}

const birthDateLayout = "2006-01-02"

func (u User) Public() PublicUser {
	p := PublicUser{
		ID:                  u.ID,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		TypeOfDiabetes:      u.TypeOfDiabetes,
		OnboardingCompleted: u.OnboardingCompleted,
		IsActive:            u.IsActive,
		DataConsentAt:       u.DataConsentAt,
		CreatedAt:           u.CreatedAt,
	}
	if u.BirthDate != nil {
		s := u.BirthDate.Format(birthDateLayout)
		p.BirthDate = &s
	}
	return p
}

// NewUserParams lists exactly what a caller may set on a new account.
type NewUserParams struct {
	Email          string
	PasswordHash   string
	FirstName      *string
	LastName       *string
	TypeOfDiabetes *DiabetesType
	BirthDate      *time.Time
}

// NewUser builds a fresh account: new id, normalized email, onboarding pending,
// active, consent and creation stamped with now.
func NewUser(p NewUserParams, now time.Time) User {
	now = now.UTC()
	return User{
		ID:                  uuid.New(),
		Email:               NormalizeEmail(p.Email),
		PasswordHash:        p.PasswordHash,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		TypeOfDiabetes:      p.TypeOfDiabetes,
		BirthDate:           p.BirthDate,
		OnboardingCompleted: false,
		IsActive:            true,
		DataConsentAt:       now,
		CreatedAt:           now,
	}
}

var lower = cases.Lower(language.Und)

// NormalizeEmail trims and lower-cases an address. All store lookups go through it.
func NormalizeEmail(email string) string {
	return lower.String(strings.TrimSpace(email))
}
