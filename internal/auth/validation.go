package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wichananm65/diabetapp-backend/internal/apperror"
	"github.com/wichananm65/diabetapp-backend/internal/user"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	minNameLength    = 2
	dateLayout       = "2006-01-02"
)

type RegisterRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	TypeOfDiabetes *string `json:"typeOfDiabetes"`
	BirthDate      *string `json:"birthDate"`
}

// RegisterInput is a validated, normalized registration.
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      *string
	LastName       *string
	TypeOfDiabetes *user.DiabetesType
	BirthDate      *time.Time
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string
	Password string
}

type fieldErrors []apperror.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperror.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.Validation("Invalid input data", f)
}

// Validate checks the request and returns the normalized input. now bounds birthDate.
func (r RegisterRequest) Validate(now time.Time) (RegisterInput, error) {
	var errs fieldErrors
	in := RegisterInput{Password: r.Password}

	in.Email = validateEmail(r.Email, &errs)
	validatePassword(r.Password, &errs)
	in.FirstName = validateName("firstName", "First name", r.FirstName, &errs)
	in.LastName = validateName("lastName", "Last name", r.LastName, &errs)

	if r.TypeOfDiabetes != nil {
		dt := user.DiabetesType(strings.TrimSpace(*r.TypeOfDiabetes))
		if dt.Valid() {
			in.TypeOfDiabetes = &dt
		} else {
			errs.add("typeOfDiabetes", fmt.Sprintf("Type of diabetes must be one of %v", user.DiabetesTypes))
		}
	}

	if r.BirthDate != nil {
		d, err := parseBirthDate(*r.BirthDate)
		switch {
		case err != nil:
			errs.add("birthDate", "Birth date must be an ISO date (YYYY-MM-DD) or datetime")
		case d.After(now):
			errs.add("birthDate", "Birth date cannot be in the future")
		default:
			in.BirthDate = &d
		}
	}

	if err := errs.err(); err != nil {
		return RegisterInput{}, err
	}
	return in, nil
}

func (r LoginRequest) Validate() (LoginInput, error) {
	var errs fieldErrors
	email := validateEmail(r.Email, &errs)
	if r.Password == "" {
		errs.add("password", "Password is required")
	}
	if err := errs.err(); err != nil {
		return LoginInput{}, err
	}
	return LoginInput{Email: email, Password: r.Password}, nil
}

func validateEmail(raw string, errs *fieldErrors) string {
	email := strings.TrimSpace(raw)
	if email == "" {
		errs.add("email", "Email is required")
		return ""
	}
	addr, err := mail.ParseAddress(email)
	// reject display-name forms like "Ana <ana@x.com>"
	if err != nil || addr.Address != email || !dottedDomain(email) {
		errs.add("email", "Email must be a valid address")
		return ""
	}
	return user.NormalizeEmail(email)
}

// dottedDomain rejects bare hosts such as "a@localhost".
func dottedDomain(email string) bool {
	domain := email[strings.LastIndexByte(email, '@')+1:]
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".")
}

func validatePassword(password string, errs *fieldErrors) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs.add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	}
	if len(password) > maxPasswordBytes {
		errs.add("password", fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case 'A' <= ch && ch <= 'Z':
			hasUpper = true
		case 'a' <= ch && ch <= 'z':
			hasLower = true
		case '0' <= ch && ch <= '9':
			hasDigit = true
		}
	}

	var missing []string
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}
	if len(missing) > 0 {
		errs.add("password", "Password must contain at least "+strings.Join(missing, ", "))
	}
}

func validateName(field, label string, raw *string, errs *fieldErrors) *string {
	if raw == nil {
		return nil
	}
	name := strings.TrimSpace(*raw)
	if utf8.RuneCountInString(name) < minNameLength {
		errs.add(field, fmt.Sprintf("%s must be at least %d characters", label, minNameLength))
		return nil
	}
	return &name
}

// parseBirthDate accepts a plain date or an RFC 3339 datetime and keeps only the UTC date.
func parseBirthDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(dateLayout, raw); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
