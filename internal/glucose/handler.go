package glucose

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/diabetapp-backend/internal/apperror"
	"github.com/wichananm65/diabetapp-backend/internal/auth"
	"github.com/wichananm65/diabetapp-backend/internal/httpx"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	maxNotesLength   = 500
)

var ErrInvalidID = apperror.New(apperror.KindValidation, "INVALID_ID", "Reading id must be a UUID")

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type readingRequest struct {
	Value       *float64 `json:"value"`
	Timestamp   *string  `json:"timestamp"`
	MomentOfDay *string  `json:"momentOfDay"`
	Notes       *string  `json:"notes"`
}

// RegisterProtectedRoutes mounts the reading endpoints. router must already be gated.
func (h *Handler) RegisterProtectedRoutes(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/stats", h.stats)
	router.Get("/:id", h.get)
	router.Post("/", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *Handler) list(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.ErrAccessTokenRequired
	}
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	readings, err := h.service.List(c.UserContext(), caller.ID, filter)
	if err != nil {
		return err
	}
	return httpx.List(c, readings)
}

func (h *Handler) stats(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.ErrAccessTokenRequired
	}
	stats, err := h.service.Stats(c.UserContext(), caller.ID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", stats)
}

func (h *Handler) get(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.ErrAccessTokenRequired
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID
	}

	reading, err := h.service.Get(c.UserContext(), caller.ID, id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", reading)
}

func (h *Handler) create(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.ErrAccessTokenRequired
	}
	var req readingRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	if req.Value == nil {
		return apperror.Validation("Invalid input data", []apperror.FieldError{{Field: "value", Message: "Value is required"}})
	}
	upd, err := req.validate()
	if err != nil {
		return err
	}

	in := CreateInput{Value: *upd.Value, Notes: upd.Notes}
	if upd.Timestamp != nil {
		in.Timestamp = *upd.Timestamp
	}
	if upd.MomentOfDay != nil {
		in.MomentOfDay = *upd.MomentOfDay
	}

	reading, err := h.service.Create(c.UserContext(), caller.ID, in)
	if err != nil {
		return err
	}
	return httpx.Created(c, "Glucose reading created", reading)
}

func (h *Handler) update(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.ErrAccessTokenRequired
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID
	}
	var req readingRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	in, err := req.validate()
	if err != nil {
		return err
	}

	reading, err := h.service.Update(c.UserContext(), caller.ID, id, in)
	if err != nil {
		return err
	}
	return httpx.OK(c, "Glucose reading updated", reading)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.ErrAccessTokenRequired
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID
	}

	if err := h.service.Delete(c.UserContext(), caller.ID, id); err != nil {
		return err
	}
	return httpx.OK(c, "Glucose reading deleted", nil)
}

// validate checks shape only; the value range is enforced by the service.
func (r readingRequest) validate() (UpdateInput, error) {
	var (
		in     UpdateInput
		fields []apperror.FieldError
	)
	in.Value = r.Value

	if r.Timestamp != nil {
		ts, err := parseTime(*r.Timestamp)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "timestamp", Message: "Timestamp must be an ISO date or datetime"})
		} else {
			in.Timestamp = &ts
		}
	}
	if r.MomentOfDay != nil {
		m := MomentOfDay(strings.TrimSpace(*r.MomentOfDay))
		if m.Valid() {
			in.MomentOfDay = &m
		} else {
			fields = append(fields, apperror.FieldError{Field: "momentOfDay", Message: "Unknown moment of day"})
		}
	}
	if r.Notes != nil {
		notes := strings.TrimSpace(*r.Notes)
		if utf8.RuneCountInString(notes) > maxNotesLength {
			fields = append(fields, apperror.FieldError{Field: "notes", Message: "Notes must be at most " + strconv.Itoa(maxNotesLength) + " characters"})
		} else {
			in.Notes = &notes
		}
	}

	if len(fields) > 0 {
		return UpdateInput{}, apperror.Validation("Invalid input data", fields)
	}
	return in, nil
}

func parseFilter(c *fiber.Ctx) (Filter, error) {
	var (
		f      = Filter{Limit: defaultListLimit}
		fields []apperror.FieldError
	)

	if v := c.Query("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "from", Message: "from must be an ISO date or datetime"})
		} else {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "to", Message: "to must be an ISO date or datetime"})
		} else {
			if isDateOnly(v) {
				// a bare date includes the whole day
				t = t.Add(24*time.Hour - time.Microsecond)
			}
			f.To = &t
		}
	}
	if v := c.Query("momentOfDay"); v != "" {
		m := MomentOfDay(v)
		if m.Valid() {
			f.MomentOfDay = &m
		} else {
			fields = append(fields, apperror.FieldError{Field: "momentOfDay", Message: "Unknown moment of day"})
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			fields = append(fields, apperror.FieldError{Field: "limit", Message: "limit must be between 1 and " + strconv.Itoa(maxListLimit)})
		} else {
			f.Limit = n
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		fields = append(fields, apperror.FieldError{Field: "from", Message: "from must not be after to"})
	}

	if len(fields) > 0 {
		return Filter{}, apperror.Validation("Invalid filter", fields)
	}
	return f, nil
}

func isDateOnly(raw string) bool {
	_, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	return err == nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}
