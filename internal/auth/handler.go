package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/diabetapp-backend/internal/httpx"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

type tokenInfo struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterPublicRoutes mounts the unauthenticated endpoints on the /api/auth group.
func (h *Handler) RegisterPublicRoutes(router fiber.Router) {
	router.Post("/register", h.register)
	router.Get("/check-email", h.checkEmail)
	router.Post("/login", h.login)
	router.Get("/verify-token", h.verifyToken)
}

func (h *Handler) RegisterProtectedRoutes(router fiber.Router, gate fiber.Handler) {
	router.Get("/me", gate, h.me)
	router.Post("/onboarding/complete", gate, h.completeOnboarding)
}

func (h *Handler) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	in, err := req.Validate(h.now())
	if err != nil {
		return err
	}

	created, err := h.service.Register(c.UserContext(), in)
	if err != nil {
		return err
	}

	return httpx.Created(c, "User registered successfully", fiber.Map{
		"user":               created,
		"requiresOnboarding": true,
	})
}

func (h *Handler) checkEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return ErrEmailRequired
	}

	available, err := h.service.CheckEmailAvailability(c.UserContext(), email)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", fiber.Map{
		"email":     email,
		"available": available,
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := httpx.ParseBody(c, &req); err != nil {
		return err
	}
	in, err := req.Validate()
	if err != nil {
		return err
	}

	res, err := h.service.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return httpx.OK(c, "Login successful", fiber.Map{
		"user":               res.User,
		"token":              res.Token,
		"requiresOnboarding": res.RequiresOnboarding,
	})
}

// verifyToken accepts the token with or without the Bearer prefix.
func (h *Handler) verifyToken(c *fiber.Ctx) error {
	raw := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), bearerPrefix))
	if raw == "" {
		return ErrTokenMissing
	}

	res, err := h.service.VerifyToken(c.UserContext(), raw)
	if err != nil {
		return err
	}
	return httpx.OK(c, "Token is valid", fiber.Map{
		"user": res.User,
		"tokenInfo": tokenInfo{
			UserID:    res.Claims.UserID,
			Email:     res.Claims.Email,
			ExpiresAt: res.Claims.ExpiresAtTime(),
		},
	})
}

func (h *Handler) me(c *fiber.Ctx) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return ErrAccessTokenRequired
	}
	u, err := h.service.Profile(c.UserContext(), id.ID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", fiber.Map{"user": u})
}

func (h *Handler) completeOnboarding(c *fiber.Ctx) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return ErrAccessTokenRequired
	}
	u, err := h.service.CompleteOnboarding(c.UserContext(), id.ID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "Onboarding completed", fiber.Map{
		"user":               u,
		"requiresOnboarding": false,
	})
}
