package auth

import "github.com/wichananm65/diabetapp-backend/internal/apperror"

var (
	ErrUserAlreadyExists  = apperror.New(apperror.KindConflict, "EMAIL_IN_USE", "Email is already registered")
	ErrInvalidCredentials = apperror.New(apperror.KindAuthentication, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrTokenMissing       = apperror.New(apperror.KindAuthentication, "TOKEN_MISSING", "Authorization token required")
	ErrInvalidToken       = apperror.New(apperror.KindAuthentication, "INVALID_TOKEN", "Invalid token")
	ErrTokenExpired       = apperror.New(apperror.KindAuthentication, "TOKEN_EXPIRED", "Token expired")
	ErrUserNotFound       = apperror.New(apperror.KindAuthentication, "USER_NOT_FOUND", "User not found")
	ErrEmailRequired      = apperror.New(apperror.KindValidation, "EMAIL_REQUIRED", "Email is required")
	ErrDatabase           = apperror.New(apperror.KindPersistence, "DB_ERROR", "Database error, please try again")
	ErrConfiguration      = apperror.New(apperror.KindConfiguration, "CONFIG_ERROR", "Server configuration error")

	// Returned by the middleware only.
	ErrAccessTokenRequired = apperror.New(apperror.KindAuthentication, "ACCESS_TOKEN_REQUIRED", "Access token required")
	ErrInvalidTokenFormat  = apperror.New(apperror.KindAuthentication, "INVALID_TOKEN_FORMAT", "Invalid token format, expected: Bearer <token>")
	ErrServerConfiguration = apperror.New(apperror.KindConfiguration, "SERVER_CONFIGURATION_ERROR", "Server configuration error")
)
