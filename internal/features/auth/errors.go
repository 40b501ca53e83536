package auth

import "errors"

var (
	ErrMissingFields      = errors.New("required fields are missing")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidRole        = errors.New("role must be STUDENT or INSTRUCTOR")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid token")
)
