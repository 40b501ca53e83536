package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNameRequired    = errors.New("fullName cannot be empty")
	ErrEmailTaken      = errors.New("email already exists")
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
)
