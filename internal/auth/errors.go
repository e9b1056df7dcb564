package auth

import "errors"

// Auth-specific errors
var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidRole           = errors.New("role must be tenant or landlord")
	ErrUserNotFound          = errors.New("user not found")
)
