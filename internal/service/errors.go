package service

import "errors"

var (
	// ErrNoFieldProfile is returned when a user has not configured a field yet
	ErrNoFieldProfile = errors.New("no field profile")
	// ErrUserExists is returned when registering a taken username or email
	ErrUserExists = errors.New("username or email already exists")
	// ErrInvalidCredentials is returned when a login does not match a stored user
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidInput is returned for malformed registration data
	ErrInvalidInput = errors.New("invalid input")
)
