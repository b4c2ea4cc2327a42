package auth

import "errors"

var (
	// ErrValidation indicates an empty required field after trimming.
	ErrValidation = errors.New("username and password are required")

	// ErrDuplicateUser indicates the username is already registered.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrInvalidCredentials indicates no matching username/password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken indicates an unparseable or expired bearer token.
	ErrInvalidToken = errors.New("invalid token")
)
