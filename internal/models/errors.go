package models

import "errors"

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound is returned by the store when looking up an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable is returned when the store times out or fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)
