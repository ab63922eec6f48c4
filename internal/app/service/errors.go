package service

import "errors"

var (
	// ErrURLRequired is returned by Shorten for an empty input.
	ErrURLRequired = errors.New("original URL is required")

	// ErrInvalidURL is returned by Shorten when the input is not an absolute URL.
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrExhausted means every generated code collided. It points at a broken
	// random source or an exhausted code space.
	ErrExhausted = errors.New("short code generation exhausted")

	// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned by ParseToken for a bad, expired or foreign token.
	ErrInvalidToken = errors.New("invalid token")
)
