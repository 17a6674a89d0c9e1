// Package common defines shared constants and sentinel errors used across
// the transport, session and collection layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Transport-level failures.
	ErrUnavailable = errors.New("server unavailable")
	ErrRemote      = errors.New("remote failure")

	// Request-level failures.
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrAuthRequired   = errors.New("authentication required")

	// Token parsing errors.
	ErrInvalidToken = errors.New("invalid token")
)
