// Package common defines shared constants and sentinel errors used across
// the shelterauth components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors. Login failures never reveal whether the account
	// exists, so there is a single sentinel for both cases.
	ErrInvalidCredentials = errors.New("invalid login request")

	// Access-token verification errors.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
	ErrTokenExpired     = errors.New("token expired")

	// Refresh-rotation errors. ErrInvalidTokens is the uniform refusal
	// reported to callers; the specific sentinels below stay internal.
	ErrInvalidTokens         = errors.New("invalid tokens")
	ErrAccessTokenNotExpired = errors.New("access token has not expired yet")
	ErrRefreshTokenNotFound  = errors.New("refresh token does not exist")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrRefreshTokenUsed      = errors.New("refresh token has already been used")
	ErrRefreshTokenRevoked   = errors.New("refresh token has been revoked")
	ErrTokenMismatch         = errors.New("refresh token does not match the access token")
)
