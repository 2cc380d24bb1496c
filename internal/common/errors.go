// Package common defines shared constants and sentinel errors used across
// the layers of iptvgate. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateIdentity = errors.New("identity already registered")

	// Service-level errors (generic/internal flow control).
	ErrInternal             = errors.New("internal error")
	ErrValidation           = errors.New("validation error")
	ErrAuthenticationFailed = errors.New("invalid credentials")

	// Token lifecycle errors. Surfaced distinctly so clients know whether
	// to re-authenticate (expired) or treat the token as garbage (invalid).
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")

	// Vault errors. A crypto failure means corrupted stored data or a
	// misconfigured key and is always fatal to the current operation.
	ErrCrypto = errors.New("crypto error")

	// Upstream gateway errors. Unreachable and timeout are retryable by the
	// caller; auth-failed and server-error are not.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamAuthFailed  = errors.New("upstream authentication failed")
	ErrUpstreamServerError = errors.New("upstream server error")
)
