package auth

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredential   = "MISSING_CREDENTIAL"
	TextCodeInvalidCredential   = "INVALID_CREDENTIAL"
	TextCodeExpiredCredential   = "EXPIRED_CREDENTIAL"
	TextCodeSessionExpired      = "SESSION_EXPIRED"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeEmailConflict       = "EMAIL_CONFLICT"
	TextCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	TextCodeInvalidTicket       = "INVALID_TICKET"
	TextCodeInvalidCode         = "INVALID_CODE"
	TextCodeInvalidLogin        = "INVALID_LOGIN"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
)

// ErrMissingCredential is returned when a protected request carries no
// access token, or the refresh path finds no refresh token cookie.
var ErrMissingCredential = goerrors.New("please login to access this resource", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredential is returned for malformed, forged, or wrong-context
// tokens. No raw cryptographic error escapes the verification gate.
var ErrInvalidCredential = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrCredentialExpired marks a structurally valid token whose expiry has
// passed. The verifier always resolves it into a refresh attempt or into
// ErrSessionExpired; it never reaches business logic on its own.
var ErrCredentialExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeExpiredCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned when the session store holds no entry for
// the token's subject. The store is the authority on liveness, so this is
// reported even for cryptographically valid tokens.
var ErrSessionExpired = goerrors.New("session expired, please login again", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned by the role guard when the resolved session's
// role is not in the allowed set. Use forbiddenRole to name the role.
var ErrForbidden = goerrors.New("role is not allowed to access this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrEmailConflict is returned when a registration or activation collides
// with an existing account's email.
var ErrEmailConflict = goerrors.New("email already exists", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmailConflict).
	WithCode(goerrors.CodeBadRequest)

// ErrUpstreamUnavailable is returned when the session cache or a signing
// dependency fails. It is never downgraded to ErrSessionExpired so that
// operators can tell "cache is down" apart from "user logged out".
var ErrUpstreamUnavailable = goerrors.New("authentication backend unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeUpstreamUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrInvalidTicket is returned when an activation ticket fails signature or
// expiry validation.
var ErrInvalidTicket = goerrors.New("invalid activation token", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidTicket).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCode is returned when the one-time code presented at redemption
// does not equal the code embedded in the ticket.
var ErrInvalidCode = goerrors.New("invalid activation code", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidCode).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidLogin is the single answer for unknown email, missing password
// hash, and password mismatch, so login failures do not leak which part was
// wrong.
var ErrInvalidLogin = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidLogin).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is returned by UserStore implementations for lookups that
// match no record.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// forbiddenRole clones ErrForbidden with the offending role named, keeping
// errors.Is(err, ErrForbidden) working for callers.
func forbiddenRole(role UserRole) error {
	clone := ErrForbidden.Clone()
	if clone == nil {
		return ErrForbidden
	}
	clone.Message = fmt.Sprintf("role %q is not allowed to access this resource", role)
	clone.Source = ErrForbidden
	return clone.WithMetadata(map[string]any{"role": role})
}
