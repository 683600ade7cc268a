package auth

import (
	"github.com/gofiber/fiber/v2"
)

// Middleware guards fiber routes with the SessionVerifier. Every request
// through Protected runs the full verification machine, including the
// in-band refresh: when the access token has expired but the refresh token
// is still good, the request proceeds and the rotated pair rides out on
// the response cookies.
type Middleware struct {
	verifier *SessionVerifier
	cookies  CookiePolicy
	logger   Logger
}

// MiddlewareOption customizes the Middleware.
type MiddlewareOption func(*Middleware)

// WithMiddlewareLogger overrides the middleware logger.
func WithMiddlewareLogger(logger Logger) MiddlewareOption {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMiddleware wires the verification gate into the HTTP surface.
func NewMiddleware(verifier *SessionVerifier, cookies CookiePolicy, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		verifier: verifier,
		cookies:  cookies,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Protected returns the handler that gates a route. On success the session
// record is attached to the request locals and the standard context; on
// rejection the taxonomy error is rendered and the chain stops.
func (m *Middleware) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		creds := Credentials{
			AccessToken:  c.Cookies(AccessTokenCookie),
			RefreshToken: c.Cookies(RefreshTokenCookie),
		}

		result, err := m.verifier.Verify(c.UserContext(), creds)
		if err != nil {
			m.logger.Debug("request rejected: %s", err)
			return renderError(c, err)
		}

		if result.Rotated != nil {
			m.cookies.Write(c, result.Rotated)
		}

		c.Locals(SessionContextKey, result.Session)
		c.SetUserContext(WithSessionContext(c.UserContext(), result.Session))

		return c.Next()
	}
}

// RequireRoles returns the handler that closes a route to sessions whose
// role is not in the allowed set. It must run after Protected.
func (m *Middleware) RequireRoles(allowed ...UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		record, err := GetSession(c)
		if err != nil {
			return renderError(c, err)
		}

		if err := Authorize(record, allowed...); err != nil {
			m.logger.Warn("role %s denied access to %s", record.User.Role, c.Path())
			return renderError(c, err)
		}

		return c.Next()
	}
}
