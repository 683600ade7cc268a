package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// SessionContextKey is the fiber locals key under which the middleware
// stores the resolved session record.
const SessionContextKey = "auth_session"

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithSessionContext stores the session record in the given context.
func WithSessionContext(ctx context.Context, record *SessionRecord) context.Context {
	return context.WithValue(ctx, sessionCtxKey, record)
}

// SessionFromContext finds the session record in the standard context.
func SessionFromContext(ctx context.Context) (*SessionRecord, bool) {
	record, ok := ctx.Value(sessionCtxKey).(*SessionRecord)
	return record, ok
}

// GetSession extracts the session record attached by the protected-route
// middleware.
func GetSession(c *fiber.Ctx) (*SessionRecord, error) {
	raw := c.Locals(SessionContextKey)
	if raw == nil {
		return nil, ErrMissingCredential
	}

	record, ok := raw.(*SessionRecord)
	if record == nil || !ok {
		return nil, ErrMissingCredential
	}

	return record, nil
}
