package auth

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package needs. Messages are
// printf-style with optional structured key/value pairs appended.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UserStore is the persistence collaborator. The package never issues
// queries beyond lookup-by-identity.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	SaveUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
}

// Mailer delivers the activation code out-of-band. Implementations are
// called fire-and-forget: a delivery failure is logged and never blocks the
// activation ticket from being returned to the caller.
type Mailer interface {
	SendActivationEmail(ctx context.Context, email, code string) error
}

// MailerFunc adapts a function into a Mailer.
type MailerFunc func(ctx context.Context, email, code string) error

// SendActivationEmail satisfies the Mailer interface.
func (f MailerFunc) SendActivationEmail(ctx context.Context, email, code string) error {
	if f == nil {
		return nil
	}
	return f(ctx, email, code)
}

type noopMailer struct{}

func (noopMailer) SendActivationEmail(context.Context, string, string) error { return nil }

// SessionStore is the key-value cache holding one session record per user
// identifier. Implementations must distinguish a missing entry from an
// unavailable backend: an outage has to surface as ErrUpstreamUnavailable,
// never as "no session".
type SessionStore interface {
	Get(ctx context.Context, userID string) (*SessionRecord, error)
	Save(ctx context.Context, userID string, record *SessionRecord, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
	Close() error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
