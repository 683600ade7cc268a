package auth

import "context"

// Revoker clears session state on logout and account deletion. Expiring
// the cookies is the transport layer's half of revocation; see
// CookiePolicy.Clear.
type Revoker struct {
	store  SessionStore
	logger Logger
}

// RevokerOption customizes a Revoker.
type RevokerOption func(*Revoker)

// WithRevokerLogger overrides the revoker logger.
func WithRevokerLogger(logger Logger) RevokerOption {
	return func(r *Revoker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRevoker wires the session store.
func NewRevoker(store SessionStore, opts ...RevokerOption) *Revoker {
	r := &Revoker{
		store:  store,
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Logout deletes the user's session entry. Deleting an already absent
// entry succeeds, so calling logout twice reports success both times.
func (r *Revoker) Logout(ctx context.Context, userID string) error {
	if err := r.store.Delete(ctx, userID); err != nil {
		return err
	}
	r.logger.Info("session revoked for user %s", userID)
	return nil
}

// DeleteAccount performs the same session cleanup after the underlying
// user record has been removed by an administrative path.
func (r *Revoker) DeleteAccount(ctx context.Context, userID string) error {
	return r.Logout(ctx, userID)
}
