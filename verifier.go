package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// VerifierState names the states of the verification gate. The refresh
// path is an explicit transition of this machine, not a control-flow
// escape: any request carrying an expired access token re-enters the
// Credential Issuer through StateRefreshing.
type VerifierState uint8

const (
	// StateUnauthenticated is the entry state before any credential has
	// been examined.
	StateUnauthenticated VerifierState = iota
	// StateVerifying covers signature/expiry validation of the access
	// token and session resolution.
	StateVerifying
	// StateRefreshing covers the in-band renewal of an expired access
	// token through the refresh token.
	StateRefreshing
	// StateAuthenticated is the successful terminal state, with a session
	// snapshot attached.
	StateAuthenticated
	// StateRejected is the failing terminal state. The accompanying error
	// names the rejection reason.
	StateRejected
)

func (s VerifierState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateVerifying:
		return "verifying"
	case StateRefreshing:
		return "refreshing"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Credentials are the two cookies presented by a request.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// VerifyResult is the outcome of a pass through the gate. When the refresh
// path ran, Rotated carries the new token pair: the caller must attach both
// cookies together, never only one.
type VerifyResult struct {
	State   VerifierState
	Session *SessionRecord
	Rotated *TokenPair
}

// Authenticated reports whether the gate reached its successful terminal
// state.
func (r *VerifyResult) Authenticated() bool {
	return r != nil && r.State == StateAuthenticated
}

// SessionVerifier is the request-time gate. It resolves every token-level
// failure into the package error taxonomy before returning, and it treats
// the session store — not the token — as the authority on login liveness.
type SessionVerifier struct {
	access  *Signer
	refresh *Signer
	store   SessionStore
	issuer  *CredentialIssuer
	logger  Logger
}

// VerifierOption customizes a SessionVerifier.
type VerifierOption func(*SessionVerifier)

// WithVerifierLogger overrides the verifier logger.
func WithVerifierLogger(logger Logger) VerifierOption {
	return func(v *SessionVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewSessionVerifier wires the gate. The issuer is re-entered from the
// refresh path to mint rotated pairs.
func NewSessionVerifier(access, refresh *Signer, store SessionStore, issuer *CredentialIssuer, opts ...VerifierOption) *SessionVerifier {
	v := &SessionVerifier{
		access:  access,
		refresh: refresh,
		store:   store,
		issuer:  issuer,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify runs the state machine over the presented credentials.
//
//	Unauthenticated → Verifying → {Authenticated, Refreshing, Rejected}
//	Refreshing      → {Authenticated, Rejected}
//
// On StateRejected the returned error is one of ErrMissingCredential,
// ErrInvalidCredential, ErrSessionExpired, or ErrUpstreamUnavailable.
func (v *SessionVerifier) Verify(ctx context.Context, creds Credentials) (*VerifyResult, error) {
	if creds.AccessToken == "" {
		return rejected(), ErrMissingCredential
	}

	claims, err := v.access.VerifyToken(creds.AccessToken)
	switch {
	case errors.Is(err, ErrCredentialExpired):
		return v.Refresh(ctx, creds.RefreshToken)
	case err != nil:
		return rejected(), ErrInvalidCredential
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return rejected(), ErrInvalidCredential
	}

	record, err := v.store.Get(ctx, claims.Subject)
	if err != nil {
		// ErrSessionExpired for a missing entry, ErrUpstreamUnavailable
		// for an outage; never conflated.
		return rejected(), err
	}

	return &VerifyResult{State: StateAuthenticated, Session: record}, nil
}

// Refresh runs the Refreshing leg directly: it validates the refresh
// token, requires a live session for its subject, and mints a rotated pair
// with the session TTL reset to the full window. It backs both the in-band
// renewal inside Verify and the explicit renewal endpoint.
func (v *SessionVerifier) Refresh(ctx context.Context, refreshToken string) (*VerifyResult, error) {
	if refreshToken == "" {
		return rejected(), ErrMissingCredential
	}

	claims, err := v.refresh.VerifyToken(refreshToken)
	switch {
	case errors.Is(err, ErrCredentialExpired):
		return rejected(), ErrSessionExpired
	case err != nil:
		return rejected(), ErrInvalidCredential
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return rejected(), ErrInvalidCredential
	}

	record, err := v.store.Get(ctx, claims.Subject)
	if err != nil {
		return rejected(), err
	}

	pair, refreshed, err := v.issuer.IssueTokenPair(ctx, &record.User)
	if err != nil {
		return rejected(), err
	}

	v.logger.Debug("access token refreshed for user %s", claims.Subject)

	return &VerifyResult{
		State:   StateAuthenticated,
		Session: refreshed,
		Rotated: pair,
	}, nil
}

func rejected() *VerifyResult {
	return &VerifyResult{State: StateRejected}
}
