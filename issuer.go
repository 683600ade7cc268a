package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"io"
	"math/big"
	"strconv"
	"time"
)

// CredentialIssuer mints the three signed artifacts of the subsystem:
// activation tickets at registration time and access/refresh token pairs at
// login, social-auth, and refresh time. Issuing a token pair also writes
// the user's session record, unconditionally overwriting any previous one —
// concurrent logins for the same user collapse to a single session
// (last-login-wins; a multi-session list is deliberately not modeled).
type CredentialIssuer struct {
	access     *Signer
	refresh    *Signer
	activation *Signer
	store      SessionStore
	sessionTTL time.Duration
	logger     Logger
	now        func() time.Time
	rand       io.Reader
}

// IssuerOption customizes a CredentialIssuer.
type IssuerOption func(*CredentialIssuer)

// WithIssuerLogger overrides the issuer logger.
func WithIssuerLogger(logger Logger) IssuerOption {
	return func(ci *CredentialIssuer) {
		if logger != nil {
			ci.logger = logger
		}
	}
}

// WithIssuerClock injects a custom clock (useful for tests).
func WithIssuerClock(clock func() time.Time) IssuerOption {
	return func(ci *CredentialIssuer) {
		if clock != nil {
			ci.now = clock
		}
	}
}

// WithIssuerRand overrides the randomness source for one-time codes.
func WithIssuerRand(r io.Reader) IssuerOption {
	return func(ci *CredentialIssuer) {
		if r != nil {
			ci.rand = r
		}
	}
}

// NewCredentialIssuer wires the three signers and the session store.
func NewCredentialIssuer(access, refresh, activation *Signer, store SessionStore, sessionTTL time.Duration, opts ...IssuerOption) *CredentialIssuer {
	ci := &CredentialIssuer{
		access:     access,
		refresh:    refresh,
		activation: activation,
		store:      store,
		sessionTTL: sessionTTL,
		logger:     defLogger{},
		now:        time.Now,
		rand:       rand.Reader,
	}

	for _, opt := range opts {
		opt(ci)
	}

	return ci
}

// SessionTTL returns the full session window applied on login and refresh.
func (ci *CredentialIssuer) SessionTTL() time.Duration {
	return ci.sessionTTL
}

// IssueActivationTicket generates a uniform 6-digit one-time code, embeds
// it and the draft user into a signed short-lived ticket, and returns both.
// Nothing is stored server-side: the ticket's signature and embedded expiry
// are its only state.
func (ci *CredentialIssuer) IssueActivationTicket(draft DraftUser) (*ActivationTicket, error) {
	code, err := ci.oneTimeCode()
	if err != nil {
		ci.logger.Error("one-time code generation failed", "error", err)
		return nil, ErrUpstreamUnavailable
	}

	token, err := ci.activation.IssueTicket(draft, code)
	if err != nil {
		return nil, err
	}

	return &ActivationTicket{Token: token, Code: code}, nil
}

// RedeemActivationTicket validates a ticket and the presented one-time
// code, returning the embedded draft user. Signature and expiry validate
// independently of the code comparison; the comparison is constant time.
func (ci *CredentialIssuer) RedeemActivationTicket(token, code string) (*DraftUser, error) {
	claims, err := ci.activation.VerifyTicket(token)
	if err != nil {
		return nil, ErrInvalidTicket
	}

	if subtle.ConstantTimeCompare([]byte(claims.Code), []byte(code)) != 1 {
		return nil, ErrInvalidCode
	}

	draft := claims.User
	return &draft, nil
}

// IssueTokenPair signs a fresh access and refresh token for the user and
// overwrites the user's session entry with a snapshot of the record,
// resetting the TTL to the full session window.
func (ci *CredentialIssuer) IssueTokenPair(ctx context.Context, user *User) (*TokenPair, *SessionRecord, error) {
	accessToken, err := ci.access.IssueToken(user.Identifier(), user.Role)
	if err != nil {
		return nil, nil, err
	}

	refreshToken, err := ci.refresh.IssueToken(user.Identifier(), user.Role)
	if err != nil {
		return nil, nil, err
	}

	record := &SessionRecord{
		User:     *user,
		IssuedAt: ci.now(),
	}

	if err := ci.store.Save(ctx, user.Identifier(), record, ci.sessionTTL); err != nil {
		return nil, nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, record, nil
}

// RefreshSessionSnapshot overwrites the cached snapshot after a profile
// mutation, extending the TTL to the full window, without reissuing tokens.
func (ci *CredentialIssuer) RefreshSessionSnapshot(ctx context.Context, user *User) error {
	record := &SessionRecord{
		User:     *user,
		IssuedAt: ci.now(),
	}
	return ci.store.Save(ctx, user.Identifier(), record, ci.sessionTTL)
}

// oneTimeCode draws a 6-digit numeric code from a uniform range.
func (ci *CredentialIssuer) oneTimeCode() (string, error) {
	n, err := rand.Int(ci.rand, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
