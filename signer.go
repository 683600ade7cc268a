package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signing contexts. Each context owns an independent secret so a leaked
// access-signing key cannot be used to forge refresh tokens or activation
// tickets, and each token embeds its context as a discriminator claim so a
// token can never validate where a different kind is expected.
const (
	ContextAccess     = "access"
	ContextRefresh    = "refresh"
	ContextActivation = "activation"
)

// TokenClaims are the claims carried by access and refresh tokens: the user
// identifier as subject, the role at issue time, and the signing context.
type TokenClaims struct {
	jwt.RegisteredClaims
	Ctx  string `json:"ctx"`
	Role string `json:"role,omitempty"`
}

// ActivationClaims are the claims carried by an activation ticket: the
// draft user payload and the embedded one-time code.
type ActivationClaims struct {
	jwt.RegisteredClaims
	Ctx  string    `json:"ctx"`
	User DraftUser `json:"user"`
	Code string    `json:"code"`
}

// Signer signs and verifies compact HS256 tokens for a single context.
// Verification fails closed: any structural corruption, signature mismatch,
// wrong context, or expiry in the past yields ErrInvalidCredential or
// ErrCredentialExpired, never a partial result. Expiry is a closed
// interval: a token whose expiry equals "now" is already expired.
type Signer struct {
	secret  []byte
	context string
	ttl     time.Duration
	now     func() time.Time
}

// SignerOption customizes a Signer.
type SignerOption func(*Signer)

// WithSignerClock injects a custom clock (useful for tests).
func WithSignerClock(clock func() time.Time) SignerOption {
	return func(s *Signer) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewSigner creates a Signer for one signing context.
func NewSigner(secret []byte, context string, ttl time.Duration, opts ...SignerOption) *Signer {
	s := &Signer{
		secret:  secret,
		context: context,
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TTL returns the lifetime this signer stamps into tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// IssueToken signs a token carrying the user identifier as subject.
func (s *Signer) IssueToken(userID string, role UserRole) (string, error) {
	claims := &TokenClaims{
		RegisteredClaims: s.registered(userID),
		Ctx:              s.context,
		Role:             role,
	}
	return s.sign(claims)
}

// VerifyToken parses and validates a token, enforcing signature, expiry,
// and signing context.
func (s *Signer) VerifyToken(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if err := s.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.Ctx != s.context {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// IssueTicket signs an activation ticket embedding the draft user and the
// one-time code.
func (s *Signer) IssueTicket(draft DraftUser, code string) (string, error) {
	claims := &ActivationClaims{
		RegisteredClaims: s.registered(""),
		Ctx:              s.context,
		User:             draft,
		Code:             code,
	}
	return s.sign(claims)
}

// VerifyTicket parses and validates an activation ticket.
func (s *Signer) VerifyTicket(raw string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := s.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.Ctx != s.context {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

func (s *Signer) registered(subject string) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
}

func (s *Signer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", ErrUpstreamUnavailable
	}
	return signed, nil
}

func (s *Signer) parse(raw string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrCredentialExpired
		}
		return ErrInvalidCredential
	}

	if !token.Valid {
		return ErrInvalidCredential
	}

	return nil
}
