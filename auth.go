package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Auth bundles the credential lifecycle: the three signers, the session
// store, the issuer, the request-time verifier, and revocation. It is the
// single entry point an application wires.
type Auth struct {
	config   Config
	users    UserStore
	store    SessionStore
	issuer   *CredentialIssuer
	verifier *SessionVerifier
	revoker  *Revoker
	cookies  CookiePolicy
	logger   Logger
	mailer   Mailer
	clock    func() time.Time

	ownsStore bool
}

// Option configures the Auth facade.
type Option func(*Auth)

// WithLogger sets the logger for every component.
func WithLogger(logger Logger) Option {
	return func(a *Auth) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMailer sets the activation mailer.
func WithMailer(mailer Mailer) Option {
	return func(a *Auth) {
		if mailer != nil {
			a.mailer = mailer
		}
	}
}

// WithSessionStore injects a session store instead of dialing Redis from
// the config. The caller keeps ownership: Close will not close it.
func WithSessionStore(store SessionStore) Option {
	return func(a *Auth) {
		if store != nil {
			a.store = store
		}
	}
}

// WithClock injects a custom clock for every time-sensitive component.
func WithClock(clock func() time.Time) Option {
	return func(a *Auth) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// New validates the config, connects the session store when none was
// injected, and wires the full component graph.
func New(ctx context.Context, cfg Config, users UserStore, opts ...Option) (*Auth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid auth configuration").
			WithCode(goerrors.CodeBadRequest)
	}

	if users == nil {
		return nil, goerrors.New("missing user store", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	a := &Auth{
		config:  cfg,
		users:   users,
		cookies: cfg.CookiePolicy(),
		logger:  defLogger{},
		mailer:  noopMailer{},
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		store, err := DialSessionStore(ctx, cfg.RedisAddr, WithStoreLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.store = store
		a.ownsStore = true
	}

	access := NewSigner([]byte(cfg.AccessSecret), ContextAccess, cfg.AccessTTL, WithSignerClock(a.clock))
	refresh := NewSigner([]byte(cfg.RefreshSecret), ContextRefresh, cfg.RefreshTTL, WithSignerClock(a.clock))
	activation := NewSigner([]byte(cfg.ActivationSecret), ContextActivation, cfg.ActivationTTL, WithSignerClock(a.clock))

	a.issuer = NewCredentialIssuer(access, refresh, activation, a.store, cfg.SessionTTL,
		WithIssuerLogger(a.logger),
		WithIssuerClock(a.clock),
	)

	a.verifier = NewSessionVerifier(access, refresh, a.store, a.issuer,
		WithVerifierLogger(a.logger),
	)

	a.revoker = NewRevoker(a.store, WithRevokerLogger(a.logger))

	return a, nil
}

// Users returns the user store.
func (a *Auth) Users() UserStore { return a.users }

// SessionStore returns the session store.
func (a *Auth) SessionStore() SessionStore { return a.store }

// Issuer returns the credential issuer.
func (a *Auth) Issuer() *CredentialIssuer { return a.issuer }

// Verifier returns the request-time verification gate.
func (a *Auth) Verifier() *SessionVerifier { return a.verifier }

// Revoker returns the revocation component.
func (a *Auth) Revoker() *Revoker { return a.revoker }

// Cookies returns the cookie attachment policy.
func (a *Auth) Cookies() CookiePolicy { return a.cookies }

// Middleware returns route-guarding middleware backed by the verifier.
func (a *Auth) Middleware() *Middleware {
	return NewMiddleware(a.verifier, a.cookies, WithMiddlewareLogger(a.logger))
}

// Controller returns the HTTP controller exposing the full lifecycle.
func (a *Auth) Controller(opts ...AuthControllerOption) *AuthController {
	base := []AuthControllerOption{
		WithControllerLogger(a.logger),
		WithControllerMailer(a.mailer),
	}
	return NewAuthController(a.users, a.issuer, a.verifier, a.revoker, a.cookies,
		append(base, opts...)...)
}

// Ping verifies the session store connection.
func (a *Auth) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Close releases the session store when this facade dialed it.
func (a *Auth) Close() error {
	if a.ownsStore {
		return a.store.Close()
	}
	return nil
}
