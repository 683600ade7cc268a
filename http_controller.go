package auth

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AuthControllerRoutes holds the route paths the controller registers.
type AuthControllerRoutes struct {
	Register   string
	Activate   string
	Login      string
	SocialAuth string
	Refresh    string
	Me         string
	Logout     string
	UpdateInfo string
	Password   string
	UserRole   string
	DeleteUser string
}

// AuthController exposes the credential lifecycle over HTTP. Responses are
// JSON envelopes: {"success": bool, ...} with taxonomy text codes on
// failure.
type AuthController struct {
	Debug      bool
	Logger     Logger
	Users      UserStore
	Issuer     *CredentialIssuer
	Verifier   *SessionVerifier
	Revoker    *Revoker
	Mailer     Mailer
	Cookies    CookiePolicy
	Middleware *Middleware
	Routes     *AuthControllerRoutes
}

// AuthControllerOption configures the controller.
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerMailer sets the activation mailer.
func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if mailer != nil {
			c.Mailer = mailer
		}
		return c
	}
}

// WithControllerDebug enables payload dumps on the registration paths.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// NewAuthController builds the controller. Users, Issuer, Verifier, and
// Revoker are required collaborators.
func NewAuthController(users UserStore, issuer *CredentialIssuer, verifier *SessionVerifier, revoker *Revoker, cookies CookiePolicy, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Users:    users,
		Issuer:   issuer,
		Verifier: verifier,
		Revoker:  revoker,
		Mailer:   noopMailer{},
		Cookies:  cookies,
		Routes: &AuthControllerRoutes{
			Register:   "/register",
			Activate:   "/activate",
			Login:      "/login",
			SocialAuth: "/social-auth",
			Refresh:    "/refresh",
			Me:         "/me",
			Logout:     "/logout",
			UpdateInfo: "/me",
			Password:   "/me/password",
			UserRole:   "/users/role",
			DeleteUser: "/users/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing UserStore in auth controller...")
	}

	if c.Issuer == nil {
		panic("Missing CredentialIssuer in auth controller...")
	}

	if c.Verifier == nil {
		panic("Missing SessionVerifier in auth controller...")
	}

	if c.Revoker == nil {
		panic("Missing Revoker in auth controller...")
	}

	c.Middleware = NewMiddleware(c.Verifier, c.Cookies, WithMiddlewareLogger(c.Logger))

	return c
}

// RegisterRoutes mounts the full surface on the given router. The protected
// group runs the verification gate; role-bound routes additionally run the
// admin guard.
func (a *AuthController) RegisterRoutes(app fiber.Router) {
	app.Post(a.Routes.Register, a.Register)
	app.Post(a.Routes.Activate, a.Activate)
	app.Post(a.Routes.Login, a.Login)
	app.Post(a.Routes.SocialAuth, a.SocialAuth)
	app.Post(a.Routes.Refresh, a.Refresh)

	protected := a.Middleware.Protected()
	admin := a.Middleware.RequireRoles(RoleAdmin)

	app.Get(a.Routes.Me, protected, a.Me)
	app.Post(a.Routes.Logout, protected, a.Logout)
	app.Put(a.Routes.UpdateInfo, protected, a.UpdateInfo)
	app.Put(a.Routes.Password, protected, a.UpdatePassword)

	app.Put(a.Routes.UserRole, protected, admin, a.UpdateRole)
	app.Delete(a.Routes.DeleteUser, protected, admin, a.DeleteUser)
}

// RegisterPayload is the registration request body.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 200)),
	)
}

// Register starts the activation flow: it checks the email is free, hashes
// the password, and returns an activation ticket whose one-time code goes
// out through the mailer. No user row exists until activation succeeds.
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := RegisterPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse registration payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid registration payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if existing, err := a.Users.FindUserByEmail(c.UserContext(), payload.Email); err == nil && existing != nil {
		return a.renderError(c, ErrEmailConflict)
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return a.renderError(c, err)
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	draft := DraftUser{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: hash,
	}

	ticket, err := a.Issuer.IssueActivationTicket(draft)
	if err != nil {
		return a.renderError(c, err)
	}

	// Delivery failures never block the ticket from being returned. The
	// goroutine outlives the request, so it gets its own context.
	go func(email, code string) {
		if err := a.Mailer.SendActivationEmail(context.Background(), email, code); err != nil {
			a.Logger.Error("activation email delivery failed for %s: %s", email, err)
		}
	}(payload.Email, ticket.Code)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"message":         fmt.Sprintf("Please check your email %s to activate your account", payload.Email),
		"activationToken": ticket.Token,
	})
}

// ActivatePayload carries the ticket and the user-entered code.
type ActivatePayload struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activation_code"`
}

// Validate will validate the payload
func (r ActivatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActivationToken, validation.Required),
		validation.Field(&r.ActivationCode, validation.Required, validation.Length(6, 6)),
	)
}

// Activate redeems an activation ticket and creates the user row. The
// email conflict is re-checked here: the address may have been taken while
// the ticket was outstanding.
func (a *AuthController) Activate(c *fiber.Ctx) error {
	payload := ActivatePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse activation payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid activation payload").
			WithCode(goerrors.CodeBadRequest))
	}

	draft, err := a.Issuer.RedeemActivationTicket(payload.ActivationToken, payload.ActivationCode)
	if err != nil {
		return a.renderError(c, err)
	}

	if existing, err := a.Users.FindUserByEmail(c.UserContext(), draft.Email); err == nil && existing != nil {
		return a.renderError(c, ErrEmailConflict)
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return a.renderError(c, err)
	}

	user, err := a.Users.CreateUser(c.UserContext(), &User{
		Name:         draft.Name,
		Email:        draft.Email,
		PasswordHash: draft.PasswordHash,
		Role:         RoleStandard,
	})
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// LoginPayload is the credential login body.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Login authenticates email and password, opens a session, and attaches
// the token pair as cookies. Unknown email, missing hash, and password
// mismatch all collapse into the same invalid-login answer.
func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := LoginPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := a.Users.FindUserByEmail(c.UserContext(), payload.Email)
	if err != nil || user == nil {
		return a.renderError(c, ErrInvalidLogin)
	}

	if !user.HasPassword() {
		return a.renderError(c, ErrInvalidLogin)
	}

	if err := ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		return a.renderError(c, ErrInvalidLogin)
	}

	return a.openSession(c, user)
}

// SocialAuthPayload is the delegated-identity login body.
type SocialAuthPayload struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Validate will validate the payload
func (r SocialAuthPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// SocialAuth logs in a delegated identity, creating the account on first
// contact. Socially created accounts carry no password hash, so they can
// never pass the credential login path.
func (a *AuthController) SocialAuth(c *fiber.Ctx) error {
	payload := SocialAuthPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse social auth payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid social auth payload").
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := a.Users.FindUserByEmail(c.UserContext(), payload.Email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user, err = a.Users.CreateUser(c.UserContext(), &User{
			Name:   payload.Name,
			Email:  payload.Email,
			Avatar: payload.Avatar,
			Role:   RoleStandard,
		})
		if err != nil {
			return a.renderError(c, err)
		}
	case err != nil:
		return a.renderError(c, err)
	}

	return a.openSession(c, user)
}

// Refresh is the explicit renewal endpoint. The same rotation also happens
// in-band inside the protected middleware; this route exists for clients
// that renew proactively.
func (a *AuthController) Refresh(c *fiber.Ctx) error {
	result, err := a.Verifier.Refresh(c.UserContext(), c.Cookies(RefreshTokenCookie))
	if err != nil {
		return a.renderError(c, err)
	}

	a.Cookies.Write(c, result.Rotated)

	return c.JSON(fiber.Map{
		"success":     true,
		"accessToken": result.Rotated.AccessToken,
	})
}

// Me returns the session snapshot resolved by the middleware. It reflects
// the session store, not a fresh database read.
func (a *AuthController) Me(c *fiber.Ctx) error {
	record, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    record.User,
	})
}

// Logout revokes the session and expires both cookies. Logging out twice
// succeeds both times.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	record, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	if err := a.Revoker.Logout(c.UserContext(), record.User.Identifier()); err != nil {
		return a.renderError(c, err)
	}

	a.Cookies.Clear(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// UpdateInfoPayload carries profile mutations. Empty fields are left
// untouched.
type UpdateInfoPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Validate will validate the payload
func (r UpdateInfoPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
	)
}

// UpdateInfo mutates the profile and refreshes the session snapshot so the
// next read reflects the change without waiting for rotation.
func (a *AuthController) UpdateInfo(c *fiber.Ctx) error {
	record, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	payload := UpdateInfoPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse profile payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid profile payload").
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := a.Users.FindUserByID(c.UserContext(), record.User.Identifier())
	if err != nil {
		return a.renderError(c, err)
	}

	if payload.Name != "" {
		user.Name = payload.Name
	}

	if payload.Avatar != "" {
		user.Avatar = payload.Avatar
	}

	if err := a.Users.SaveUser(c.UserContext(), user); err != nil {
		return a.renderError(c, err)
	}

	if err := a.Issuer.RefreshSessionSnapshot(c.UserContext(), user); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// UpdatePasswordPayload carries a password change.
type UpdatePasswordPayload struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate will validate the payload
func (r UpdatePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 200)),
	)
}

// UpdatePassword verifies the current password before storing the new
// hash. Accounts created through social auth have no hash and cannot
// change a password they never had.
func (a *AuthController) UpdatePassword(c *fiber.Ctx) error {
	record, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	payload := UpdatePasswordPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse password payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid password payload").
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := a.Users.FindUserByID(c.UserContext(), record.User.Identifier())
	if err != nil {
		return a.renderError(c, err)
	}

	if !user.HasPassword() {
		return a.renderError(c, ErrInvalidLogin)
	}

	if err := ComparePasswordAndHash(payload.OldPassword, user.PasswordHash); err != nil {
		return a.renderError(c, ErrInvalidLogin)
	}

	hash, err := HashPassword(payload.NewPassword)
	if err != nil {
		return a.renderError(c, err)
	}

	user.PasswordHash = hash
	if err := a.Users.SaveUser(c.UserContext(), user); err != nil {
		return a.renderError(c, err)
	}

	if err := a.Issuer.RefreshSessionSnapshot(c.UserContext(), user); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated successfully",
	})
}

// UpdateRolePayload carries an administrative role change.
type UpdateRolePayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Validate will validate the payload
func (r UpdateRolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
		validation.Field(&r.Role, validation.Required, validation.In(RoleStandard, RoleAdmin)),
	)
}

// UpdateRole changes a user's role. The target's live session snapshot is
// left alone: the new role takes effect when their session next rotates.
func (a *AuthController) UpdateRole(c *fiber.Ctx) error {
	payload := UpdateRolePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Unable to parse role payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid role payload").
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := a.Users.FindUserByID(c.UserContext(), payload.UserID)
	if err != nil {
		return a.renderError(c, err)
	}

	user.Role = payload.Role
	if err := a.Users.SaveUser(c.UserContext(), user); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// DeleteUser removes a user row and revokes their session so stale
// credentials cannot outlive the account.
func (a *AuthController) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := validation.Validate(id, validation.Required, is.UUID); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid user id").
			WithCode(goerrors.CodeBadRequest))
	}

	if _, err := a.Users.FindUserByID(c.UserContext(), id); err != nil {
		return a.renderError(c, err)
	}

	if err := a.Users.DeleteUser(c.UserContext(), id); err != nil {
		return a.renderError(c, err)
	}

	if err := a.Revoker.DeleteAccount(c.UserContext(), id); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

// openSession mints the token pair, writes the session, and attaches both
// cookies.
func (a *AuthController) openSession(c *fiber.Ctx, user *User) error {
	pair, record, err := a.Issuer.IssueTokenPair(c.UserContext(), user)
	if err != nil {
		return a.renderError(c, err)
	}

	a.Cookies.Write(c, pair)

	return c.JSON(fiber.Map{
		"success":     true,
		"user":        record.User,
		"accessToken": pair.AccessToken,
	})
}

func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	return renderError(c, err)
}

// renderError maps a taxonomy error onto the JSON envelope. Unknown errors
// are wrapped as internal so the response never leaks raw error text.
func renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	defLogger{}.Debug(
		"request error: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	// A rich error without an HTTP code would let the transport default the
	// status to 200; backend failures must never present as success.
	status := richErr.Code
	if status == 0 {
		status = goerrors.CodeInternal
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": richErr.Message,
		"code":    richErr.TextCode,
	})
}
