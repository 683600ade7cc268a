package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie names on the transport surface.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CookiePolicy describes how the token pair is attached to responses. Both
// cookies are HTTP-only with SameSite=None; Secure is set outside
// development. The refresh cookie is scoped to the renewal endpoint's path
// so it does not travel with every request.
type CookiePolicy struct {
	Secure      bool
	RefreshPath string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// Write attaches both tokens of a pair as cookies. The pair is always
// written together: a response never carries only one rotated token.
func (p CookiePolicy) Write(c *fiber.Ctx, pair *TokenPair) {
	now := time.Now()

	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  now.Add(p.AccessTTL),
		MaxAge:   int(p.AccessTTL / time.Second),
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	})

	c.Cookie(&fiber.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     p.refreshPath(),
		Expires:  now.Add(p.RefreshTTL),
		MaxAge:   int(p.RefreshTTL / time.Second),
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

// Clear overwrites both cookies with an immediately-expiring value.
func (p CookiePolicy) Clear(c *fiber.Ctx) {
	expired := time.Now().Add(-24 * time.Hour * 365)

	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  expired,
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	})

	c.Cookie(&fiber.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     p.refreshPath(),
		Expires:  expired,
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

func (p CookiePolicy) refreshPath() string {
	if p.RefreshPath == "" {
		return "/"
	}
	return p.RefreshPath
}
