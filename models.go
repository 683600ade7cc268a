package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleStandard is the default role assigned at activation
	RoleStandard UserRole = "standard"
	// RoleAdmin grants access to the administrative routes
	RoleAdmin UserRole = "admin"
)

// ValidRole reports whether role is one of the enumerated roles.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleStandard, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the account record. It is owned by the persistence layer; this
// package signs its identifier into tokens and caches a snapshot of it into
// the session store.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Role          UserRole   `bun:"user_role,notnull" json:"role"`
	Avatar        string     `bun:"avatar" json:"avatar,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Identifier returns the string form of the user id, the key used for
// token subjects and session store entries.
func (u *User) Identifier() string {
	return u.ID.String()
}

// HasPassword reports whether the account carries a local password hash.
// Externally-authenticated accounts do not.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// DraftUser is the not-yet-persisted account embedded in an activation
// ticket, pending one-time-code confirmation.
type DraftUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// SessionRecord is the cached snapshot stored per user identifier. Presence
// of a record is what makes a token-bearing request authenticated; the
// snapshot is deliberately denormalized so the request path never touches
// the persistence layer.
type SessionRecord struct {
	User     User      `json:"user"`
	IssuedAt time.Time `json:"issued_at"`
}

// TokenPair is a freshly signed access/refresh token couple. Both tokens
// are always minted, attached, and rotated together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ActivationTicket is the signed registration artifact plus the one-time
// code the caller must present at redemption. The code travels out-of-band.
type ActivationTicket struct {
	Token string `json:"token"`
	Code  string `json:"-"`
}
