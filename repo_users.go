package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunUserStore is the bun-backed UserStore. It translates driver-level
// failures into the package error taxonomy: sql.ErrNoRows becomes
// ErrUserNotFound and a unique-constraint violation on email becomes
// ErrEmailConflict.
type BunUserStore struct {
	db *bun.DB
}

var _ UserStore = (*BunUserStore)(nil)

// NewBunUserStore wires the database handle.
func NewBunUserStore(db *bun.DB) *BunUserStore {
	return &BunUserStore{db: db}
}

// FindUserByEmail looks a user up by email address.
func (s *BunUserStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound("email", email)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}

	return user, nil
}

// FindUserByID looks a user up by identifier.
func (s *BunUserStore) FindUserByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, userNotFound("id", id)
	}

	user := &User{}
	err = s.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", uid).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound("id", id)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}

	return user, nil
}

// CreateUser inserts the user. A zero ID is derived from the email so the
// same address always maps to the same identifier; timestamps are stamped
// here rather than left to the driver.
func (s *BunUserStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		} else {
			user.ID = uuid.New()
		}
	}

	now := time.Now()
	user.CreatedAt = &now
	user.UpdatedAt = &now

	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailConflict
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return user, nil
}

// SaveUser persists a mutation to an existing row.
func (s *BunUserStore) SaveUser(ctx context.Context, user *User) error {
	now := time.Now()
	user.UpdatedAt = &now

	res, err := s.db.NewUpdate().Model(user).WherePK().Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not save user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes the row. Deleting an absent row is not an error.
func (s *BunUserStore) DeleteUser(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrUserNotFound
	}

	if _, err := s.db.NewDelete().Model((*User)(nil)).Where("id = ?", uid).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete user")
	}

	return nil
}

// CreateUserTable creates the backing table if missing. Used by the example
// binary and the test harness.
func (s *BunUserStore) CreateUserTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// userNotFound clones ErrUserNotFound with the lookup key named, keeping
// errors.Is(err, ErrUserNotFound) working for callers.
func userNotFound(key, value string) error {
	clone := ErrUserNotFound.Clone()
	if clone == nil {
		return ErrUserNotFound
	}
	clone.Source = ErrUserNotFound
	return clone.WithMetadata(map[string]any{key: value})
}

// isUniqueViolation detects a unique-constraint failure across the drivers
// we run against without binding to a driver error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
