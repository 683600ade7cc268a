package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/edustack/go-auth"
)

func newUserStoreTest(t *testing.T) *auth.BunUserStore {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	store := auth.NewBunUserStore(db)
	require.NoError(t, store.CreateUserTable(context.Background()))
	return store
}

func TestBunUserStoreCreateAndFind(t *testing.T) {
	store := newUserStoreTest(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, &auth.User{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$14$fakehash",
		Role:         auth.RoleStandard,
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.Identifier())
	require.NotNil(t, user.CreatedAt)

	byEmail, err := store.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.Identifier(), byEmail.Identifier())

	byID, err := store.FindUserByID(ctx, user.Identifier())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)
}

func TestBunUserStoreStableIDFromEmail(t *testing.T) {
	store := newUserStoreTest(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, &auth.User{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  auth.RoleStandard,
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, user.Identifier()))

	again, err := store.CreateUser(ctx, &auth.User{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  auth.RoleStandard,
	})
	require.NoError(t, err)

	// Same email derives the same identifier.
	assert.Equal(t, user.Identifier(), again.Identifier())
}

func TestBunUserStoreNotFound(t *testing.T) {
	store := newUserStoreTest(t)
	ctx := context.Background()

	_, err := store.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = store.FindUserByID(ctx, "c0ffee00-0000-4000-8000-0000000000ff")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = store.FindUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestBunUserStoreEmailConflict(t *testing.T) {
	store := newUserStoreTest(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &auth.User{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  auth.RoleStandard,
	})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, &auth.User{
		Name:  "Imposter",
		Email: "ada@example.com",
		Role:  auth.RoleStandard,
	})
	assert.ErrorIs(t, err, auth.ErrEmailConflict)
}

func TestBunUserStoreSave(t *testing.T) {
	store := newUserStoreTest(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, &auth.User{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  auth.RoleStandard,
	})
	require.NoError(t, err)

	user.Name = "Ada King"
	user.Role = auth.RoleAdmin
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.FindUserByID(ctx, user.Identifier())
	require.NoError(t, err)
	assert.Equal(t, "Ada King", got.Name)
	assert.Equal(t, auth.RoleAdmin, got.Role)
}

func TestBunUserStoreSaveMissingRow(t *testing.T) {
	store := newUserStoreTest(t)

	ghost := &auth.User{
		Name:  "Ghost",
		Email: "ghost@example.com",
		Role:  auth.RoleStandard,
	}
	id, err := uuidParse("c0ffee00-0000-4000-8000-0000000000ee")
	require.NoError(t, err)
	ghost.ID = id

	err = store.SaveUser(context.Background(), ghost)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestBunUserStoreDeleteIdempotent(t *testing.T) {
	store := newUserStoreTest(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, &auth.User{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  auth.RoleStandard,
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, user.Identifier()))
	require.NoError(t, store.DeleteUser(ctx, user.Identifier()))

	_, err = store.FindUserByID(ctx, user.Identifier())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
