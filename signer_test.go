package auth_test

import (
	"testing"
	"time"

	auth "github.com/edustack/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := auth.NewSigner([]byte("test-secret"), auth.ContextAccess, 5*time.Minute)

	token, err := signer.IssueToken("c0ffee00-0000-4000-8000-000000000001", auth.RoleStandard)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "c0ffee00-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, auth.RoleStandard, claims.Role)
	assert.Equal(t, auth.ContextAccess, claims.Ctx)
}

func TestSignerRejectsWrongContext(t *testing.T) {
	secret := []byte("shared-secret")
	access := auth.NewSigner(secret, auth.ContextAccess, 5*time.Minute)
	refresh := auth.NewSigner(secret, auth.ContextRefresh, 5*time.Minute)

	token, err := refresh.IssueToken("c0ffee00-0000-4000-8000-000000000001", auth.RoleStandard)
	require.NoError(t, err)

	// Same secret, different context: the discriminator claim must reject it.
	_, err = access.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	signer := auth.NewSigner([]byte("secret-a"), auth.ContextAccess, 5*time.Minute)
	other := auth.NewSigner([]byte("secret-b"), auth.ContextAccess, 5*time.Minute)

	token, err := signer.IssueToken("c0ffee00-0000-4000-8000-000000000001", auth.RoleStandard)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)
}

func TestSignerRejectsTamperedToken(t *testing.T) {
	signer := auth.NewSigner([]byte("test-secret"), auth.ContextAccess, 5*time.Minute)

	token, err := signer.IssueToken("c0ffee00-0000-4000-8000-000000000001", auth.RoleStandard)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = signer.VerifyToken(tampered)
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)
}

func TestSignerRejectsGarbage(t *testing.T) {
	signer := auth.NewSigner([]byte("test-secret"), auth.ContextAccess, 5*time.Minute)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := signer.VerifyToken(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidCredential, "raw=%q", raw)
	}
}

func TestSignerExpiry(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ttl := 5 * time.Minute

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{
			name: "Before expiry",
			now:  issued.Add(ttl - time.Second),
		},
		{
			name:    "Exactly at expiry",
			now:     issued.Add(ttl),
			wantErr: auth.ErrCredentialExpired,
		},
		{
			name:    "After expiry",
			now:     issued.Add(ttl + time.Hour),
			wantErr: auth.ErrCredentialExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueClock := func() time.Time { return issued }
			signer := auth.NewSigner([]byte("test-secret"), auth.ContextAccess, ttl,
				auth.WithSignerClock(issueClock))

			token, err := signer.IssueToken("c0ffee00-0000-4000-8000-000000000001", auth.RoleStandard)
			require.NoError(t, err)

			verifyClock := func() time.Time { return tt.now }
			verifier := auth.NewSigner([]byte("test-secret"), auth.ContextAccess, ttl,
				auth.WithSignerClock(verifyClock))

			_, err = verifier.VerifyToken(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSignerTicketRoundTrip(t *testing.T) {
	signer := auth.NewSigner([]byte("activation-secret"), auth.ContextActivation, 5*time.Minute)

	draft := auth.DraftUser{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$14$fakehash",
	}

	token, err := signer.IssueTicket(draft, "123456")
	require.NoError(t, err)

	claims, err := signer.VerifyTicket(token)
	require.NoError(t, err)

	assert.Equal(t, draft, claims.User)
	assert.Equal(t, "123456", claims.Code)
}

func TestSignerTicketRejectsAccessContext(t *testing.T) {
	secret := []byte("shared-secret")
	activation := auth.NewSigner(secret, auth.ContextActivation, 5*time.Minute)
	access := auth.NewSigner(secret, auth.ContextAccess, 5*time.Minute)

	token, err := access.IssueToken("c0ffee00-0000-4000-8000-000000000001", auth.RoleStandard)
	require.NoError(t, err)

	_, err = activation.VerifyTicket(token)
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)
}
