package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/edustack/go-auth"
)

func TestAuthorize(t *testing.T) {
	standard := &auth.SessionRecord{User: auth.User{Role: auth.RoleStandard}}
	admin := &auth.SessionRecord{User: auth.User{Role: auth.RoleAdmin}}

	tests := []struct {
		name    string
		record  *auth.SessionRecord
		allowed []auth.UserRole
		wantErr error
	}{
		{
			name:    "No session",
			record:  nil,
			allowed: []auth.UserRole{auth.RoleStandard},
			wantErr: auth.ErrMissingCredential,
		},
		{
			name:    "Role allowed",
			record:  standard,
			allowed: []auth.UserRole{auth.RoleStandard},
		},
		{
			name:    "Role in larger set",
			record:  standard,
			allowed: []auth.UserRole{auth.RoleAdmin, auth.RoleStandard},
		},
		{
			name:    "Role denied",
			record:  standard,
			allowed: []auth.UserRole{auth.RoleAdmin},
			wantErr: auth.ErrForbidden,
		},
		{
			name:    "Admin passes admin gate",
			record:  admin,
			allowed: []auth.UserRole{auth.RoleAdmin},
		},
		{
			name:    "Empty allowed set denies everyone",
			record:  admin,
			allowed: nil,
			wantErr: auth.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Authorize(tt.record, tt.allowed...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, auth.ValidRole(auth.RoleStandard))
	assert.True(t, auth.ValidRole(auth.RoleAdmin))
	assert.False(t, auth.ValidRole("superuser"))
	assert.False(t, auth.ValidRole(""))
}
