package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected Role
		wantErr  bool
	}{
		{"upper user", "USER", RoleUser, false},
		{"upper admin", "ADMIN", RoleAdmin, false},
		{"lower user", "user", RoleUser, false},
		{"mixed admin", "Admin", RoleAdmin, false},
		{"empty", "", "", true},
		{"unknown", "superuser", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func Test_User_Public(t *testing.T) {
	t.Parallel()

	user := User{
		Email:          "ann@example.com",
		HashedPassword: "secret-hash",
		Name:           "Ann",
		Role:           RoleUser,
	}

	public := user.Public()

	require.Equal(t, user.Email, public.Email)
	require.Equal(t, user.Name, public.Name)
	require.Equal(t, user.Role, public.Role)
}
