package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/models"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims AccessTokenClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err, "signing test token should not fail")

	return signed
}

func validClaims(userID uuid.UUID) AccessTokenClaims {
	now := time.Now()
	return AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "ann@example.com",
		Role:  "USER",
	}
}

func Test_Verifier(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier(testSecret, "")
	require.NoError(t, err, "verifier should be created without errors")

	t.Run("new fails without secret", func(t *testing.T) {
		_, err := NewVerifier("", "")
		require.Error(t, err, "empty secret must be rejected")
	})

	t.Run("valid token", func(t *testing.T) {
		userID := uuid.New()
		access := signToken(t, testSecret, validClaims(userID))

		principal, err := verifier.ParseAccess(access)

		require.NoError(t, err)
		assert.Equal(t, userID, principal.UserID)
		assert.Equal(t, "ann@example.com", principal.Email)
		assert.Equal(t, models.RoleUser, principal.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims(uuid.New())
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		access := signToken(t, testSecret, claims)

		_, err := verifier.ParseAccess(access)

		require.ErrorIs(t, err, apperrors.ErrAccessTokenExpired)
	})

	t.Run("wrong signature", func(t *testing.T) {
		access := signToken(t, "other-secret", validClaims(uuid.New()))

		_, err := verifier.ParseAccess(access)

		require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.ParseAccess("not.a.token")

		require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		// alg=none with a valid shape must not pass as HS256
		token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(uuid.New()))
		access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.ParseAccess(access)

		require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
	})

	t.Run("signed but claims missing", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(c *AccessTokenClaims)
		}{
			{"no subject", func(c *AccessTokenClaims) { c.Subject = "" }},
			{"bad subject", func(c *AccessTokenClaims) { c.Subject = "not-a-uuid" }},
			{"no email", func(c *AccessTokenClaims) { c.Email = "" }},
			{"no role", func(c *AccessTokenClaims) { c.Role = "" }},
			{"unknown role", func(c *AccessTokenClaims) { c.Role = "ROOT" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				claims := validClaims(uuid.New())
				tt.mutate(&claims)
				access := signToken(t, testSecret, claims)

				_, err := verifier.ParseAccess(access)

				require.ErrorIs(t, err, apperrors.ErrClaimsInvalid,
					"valid signature with bad payload must fail as INVALID_PAYLOAD, not TOKEN_INVALID")
			})
		}
	})
}
