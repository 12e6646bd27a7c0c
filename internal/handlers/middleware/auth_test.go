package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/handlers/principalctx"
	"github.com/quizdeck/identity/internal/models"
)

// stubVerifier maps exact token strings to a principal or an error
type stubVerifier struct {
	principal models.Principal
	err       error
}

func (v stubVerifier) ParseAccess(access string) (models.Principal, error) {
	if v.err != nil {
		return models.Principal{}, v.err
	}
	return v.principal, nil
}

func Test_Auth_Require(t *testing.T) {
	t.Parallel()

	principal := models.Principal{
		UserID: uuid.New(),
		Email:  "ann@example.com",
		Role:   models.RoleUser,
	}

	// next records whether it ran and which principal it saw
	type seen struct {
		called    bool
		principal models.Principal
		ok        bool
	}
	nextHandler := func(s *seen) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.called = true
			s.principal, s.ok = principalctx.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	}

	decodeError := func(t *testing.T, body *httptest.ResponseRecorder) (errType string, code string) {
		t.Helper()
		var resp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(body.Body).Decode(&resp))
		return resp.Error, resp.Code
	}

	t.Run("valid bearer token", func(t *testing.T) {
		var s seen
		auth := NewAuth(stubVerifier{principal: principal}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.Header.Set("Authorization", "Bearer some-access-token")
		rr := httptest.NewRecorder()

		auth.Require(nextHandler(&s)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.True(t, s.called, "next handler should run")
		require.True(t, s.ok, "principal should be in the context")
		assert.Equal(t, principal, s.principal)
	})

	t.Run("bearer scheme is case insensitive", func(t *testing.T) {
		var s seen
		auth := NewAuth(stubVerifier{principal: principal}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.Header.Set("Authorization", "bearer some-access-token")
		rr := httptest.NewRecorder()

		auth.Require(nextHandler(&s)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("legacy cookie fallback", func(t *testing.T) {
		var s seen
		auth := NewAuth(stubVerifier{principal: principal}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "some-access-token"})
		rr := httptest.NewRecorder()

		auth.Require(nextHandler(&s)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.True(t, s.called)
	})

	t.Run("malformed header does not fall back to cookie", func(t *testing.T) {
		var s seen
		auth := NewAuth(stubVerifier{principal: principal}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "some-access-token"})
		rr := httptest.NewRecorder()

		auth.Require(nextHandler(&s)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.False(t, s.called, "a present but non-bearer header must win over the cookie")

		_, code := decodeError(t, rr)
		assert.Equal(t, CodeTokenMissing, code)
	})

	t.Run("no credentials", func(t *testing.T) {
		var s seen
		auth := NewAuth(stubVerifier{principal: principal}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		rr := httptest.NewRecorder()

		auth.Require(nextHandler(&s)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.False(t, s.called)

		errType, code := decodeError(t, rr)
		assert.Equal(t, "unauthorized", errType)
		assert.Equal(t, CodeTokenMissing, code)
	})

	t.Run("verification error sub-codes", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode string
		}{
			{"expired", apperrors.ErrAccessTokenExpired, CodeTokenExpired},
			{"invalid", apperrors.ErrAccessTokenInvalid, CodeTokenInvalid},
			{"bad payload", apperrors.ErrClaimsInvalid, CodeInvalidPayload},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var s seen
				auth := NewAuth(stubVerifier{err: tt.err}, nil)

				req := httptest.NewRequest(http.MethodGet, "/verify", nil)
				req.Header.Set("Authorization", "Bearer some-access-token")
				rr := httptest.NewRecorder()

				auth.Require(nextHandler(&s)).ServeHTTP(rr, req)

				require.Equal(t, http.StatusUnauthorized, rr.Code)
				require.False(t, s.called)

				_, code := decodeError(t, rr)
				assert.Equal(t, tt.wantCode, code)
			})
		}
	})
}
