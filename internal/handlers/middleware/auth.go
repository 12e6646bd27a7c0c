package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/handlers/principalctx"
	"github.com/quizdeck/identity/internal/handlers/render"
	applogger "github.com/quizdeck/identity/internal/logger"
	"github.com/quizdeck/identity/internal/models"
	"github.com/quizdeck/identity/internal/service/auth/tokenmanager"
)

// Machine-readable 401 sub-codes
const (
	CodeTokenMissing   = "TOKEN_MISSING"
	CodeTokenExpired   = "TOKEN_EXPIRED"
	CodeTokenInvalid   = "TOKEN_INVALID"
	CodeInvalidPayload = "INVALID_PAYLOAD"
)

// Cookie some older clients still send the access token in.
// The Authorization header always takes precedence
const legacyAccessCookie = "access_token"

type Verifier interface {
	ParseAccess(access string) (models.Principal, error)
}

// Auth is the verification middleware: it derives the request principal from
// the bearer token, locally, with no call back to the identity service
type Auth struct {
	verifier Verifier
	logger   applogger.Logger
}

func NewAuth(verifier Verifier, log applogger.Logger) *Auth {
	if log == nil {
		log = applogger.NewNoOpLogger()
	}
	return &Auth{verifier: verifier, logger: log}
}

// Require rejects the request unless it carries a valid access token.
// On success the principal is attached to the request context
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, found := extractAccessToken(r)
		if !found {
			render.Unauthorized(w, CodeTokenMissing, "Access token is required")
			return
		}

		principal, err := a.verifier.ParseAccess(access)
		if err != nil {
			a.logger.Debug("access token rejected",
				"token_prefix", tokenmanager.Prefix(access),
				"error", err.Error(),
			)

			switch {
			case errors.Is(err, apperrors.ErrAccessTokenExpired):
				render.Unauthorized(w, CodeTokenExpired, "Access token is expired")
			case errors.Is(err, apperrors.ErrClaimsInvalid):
				render.Unauthorized(w, CodeInvalidPayload, "Access token payload is invalid")
			default:
				render.Unauthorized(w, CodeTokenInvalid, "Access token is invalid")
			}
			return
		}

		ctx := principalctx.New(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAccessToken reads the bearer credential.
// Header first, legacy cookie as fallback, same precedence everywhere
func extractAccessToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", false
		}
		return token, true
	}

	cookie, err := r.Cookie(legacyAccessCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return cookie.Value, true
}
