package tokenmanager

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/models"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier is the canonical access token check, shared by every service.
// Pure computation: signature and expiry against the shared secret, no store
// round-trip per request.
type Verifier struct {
	key string
	alg jwt.SigningMethod
}

func NewVerifier(secretKey string, alg string) (*Verifier, error) {
	if secretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if alg == "" {
		alg = defaultSigningMethod
	}

	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("unknown signing method %q", alg)
	}

	return &Verifier{key: secretKey, alg: method}, nil
}

// ParseAccess validates the token and derives the request principal.
// Errors: apperrors.ErrAccessTokenExpired on expiry,
// apperrors.ErrClaimsInvalid when the signature is fine but required claims
// are absent or malformed, apperrors.ErrAccessTokenInvalid for everything
// else (bad signature, wrong method, garbage input).
func (v *Verifier) ParseAccess(access string) (models.Principal, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(v.key), nil },
		jwt.WithValidMethods([]string{v.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenExpired, err)
	default:
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: bad subject claim", apperrors.ErrClaimsInvalid)
	}

	if claims.Email == "" {
		return models.Principal{}, fmt.Errorf("%w: email claim missing", apperrors.ErrClaimsInvalid)
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: bad role claim", apperrors.ErrClaimsInvalid)
	}

	return models.Principal{UserID: userID, Email: claims.Email, Role: role}, nil
}
