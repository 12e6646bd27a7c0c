package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/models"
	"github.com/quizdeck/identity/internal/repository"
)

const (
	defaultAccessTokenTTL  = 2 * time.Hour
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	// 32 bytes of entropy per refresh token, well above the 160 bit floor
	refreshTokenBytesLen = 32
)

// Token manager config with sensible defaults
type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set the default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set the defaults are used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager mints token pairs and rotates refresh tokens.
// Verification of access tokens lives in Verifier so downstream services can
// compose it without a database.
type TokenManager struct {
	*Verifier

	accessTTL  time.Duration
	refreshTTL time.Duration

	storage repository.Storage
}

func New(cfg Config, storage repository.Storage) (*TokenManager, error) {
	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	verifier, err := NewVerifier(cfg.SecretKey, cfg.Alg)
	if err != nil {
		return nil, err
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		Verifier:   verifier,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		storage:    storage,
	}, nil
}

// GeneratePair issues a signed access token and a random refresh token
// persisted for the user
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	return m.generatePair(ctx, m.storage.Refresh(), user)
}

func (m *TokenManager) generatePair(ctx context.Context, refreshRepo repository.RefreshTokenRepo, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			Email: user.Email,
			Role:  string(user.Role),
		},
	)
	access, err := accessToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	b := make([]byte, refreshTokenBytesLen)
	_, err = rand.Read(b)
	if err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	refresh := hex.EncodeToString(b)

	err = refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Refresh redeems a refresh token and returns a fresh pair for its owner.
//
// Consume and reissue run in one transaction: a request aborted midway rolls
// back and the presented token stays valid, so there is no window where the
// old token is gone with no response committed. The delete inside Consume is
// the serialization point under concurrent redemption of the same value.
//
// An expired token is removed as cleanup: the transaction commits with no new
// pair and the caller gets ErrRefreshTokenExpired.
func (m *TokenManager) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair
	var expired bool

	err := m.storage.InTx(ctx, func(st repository.Storage) error {
		token, err := st.Refresh().Consume(ctx, refresh)
		if err != nil {
			return err
		}

		if token.ExpiresAt.Before(time.Now()) {
			// Commit so the cleanup delete sticks
			expired = true
			return nil
		}

		user, err := st.User().GetUserByID(ctx, token.UserID)
		if err != nil {
			return err
		}

		pair, err = m.generatePair(ctx, st.Refresh(), user)
		return err
	})

	switch {
	case err != nil:
		return models.TokenPair{}, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	case expired:
		return models.TokenPair{}, apperrors.ErrRefreshTokenExpired
	default:
		return pair, nil
	}
}

// Revoke drops the refresh token if it is still outstanding. Idempotent
func (m *TokenManager) Revoke(ctx context.Context, refresh string) error {
	err := m.storage.Refresh().Delete(ctx, refresh)
	if err != nil {
		return fmt.Errorf("error while revoking refresh token. Err: %w", err)
	}
	return nil
}

// Prefix returns a short non-reversible token prefix for log correlation.
// Never log the full token value.
func Prefix(token string) string {
	const n = 8
	if len(token) <= n {
		return token
	}
	return token[:n]
}
