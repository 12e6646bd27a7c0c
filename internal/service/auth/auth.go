package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/logger"
	"github.com/quizdeck/identity/internal/models"
	"github.com/quizdeck/identity/internal/repository"
	"github.com/quizdeck/identity/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Hash of an arbitrary fixed string. Login runs a compare against it when the
// email is unknown so both failure paths cost one bcrypt round.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Config struct {
	// Secret required to grant the ADMIN role at registration.
	// Checked regardless of who is calling. Required to be set
	AdminSecretKey string

	// Hasher used during registration and login
	// Defaults to bcrypt
	Hasher PasswordHasher
}

type RegisterParams struct {
	Email    string
	Password string
	Name     string

	// Requested role, defaults to USER
	Role models.Role

	// Out-of-band secret, required when Role is ADMIN
	AdminSecretKey string
}

// AuthService registers users, authenticates logins and drives token rotation
type AuthService struct {
	token       *tokenmanager.TokenManager
	hasher      PasswordHasher
	adminSecret string
	storage     repository.Storage
	logger      logger.Logger
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage, log logger.Logger) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if cfg.AdminSecretKey == "" {
		return nil, errors.New("admin secret key must not be empty")
	}

	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &AuthService{
		token:       token,
		hasher:      hasher,
		adminSecret: cfg.AdminSecretKey,
		storage:     storage,
		logger:      log,
	}, nil
}

// Register creates a user and issues its first token pair.
// Granting ADMIN requires the elevation secret even though registration is
// unauthenticated, so the check does not depend on any caller identity.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, models.TokenPair, error) {
	var user models.User
	var pair models.TokenPair

	role := params.Role
	if role == "" {
		role = models.RoleUser
	}

	if role.IsAdmin() && !secretsEqual(s.adminSecret, params.AdminSecretKey) {
		return user, pair, apperrors.ErrElevationSecretMismatch
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, pair, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err = s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Email:          strings.ToLower(params.Email),
		HashedPassword: hash,
		Name:           params.Name,
		Role:           role,
	})
	if err != nil {
		return user, pair, err
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Login authenticates with email and password.
// Unknown email and wrong password fail with the same ErrLoginFailed and the
// same amount of hashing work, so responses don't leak which emails exist.
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.storage.User().GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		_ = s.hasher.Compare(dummyPasswordHash, password)
		return models.User{}, pair, apperrors.ErrLoginFailed
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrLoginFailed
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Refresh rotates a refresh token into a new pair
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	pair, err := s.token.Refresh(ctx, refresh)

	switch {
	case err == nil:
		return pair, nil
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		// Absence from the store also covers an already-consumed token, so
		// this may be a replayed value. Log it apart from ordinary expiry
		s.logger.Warn("refresh token not found, possible replay",
			"token_prefix", tokenmanager.Prefix(refresh),
		)
		return pair, err
	default:
		return pair, err
	}
}

// Logout revokes the refresh token. Idempotent, absent tokens are fine
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.token.Revoke(ctx, refresh)
}

func secretsEqual(want string, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
