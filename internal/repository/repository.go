package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/identity/internal/models"
)

type CreateUserParams struct {
	Email          string
	HashedPassword string
	Name           string
	Role           models.Role
}

// User repository interface
type UserRepo interface {
	// Create user with lower-cased email
	// If a user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id or canonical email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Set user role and bump updated_at
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error)

	// Delete user. Outstanding refresh tokens go with it (FK cascade)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Number of users with ADMIN role, used by last-admin protection
	CountAdmins(ctx context.Context) (int, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Persist a freshly issued token
	Save(ctx context.Context, token models.RefreshToken) error

	// Atomically remove the token and return the removed row.
	// This delete is the redemption serialization point: under concurrent
	// redemption of the same value exactly one caller gets the row, every
	// other caller must get apperrors.ErrRefreshTokenNotFound.
	Consume(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Remove the token if present. No error when it is already absent
	Delete(ctx context.Context, tokenString string) error
}

// Storage aggregates repositories and transaction control
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo

	// Run fn within a database transaction. Rolled back when fn errors
	InTx(ctx context.Context, fn func(Storage) error) error
}
