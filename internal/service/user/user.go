package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/models"
	"github.com/quizdeck/identity/internal/repository"
)

// UserService covers the user-admin operations the authorization guards
// protect: lookups, role changes and deletion
type UserService struct {
	storage     repository.Storage
	adminSecret string
}

func NewService(adminSecretKey string, storage repository.Storage) (*UserService, error) {
	if adminSecretKey == "" {
		return nil, errors.New("admin secret key must not be empty")
	}

	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	return &UserService{
		storage:     storage,
		adminSecret: adminSecretKey,
	}, nil
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

// ChangeRole sets the target user's role on behalf of actor.
//
// Enforced here, where the store is at hand:
//   - a principal never changes its own role, admins included
//   - raising anyone to ADMIN needs the elevation secret no matter the
//     actor's role, so a stolen admin credential alone can't mint admins
//   - demoting the last remaining admin is refused
func (s *UserService) ChangeRole(ctx context.Context, actor models.Principal, targetID uuid.UUID, role models.Role, elevationSecret string) (models.User, error) {
	var updated models.User

	if actor.UserID == targetID {
		return updated, apperrors.ErrSelfRoleChange
	}

	if role.IsAdmin() && subtle.ConstantTimeCompare([]byte(s.adminSecret), []byte(elevationSecret)) != 1 {
		return updated, apperrors.ErrElevationSecretMismatch
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		target, err := st.User().GetUserByID(ctx, targetID)
		if err != nil {
			return err
		}

		if target.Role.IsAdmin() && !role.IsAdmin() {
			admins, err := st.User().CountAdmins(ctx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.ErrLastAdmin
			}
		}

		updated, err = st.User().UpdateUserRole(ctx, targetID, role)
		return err
	})
	if err != nil {
		return updated, fmt.Errorf("can't change user role. Err: %w", err)
	}

	return updated, nil
}

// Delete removes the user. Outstanding refresh tokens cascade with the row.
// Deleting the last admin is refused, the admin count is checked in the same
// transaction as the delete.
func (s *UserService) Delete(ctx context.Context, targetID uuid.UUID) error {
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		target, err := st.User().GetUserByID(ctx, targetID)
		if err != nil {
			return err
		}

		if target.Role.IsAdmin() {
			admins, err := st.User().CountAdmins(ctx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.ErrLastAdmin
			}
		}

		return st.User().DeleteUser(ctx, targetID)
	})
	if err != nil {
		return fmt.Errorf("can't delete user. Err: %w", err)
	}

	return nil
}
