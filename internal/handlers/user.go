package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/handlers/principalctx"
	"github.com/quizdeck/identity/internal/handlers/render"
	"github.com/quizdeck/identity/internal/logger"
	"github.com/quizdeck/identity/internal/models"
)

// Header carrying the out-of-band admin elevation secret for role changes
const adminSecretHeader = "X-Admin-Secret-Key"

func handleGetUser(userService userService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		user, err := userService.Get(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				log.Error("get user failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, user.Public())
	})
}

func handleUpdateUserRole(userService userService, log logger.Logger) http.Handler {
	type updateRoleRequest struct {
		Role string `json:"role" validate:"required,role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		targetID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[updateRoleRequest](w, r)
		if err != nil {
			return
		}

		// Validated by the 'role' tag already, parse can't fail here
		role, _ := models.ParseRole(data.Role)

		principal, _ := principalctx.FromContext(r.Context())

		user, err := userService.ChangeRole(r.Context(), principal, targetID, role, r.Header.Get(adminSecretHeader))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrSelfRoleChange):
				render.ServiceError(w, "You cannot change your own role", http.StatusConflict)
			case errors.Is(err, apperrors.ErrElevationSecretMismatch):
				render.ServiceError(w, "Admin role requires a valid admin secret key", http.StatusForbidden)
			case errors.Is(err, apperrors.ErrLastAdmin):
				render.ServiceError(w, "Cannot demote the last admin user", http.StatusConflict)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				log.Error("role change failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, user.Public())
	})
}

func handleDeleteUser(userService userService, log logger.Logger) http.Handler {
	type deleteResponse struct {
		Success bool `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		targetID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		if err := userService.Delete(r.Context(), targetID); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrLastAdmin):
				render.ServiceError(w, "Cannot delete the last admin user", http.StatusConflict)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				log.Error("delete user failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, deleteResponse{Success: true})
	})
}
