package handlers

import (
	"errors"
	"net/http"

	"github.com/quizdeck/identity/internal/apperrors"
	"github.com/quizdeck/identity/internal/handlers/principalctx"
	"github.com/quizdeck/identity/internal/handlers/render"
	"github.com/quizdeck/identity/internal/logger"
	"github.com/quizdeck/identity/internal/models"
	"github.com/quizdeck/identity/internal/service/auth"
)

type tokenPairResponse struct {
	User         *models.PublicUser `json:"user,omitempty"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

func handleRegister(authService authService, log logger.Logger) http.Handler {
	type registerRequest struct {
		Email          string `json:"email" validate:"required,email"`
		Password       string `json:"password" validate:"required,min=8"`
		Name           string `json:"name" validate:"required,min=1,max=100"`
		Role           string `json:"role" validate:"omitempty,role"`
		AdminSecretKey string `json:"adminSecretKey"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[registerRequest](w, r)
		if err != nil {
			return
		}

		var role models.Role
		if data.Role != "" {
			// Validated by the 'role' tag already, parse can't fail here
			role, _ = models.ParseRole(data.Role)
		}

		user, pair, err := authService.Register(r.Context(), auth.RegisterParams{
			Email:          data.Email,
			Password:       data.Password,
			Name:           data.Name,
			Role:           role,
			AdminSecretKey: data.AdminSecretKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			case errors.Is(err, apperrors.ErrElevationSecretMismatch):
				render.ServiceError(w, "Admin role requires a valid admin secret key", http.StatusForbidden)
			default:
				log.Error("register failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		public := user.Public()
		render.JSONWithStatus(w, tokenPairResponse{
			User:         &public,
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		}, http.StatusCreated)
	})
}

func handleLogin(authService authService, log logger.Logger) http.Handler {
	type loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[loginRequest](w, r)
		if err != nil {
			return
		}

		user, pair, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrLoginFailed):
				// One body for unknown email and wrong password
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			default:
				log.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		public := user.Public()
		render.JSON(w, tokenPairResponse{
			User:         &public,
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleTokenRefresh(authService authService, log logger.Logger) http.Handler {
	type refreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenExpired):
				render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
				render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			default:
				log.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, tokenPairResponse{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleLogout(authService authService, log logger.Logger) http.Handler {
	type logoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type logoutResponse struct {
		Success bool `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[logoutRequest](w, r)
		if err != nil {
			return
		}

		if err := authService.Logout(r.Context(), data.RefreshToken); err != nil {
			log.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, logoutResponse{Success: true})
	})
}

// handleVerify reports the principal the verification middleware derived.
// Sibling services use it to smoke-test their token plumbing
func handleVerify() http.Handler {
	type verifiedUser struct {
		ID    string      `json:"id"`
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	}
	type verifyResponse struct {
		Authenticated bool         `json:"authenticated"`
		User          verifiedUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := principalctx.FromContext(r.Context())

		render.JSON(w, verifyResponse{
			Authenticated: true,
			User: verifiedUser{
				ID:    principal.UserID.String(),
				Email: principal.Email,
				Role:  principal.Role,
			},
		})
	})
}
