package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/quizdeck/identity/internal/handlers/middleware"
	"github.com/quizdeck/identity/internal/logger"
	"github.com/quizdeck/identity/internal/models"
	"github.com/quizdeck/identity/internal/ratelimit"
	"github.com/quizdeck/identity/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	verifier middleware.Verifier,
	limiter *ratelimit.Limiter,
	log logger.Logger,
) http.Handler {
	authMiddleware := middleware.NewAuth(verifier, log)
	rateLimit := middleware.RateLimit(limiter)

	// Public routes are throttled by caller IP.
	// Protected routes verify first so the throttle keys on the principal
	public := func(h http.Handler) http.Handler {
		return rateLimit(h)
	}
	protected := func(h http.Handler, guards ...func(http.Handler) http.Handler) http.Handler {
		return authMiddleware.Require(rateLimit(chain(h, guards...)))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /register", public(handleRegister(authService, log)))
	mux.Handle("POST /login", public(handleLogin(authService, log)))
	mux.Handle("POST /refresh", public(handleTokenRefresh(authService, log)))
	mux.Handle("POST /logout", public(handleLogout(authService, log)))

	mux.Handle("GET /verify", protected(handleVerify()))

	mux.Handle("GET /users/{id}", protected(handleGetUser(userService, log), middleware.RequireSelfOrAdmin("id")))
	mux.Handle("PATCH /users/{id}/role", protected(handleUpdateUserRole(userService, log), middleware.RequireAdmin()))
	mux.Handle("DELETE /users/{id}", protected(handleDeleteUser(userService, log), middleware.RequireSelfOrAdmin("id")))

	mux.Handle("GET /ping", handlePing())

	return chain(mux,
		middleware.LoggerMiddleware(log),
	)
}

func handlePing() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
}

type authService interface {
	// Register user. Granting ADMIN needs the matching elevation secret
	// Has to return apperrors.ErrUserAlreadyExists on duplicate email and
	// apperrors.ErrElevationSecretMismatch on a bad secret
	Register(ctx context.Context, params auth.RegisterParams) (models.User, models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrLoginFailed for any bad credential
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Rotate the refresh token into a new pair
	// Expired: apperrors.ErrRefreshTokenExpired
	// Unknown or already consumed: apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke the refresh token, idempotent
	Logout(ctx context.Context, refresh string) error
}

type userService interface {
	Get(ctx context.Context, userID uuid.UUID) (models.User, error)
	ChangeRole(ctx context.Context, actor models.Principal, targetID uuid.UUID, role models.Role, elevationSecret string) (models.User, error)
	Delete(ctx context.Context, targetID uuid.UUID) error
}
