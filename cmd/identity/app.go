package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/quizdeck/identity/internal/db"
	"github.com/quizdeck/identity/internal/handlers"
	"github.com/quizdeck/identity/internal/logger"
	"github.com/quizdeck/identity/internal/ratelimit"
	"github.com/quizdeck/identity/internal/repository/postgres"
	"github.com/quizdeck/identity/internal/service/auth"
	"github.com/quizdeck/identity/internal/service/auth/tokenmanager"
	"github.com/quizdeck/identity/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	limiter *ratelimit.Limiter
	logger  logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{AdminSecretKey: c.AdminSecretKey}, tokenManager, storage, log)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	userService, err := user.NewService(c.AdminSecretKey, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating user service. Err: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Limit:  c.RateLimitMax,
		Window: c.RateLimitWindow,
	})

	mux := handlers.NewRouter(authService, userService, tokenManager, limiter, log)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		limiter:    limiter,
		logger:     log,
	}, nil
}

// Run starts the http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	// Evict stale rate limit counters until shutdown
	go s.limiter.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
