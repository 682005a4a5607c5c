package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/config"
	"github.com/hongminglow/projectdesk/internal/http/handlers"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *zap.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Routes builds the full handler tree. Tests mount it on httptest servers.
func Routes(cfg config.Config, store storage.Store, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	handlers.NewHealthHandler(store, logger, time.Now()).Register(mux)
	handlers.NewAuthHandler(store, tokens, logger).Register(mux)
	handlers.NewProjectHandler(store, tokens, logger).Register(mux)
	handlers.NewTaskHandler(store, tokens, logger).Register(mux)
	handlers.NewCommentHandler(store, tokens, logger).Register(mux)
	handlers.NewMemberHandler(store, tokens, logger).Register(mux)
	handlers.NewInviteHandler(store, tokens, logger, cfg.InviteTTL).Register(mux)
	handlers.NewNotificationHandler(store, tokens, logger).Register(mux)
	handlers.NewAdminHandler(store, tokens, logger).Register(mux)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
