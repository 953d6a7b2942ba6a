// Package server serves the room-booking pages. Every page is rendered on
// the server from backend data fetched with the visitor's session cookie.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/roomly-dev/roomly/internal/api"
	"github.com/roomly-dev/roomly/internal/config"
	"github.com/roomly-dev/roomly/internal/guard"
	"github.com/roomly-dev/roomly/internal/identity"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	api       *api.Client
	guard     *guard.Guard
	flash     *sessions.CookieStore
	firebase  *identity.Firebase
	google    *identity.GoogleFlow
	templates *template.Template
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		api:       api.New(cfg.API.BaseURL(), cfg.API.Timeout),
		guard:     guard.New(cfg.Guard.Protected, cfg.Guard.AuthOnly),
		flash:     newFlashStore(cfg.Server.SessionSecret, cfg.Server.CookieSecure),
		templates: templates,
		version:   version,
	}

	if cfg.Server.SessionSecret == "" {
		zlog.Warn().Msg("SESSION_SECRET not set - pending toasts are lost on restart")
	}

	// Without an API key, credentials go to the backend directly
	if cfg.Identity.FirebaseAPIKey != "" {
		server.firebase = identity.NewFirebase(cfg.Identity.FirebaseAPIKey, cfg.Identity.FirebaseAuthURL, cfg.API.Timeout)
	} else {
		zlog.Info().Msg("No Firebase API key - password login goes straight to the backend")
	}

	if cfg.Identity.GoogleEnabled() {
		server.google = identity.NewGoogleFlow(identity.GoogleConfig{
			ClientID:     cfg.Identity.GoogleClientID,
			ClientSecret: cfg.Identity.GoogleClientSecret,
			RedirectURL:  cfg.Identity.GoogleRedirectURL,
		}, server.firebase)
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.SetHTMLTemplate(s.templates)

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/health", s.healthCheck)

	// JSON endpoints called from browser scripts
	apiGroup := s.router.Group(config.APIVersionPath)
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	{
		apiGroup.POST("/auth/firebase-login", s.firebaseLogin)
	}

	// Pages, behind the route guard
	pages := s.router.Group("/")
	pages.Use(s.guard.Middleware(s.logger))
	{
		public := pages.Group("/")
		public.Use(s.withSession(false))
		{
			public.GET("/", s.home)
			public.GET("/login", s.loginPage)
			public.POST("/login", s.loginSubmit)
			public.GET("/register", s.registerPage)
			public.POST("/register", s.registerSubmit)
			public.POST("/logout", s.logout)
			public.GET("/auth/google", s.googleStart)
			public.GET("/auth/google/callback", s.googleCallback)
			public.GET("/spaces", s.listSpaces)
			public.GET("/spaces/:id", s.getSpace)
		}

		private := pages.Group("/")
		private.Use(s.withSession(true))
		{
			private.GET("/dashboard", s.dashboard)
			private.GET("/profile", s.profilePage)
			private.POST("/profile", s.profileSubmit)
			private.GET("/reservations", s.listReservations)
			private.GET("/reservations/:id", s.reservationDetail)
			private.GET("/reservations/:id/edit", s.editReservationPage)
			private.POST("/reservations/:id/edit", s.editReservationSubmit)
			private.POST("/reservations/:id/delete", s.deleteReservation)
			private.GET("/reserve/:roomId", s.reservePage)
			private.POST("/reserve/:roomId", s.reserveSubmit)
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		s.render(c, http.StatusNotFound, "error.tmpl", gin.H{"Message": "Page not found"})
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "roomly-web",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.Server.ListenAddr

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("api_url", s.api.BaseURL()).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
