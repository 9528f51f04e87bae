// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer, the composition root where handlers,
// services, repositories and middleware are assembled:
//
//	main.go → Config → Server.New():
//	  sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete DB), handlers get services (not
// repositories). Keeping setup out of main.go makes the server testable
// and keeps main minimal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/reviewdb/internal/auth"
	"github.com/sakif/reviewdb/internal/handler"
	"github.com/sakif/reviewdb/internal/mail"
	"github.com/sakif/reviewdb/internal/middleware"
	"github.com/sakif/reviewdb/internal/model"
	sqliteRepo "github.com/sakif/reviewdb/internal/repository/sqlite"
	"github.com/sakif/reviewdb/internal/service"
)

// Config holds server configuration, loaded from the environment in
// main.go and passed around as a single value.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	TokenLifetime time.Duration
}

// Server owns the router and the resources that must be released on
// shutdown, most importantly the database connection (closing it flushes
// the WAL and releases the file lock).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and mounts all routes. The
// mail sender is injected by main: an SMTP sender when configured, a
// log-only sender otherwise.
func New(cfg Config, sender mail.Sender, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenLifetime)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, sender)

	return s, nil
}

// setupRoutes configures middleware and mounts the API.
//
// ROUTE STRUCTURE:
//
//	POST   /api/v1/auth/signup                                       public
//	POST   /api/v1/auth/token                                        public
//	GET    /api/v1/categories, /genres, /titles (+ nested reviews)   public
//	POST/PATCH/DELETE under the same paths                           authenticated, role-checked
//	/api/v1/users...                                                 admin (401 without a token)
//	/api/v1/users/me                                                 any authenticated user
//	GET    /health                                                   public
//
// Most routes run behind OptionalAuth: the caller is resolved when a
// valid token is present, anonymous otherwise, and the service layer
// decides what anonymous is allowed to do. Only /users demands a valid
// token at the middleware level, so a missing token 401s before any
// handler runs.
//
// Middleware order matters: RequestID → RealIP → Recoverer → Logger,
// then auth resolution inside the API subtree.
func (s *Server) setupRoutes(tokens *auth.TokenService, sender mail.Sender) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authService := service.NewAuthService(s.db.Users(), tokens, sender, s.logger)
	userService := service.NewUserService(s.db.Users(), s.logger)
	categoryService := service.NewSlugResourceService(s.db.Categories(), "category",
		func(name, slug string) *model.Category { return &model.Category{Name: name, Slug: slug} },
		s.logger)
	genreService := service.NewSlugResourceService(s.db.Genres(), "genre",
		func(name, slug string) *model.Genre { return &model.Genre{Name: name, Slug: slug} },
		s.logger)
	titleService := service.NewTitleService(s.db.Titles(), s.db.Categories(), s.db.Genres(), s.logger)
	reviewService := service.NewReviewService(s.db.Reviews(), s.db.Titles(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	categoryHandler := handler.NewSlugResourceHandler(categoryService, s.logger)
	genreHandler := handler.NewSlugResourceHandler(genreService, s.logger)
	titleHandler := handler.NewTitleHandler(titleService, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, s.logger)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/token", authHandler.HandleToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens, s.db.Users()))

			r.Get("/categories", categoryHandler.HandleList)
			r.Post("/categories", categoryHandler.HandleCreate)
			r.Delete("/categories/{slug}", categoryHandler.HandleDelete)

			r.Get("/genres", genreHandler.HandleList)
			r.Post("/genres", genreHandler.HandleCreate)
			r.Delete("/genres/{slug}", genreHandler.HandleDelete)

			r.Route("/titles", func(r chi.Router) {
				r.Get("/", titleHandler.HandleList)
				r.Post("/", titleHandler.HandleCreate)
				r.Get("/{titleID}", titleHandler.HandleGet)
				r.Patch("/{titleID}", titleHandler.HandleUpdate)
				r.Delete("/{titleID}", titleHandler.HandleDelete)

				r.Route("/{titleID}/reviews", func(r chi.Router) {
					r.Get("/", reviewHandler.HandleListReviews)
					r.Post("/", reviewHandler.HandleCreateReview)
					r.Get("/{reviewID}", reviewHandler.HandleGetReview)
					r.Patch("/{reviewID}", reviewHandler.HandleUpdateReview)
					r.Delete("/{reviewID}", reviewHandler.HandleDeleteReview)

					r.Route("/{reviewID}/comments", func(r chi.Router) {
						r.Get("/", reviewHandler.HandleListComments)
						r.Post("/", reviewHandler.HandleCreateComment)
						r.Get("/{commentID}", reviewHandler.HandleGetComment)
						r.Patch("/{commentID}", reviewHandler.HandleUpdateComment)
						r.Delete("/{commentID}", reviewHandler.HandleDeleteComment)
					})
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.db.Users()))

			// "me" is registered before "{username}" so chi matches the
			// literal route first and "me" is never read as a username.
			r.Get("/users/me", userHandler.HandleMe)
			r.Patch("/users/me", userHandler.HandleUpdateMe)

			r.Get("/users", userHandler.HandleList)
			r.Post("/users", userHandler.HandleCreate)
			r.Get("/users/{username}", userHandler.HandleGet)
			r.Patch("/users/{username}", userHandler.HandleUpdate)
			r.Delete("/users/{username}", userHandler.HandleDelete)
		})
	})
}

// Start runs the HTTP server until a shutdown signal arrives, then
// drains in-flight requests (30s budget) and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the configured router for httptest-driven tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start.
func (s *Server) Close() error {
	return s.db.Close()
}
