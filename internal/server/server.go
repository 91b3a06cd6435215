// Package server contains the HTTP handlers and route table for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"frontrow/internal/auth"
	"frontrow/internal/cache"
	"frontrow/internal/config"
	"frontrow/internal/database"
	"frontrow/internal/locks"
	"frontrow/internal/middleware"
	"frontrow/internal/models"
	"frontrow/internal/notifications"
	"frontrow/internal/repository"
	"frontrow/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	pool           *middleware.WorkerPool
	rateLimiter    *middleware.RateLimiter
	tokens         *auth.TokenService
	resolver       *auth.Resolver
	notifier       *notifications.Notifier
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables rate limiting storage and notifications.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := newTokenService(cfg)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("frontrow-api"),
		pool:           middleware.NewWorkerPool(cfg.WorkerPoolSize),
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
		tokens:         tokens,
		resolver:       auth.NewResolver(userRepo),
		notifier:       notifications.NewNotifier(redisClient),
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
	}

	// One lock table for every service: a comment lock and a post lock
	// must never be split across instances.
	keyed := locks.NewKeyed()
	server.authService = service.NewAuthService(userRepo, tokens, server.resolver)
	server.postService = service.NewPostService(postRepo, keyed, server.notifier)
	server.commentService = service.NewCommentService(commentRepo, postRepo, keyed, server.notifier)
	server.userService = service.NewUserService(userRepo, tokens, keyed)

	return server, nil
}

func newTokenService(cfg *config.Config) (*auth.TokenService, error) {
	key := []byte(cfg.JWTSecret)
	if len(key) == 0 {
		generated, err := auth.GenerateKey()
		if err != nil {
			return nil, err
		}
		key = generated
		middleware.Logger.Warn("JWT_SECRET not set, using a generated signing key; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenService(key,
		auth.WithTTL(cfg.TokenTTL),
		auth.WithIssuer(cfg.TokenIssuer, cfg.TokenAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	return tokens, nil
}

// App returns the configured Fiber app, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "frontrow API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders anything a handler or middleware let escape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusMethodNotAllowed, fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = models.CodeValidation
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.StructuredLogger())

	app.Use(helmet.New())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.Respond(c, models.NewRateLimitedError())
		},
	}))

	app.Use(middleware.RequestTimeout(s.config.RequestTimeout))
	app.Use(s.pool.Middleware())
	app.Use(middleware.Authenticate(s.tokens, s.resolver))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "frontrow Metrics Dashboard",
	}))

	authed := middleware.RequireAuth()
	admin := middleware.RequireRole(models.RoleAdmin)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", s.rateLimiter.Limit(3, 10*time.Minute, "register"), s.Register)
	authRoutes.Post("/login", s.rateLimiter.Limit(10, 5*time.Minute, "login"), s.Login)
	authRoutes.Post("/validate", s.ValidateToken)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", authed, s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authed, s.CreateComment)
	posts.Patch("/:id/comments/:commentId", authed, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", authed, s.DeleteComment)
	posts.Post("/:id/comments/:commentId/like", authed, s.LikeComment)
	posts.Delete("/:id/comments/:commentId/like", authed, s.UnlikeComment)
	posts.Post("/:id/like", authed, s.LikePost)
	posts.Delete("/:id/like", authed, s.UnlikePost)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", authed, s.UpdatePost)
	posts.Delete("/:id", authed, s.DeletePost)

	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/me", authed, s.GetMyProfile)
	users.Put("/me/username", authed, s.ChangeUsername)
	users.Put("/me/password", authed, s.ChangePassword)
	users.Put("/me/image", authed, s.ChangeImage)
	users.Get("/:id", s.GetUserProfile)
	users.Delete("/:id", admin, s.DeleteUser)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		go func() {
			err := s.notifier.StartPatternSubscriber(s.shutdownCtx, func(channel, payload string) {
				middleware.Logger.Debug("notification delivered",
					slog.String("channel", channel),
					slog.Int("bytes", len(payload)),
				)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				middleware.Logger.Warn("notification subscriber stopped", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
