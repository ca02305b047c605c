// Package main is the entry point for the municipal waste-complaint server.
// It provides a REST API for citizens to file complaints with photos and
// geolocation, for admins to triage and assign them to sanitation workers,
// and for workers to mark them resolved.
//
// Architecture:
//   - Complaints, workers and accounts live in PostgreSQL (pgx pool)
//   - Opaque JSON payloads (images, metadata, profiles) are stored
//     gzip-compressed, never as raw JSON
//   - Every status change appends an audit row in the same transaction
//   - All three roles authenticate through one credential path and carry
//     server-signed session tokens; no client-held flag is trusted
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/config"
	"github.com/cleancity/complaint-server/internal/database"
	"github.com/cleancity/complaint-server/internal/handlers"
	"github.com/cleancity/complaint-server/internal/middleware"
	"github.com/cleancity/complaint-server/internal/models"
	"github.com/cleancity/complaint-server/internal/services"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting waste-complaint server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Apply schema migrations
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		sugar.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is optional: rate limiting and the worker cache degrade
	// gracefully without it
	rdb := connectRedis(cfg.RedisURL, sugar)
	if rdb != nil {
		defer rdb.Close()
	}

	// Initialize services
	complaintSvc := services.NewComplaintService(db, sugar)
	historySvc := services.NewHistoryService(db, sugar)
	authSvc := services.NewAuthService(db, sugar, cfg.BcryptCost)
	workerSvc := services.NewWorkerService(db, rdb, sugar)

	// Seed the first admin from configuration; without one nobody could
	// assign complaints or onboard workers
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureAdmin(bootCtx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		bootCancel()
		sugar.Fatalf("Failed to seed admin account: %v", err)
	}
	bootCancel()

	// Initialize handlers
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour
	complaintHandler := handlers.NewComplaintHandler(complaintSvc, historySvc, sugar)
	authHandler := handlers.NewAuthHandler(authSvc, sugar, cfg.JWTSecret, tokenTTL)
	workerHandler := handlers.NewWorkerHandler(workerSvc, authSvc, sugar)
	adminHandler := handlers.NewAdminHandler(authSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(rdb, cfg.RateLimitRPM))

	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	citizenOnly := middleware.RequireRole(models.RoleCitizen)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	workerOnly := middleware.RequireRole(models.RoleWorker)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Authentication (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register) // Citizen self-registration
			r.Post("/login", authHandler.Login)       // All roles
		})

		// Complaint lifecycle
		r.Route("/complaints", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(citizenOnly).Post("/", complaintHandler.Create)
			r.With(adminOnly).Get("/", complaintHandler.List)
			r.With(citizenOnly).Get("/mine", complaintHandler.Mine)
			r.With(workerOnly).Get("/assigned", complaintHandler.Assigned)
			r.With(adminOnly).Get("/stats", complaintHandler.Stats)
			r.Get("/{id}", complaintHandler.Get)
			r.Get("/{id}/history", complaintHandler.History)
			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleWorker)).
				Patch("/{id}", complaintHandler.Update)
		})

		// Worker directory
		r.Route("/workers", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(adminOnly).Get("/", workerHandler.Available)
			r.With(adminOnly).Post("/", workerHandler.Create)
			r.With(adminOnly).Get("/{id}", workerHandler.Get)
			r.With(workerOnly).Put("/availability", workerHandler.SetAvailability)
		})

		// Admin onboarding
		r.Route("/admins", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(adminOnly).Post("/", adminHandler.Create)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

func connectRedis(redisURL string, sugar *zap.SugaredLogger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		sugar.Warnw("Invalid redis URL, continuing without redis", "error", err)
		return nil
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		sugar.Warnw("Redis unreachable, continuing without redis", "error", err)
		rdb.Close()
		return nil
	}
	return rdb
}
