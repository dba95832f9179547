package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventix/internal/config"
	"github.com/joshua-takyi/eventix/internal/connect"
	"github.com/joshua-takyi/eventix/internal/container"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/routes"
	"github.com/joshua-takyi/eventix/internal/services"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("Starting Eventix API server", "environment", cfg.Environment)

	// Initialize database connections
	supaClient, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	pool, err := connect.PostgresConnect(cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		logger.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Postgres successfully")

	redisClient, err := connect.RedisConnect(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Redis successfully")

	mongoClient, err := connect.MongoDBConnect(cfg.MongoDBURI, cfg.MongoDBPassword)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	repos := container.NewRepositories(cfg, supaClient, pool, redisClient, mongoClient)
	if audit, ok := repos.Audit.(*models.MongodbRepo); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := audit.EnsureAuditIndexes(ctx); err != nil {
			logger.Warn("Failed to create audit indexes", "error", err)
		}
		cancel()
	}

	validator, closeValidator, err := setupTokenValidator(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up token validation", "error", err)
		os.Exit(1)
	}

	// Initialize dependency container
	appContainer, err := container.NewContainer(cfg, logger, repos, redisClient, validator)
	if err != nil {
		logger.Error("Failed to build container", "error", err)
		os.Exit(1)
	}

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if cfg.ExpirySweepInterval > 0 {
		go runExpirySweep(sweepCtx, appContainer.CheckoutService, cfg.ExpirySweepInterval, logger)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	stopSweep()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Close database connections
	closeValidator()
	connect.Disconnect()
	connect.PostgresDisconnect()
	if err := connect.RedisDisconnect(); err != nil {
		logger.Error("Error disconnecting from Redis", "error", err)
	}
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

// setupTokenValidator prefers the project's HS256 secret when one is
// configured and otherwise verifies against the Supabase JWKS endpoint.
func setupTokenValidator(cfg *config.Config, logger *slog.Logger) (helpers.TokenValidator, func(), error) {
	if cfg.SupabaseJWTSecret != "" {
		logger.Info("Validating access tokens with the project JWT secret")
		return helpers.NewSecretValidator(cfg.SupabaseJWTSecret), func() {}, nil
	}

	jwks, err := helpers.NewJWKSValidator(context.Background(), cfg.SupabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Validating access tokens against the Supabase JWKS")
	return jwks, jwks.Close, nil
}

// runExpirySweep marks pending bookings whose payment window has passed as
// abandoned. Pending bookings hold no seats, so availability is untouched.
func runExpirySweep(ctx context.Context, checkout *services.CheckoutService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := checkout.ExpirePending(ctx)
			if err != nil {
				logger.Error("Failed to expire pending bookings", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Expired pending bookings", "count", n)
			}
		}
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
