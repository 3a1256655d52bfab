package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/klubhaus/event-signup-api/internal/audit"
	"github.com/klubhaus/event-signup-api/internal/config"
	"github.com/klubhaus/event-signup-api/internal/constants"
	"github.com/klubhaus/event-signup-api/internal/database"
	"github.com/klubhaus/event-signup-api/internal/handlers"
	"github.com/klubhaus/event-signup-api/internal/middleware"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"github.com/klubhaus/event-signup-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	deletionRepo := repository.NewDeletionRepository(db)

	// Initialize audit sink
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	auditor := audit.NewAuditor(db, logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, auditor)
	eventService := services.NewEventService(eventRepo, regRepo)
	registrationService := services.NewRegistrationService(userRepo, eventRepo, regRepo, auditor)
	deletionService := services.NewDeletionService(userRepo, regRepo, deletionRepo, auditor, logger)

	// Initialize middleware
	adminOnly := middleware.RequireAdmin(userRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	accountHandler := handlers.NewAccountHandler(deletionService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Event Signup API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Event routes
		events := api.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.POST("", middleware.RequireAuth(), adminOnly, eventHandler.CreateEvent)
			events.PATCH("/:id", middleware.RequireAuth(), adminOnly, eventHandler.UpdateEvent)

			events.POST("/:id/register", middleware.RequireAuth(), registrationHandler.Register)
			events.DELETE("/:id/registration", middleware.RequireAuth(), registrationHandler.Cancel)
		}

		// Account routes (protected)
		api.DELETE("/account", middleware.RequireAuth(), accountHandler.RequestDeletion)

		// Admin routes; the sweep is driven by an external cron
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(), adminOnly)
		{
			admin.POST("/deletions/sweep", accountHandler.SweepDeletions)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
