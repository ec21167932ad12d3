package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/astroveda/astro-backend/database"
	"github.com/astroveda/astro-backend/internal/jobs"
	"github.com/astroveda/astro-backend/internal/models"
	"github.com/astroveda/astro-backend/internal/routes"
	"github.com/astroveda/astro-backend/internal/services"
	"github.com/astroveda/astro-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize storage
	var store storage.Store

	switch {
	case os.Getenv("USE_MEMORY_STORE") == "true":
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()

	case os.Getenv("USE_REDIS_STORE") == "true":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		log.Printf("📦 Using Redis storage at %s", addr)
		store = storage.NewRedisStore(addr, os.Getenv("REDIS_PASSWORD"), 0)

	default:
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.UserOTP{},
			&models.LoginToken{},
			&models.UserProfile{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Initialize the OTP notifier: email and/or SMS when configured,
	// log-only fallback for development.
	notifier := buildNotifier()

	// Initialize services
	tokenService := services.NewTokenService(store, jwtSecret)
	authService := services.NewAuthService(store, tokenService, notifier)

	// Start the expired-credential cleanup job
	cleanupJob := jobs.NewCleanupJob(store, time.Hour)
	cleanupJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Astro Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, accesstoken",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Setup routes
	routes.SetupRoutes(app, store, authService, tokenService, notifier)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		cleanupJob.Stop()
		_ = app.Shutdown()
	}()

	log.Printf("🚀 Astro Backend starting on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

// buildNotifier assembles the OTP delivery channels from the environment.
func buildNotifier() services.Notifier {
	channels := &services.ChannelNotifier{}

	if email, err := services.NewEmailNotifier(); err != nil {
		log.Printf("⚠️  Email delivery disabled: %v", err)
	} else {
		channels.Email = email
		log.Println("✅ SMTP email delivery configured")
	}

	if sms, err := services.NewTwilioNotifier(); err != nil {
		log.Printf("⚠️  SMS delivery disabled: %v", err)
	} else {
		channels.SMS = sms
		log.Println("✅ Twilio SMS delivery configured")
	}

	if channels.Email == nil && channels.SMS == nil {
		log.Println("⚠️  No delivery channel configured - logging OTPs instead")
		return services.LogNotifier{}
	}
	return channels
}
