package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/astroveda/astro-backend/internal/handlers"
	"github.com/astroveda/astro-backend/internal/middleware"
	"github.com/astroveda/astro-backend/internal/services"
	"github.com/astroveda/astro-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, auth *services.AuthService, tokens *services.TokenService, notifier services.Notifier) {
	authHandler := handlers.NewAuthHandler(auth, tokens)
	profileHandler := handlers.NewProfileHandler(store)
	healthHandler := handlers.NewHealthHandler("1.0.0", store, notifier)

	app.Get("/health", healthHandler.Check)

	// Public sign-in flow
	authRoutes := app.Group("/auth")
	authRoutes.Post("/signin", authHandler.SignIn)
	authRoutes.Post("/submit-otp", authHandler.SubmitOTP)
	authRoutes.Post("/signout", middleware.RequireAuth(tokens), authHandler.SignOut)

	// Everything under /api requires a valid login token
	api := app.Group("/api", middleware.RequireAuth(tokens))
	api.Get("/profile", profileHandler.GetProfile)
	api.Post("/profile", profileHandler.SaveProfile)
}
