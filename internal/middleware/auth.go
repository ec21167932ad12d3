package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/astroveda/astro-backend/internal/services"
)

// Header carrying the bearer credential on protected requests.
const TokenHeader = "accesstoken"

const userIDKey = "user_id"

// RequireAuth gates a route behind login-token verification. On success
// the owning user id is stored in the request locals for downstream
// handlers; on failure the request short-circuits with 401.
func RequireAuth(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "No token provided!",
			})
		}

		userID, err := tokens.Verify(c.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Unauthorised User!",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Error verifying token.",
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id injected by RequireAuth.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDKey).(uint)
	return id
}
