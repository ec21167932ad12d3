package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/astroveda/astro-backend/internal/middleware"
	"github.com/astroveda/astro-backend/internal/services"
)

// SignInRequest identifies the account requesting a code. At least one
// of email/phone is required.
type SignInRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
}

// SubmitOTPRequest carries the username (email or phone) and the code.
type SubmitOTPRequest struct {
	Username string `json:"username" validate:"required"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
}

// AuthHandler handles the sign-in endpoints
type AuthHandler struct {
	auth     *services.AuthService
	tokens   *services.TokenService
	validate *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// SignIn requests an OTP for the given email/phone. The code is only
// ever delivered out-of-band, never echoed in the response.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body.",
		})
	}
	if req.Email == "" && req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Email or phone is required!",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid email or phone format.",
		})
	}

	err := h.auth.RequestOTP(c.Context(), req.Email, req.Phone)
	switch {
	case errors.Is(err, services.ErrUserBlocked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "User is blocked due to too many failed attempts.",
		})
	case errors.Is(err, services.ErrTooManyOTPRequests):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "User is blocked due to too many OTP requests.",
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error signing in.",
		})
	}

	return c.JSON(fiber.Map{
		"message": "OTP has been sent to your email/phone.",
	})
}

// SubmitOTP verifies a submitted code and returns a bearer token.
func (h *AuthHandler) SubmitOTP(c *fiber.Ctx) error {
	var req SubmitOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body.",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Username and a 6-digit OTP are required!",
		})
	}

	token, err := h.auth.VerifyOTP(c.Context(), req.Username, req.OTP)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found.",
		})
	case errors.Is(err, services.ErrUserBlocked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "User is blocked due to too many failed attempts.",
		})
	case errors.Is(err, services.ErrInvalidOTP):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid or expired OTP.",
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error verifying OTP.",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "OTP verified successfully.",
		"accessToken": token,
	})
}

// SignOut revokes the presented token. Runs behind RequireAuth, so the
// token is known valid at this point.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	token := c.Get(middleware.TokenHeader)
	if err := h.tokens.Revoke(c.Context(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error signing out.",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Signed out successfully.",
	})
}
