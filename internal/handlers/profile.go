package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/astroveda/astro-backend/internal/middleware"
	"github.com/astroveda/astro-backend/internal/models"
	"github.com/astroveda/astro-backend/internal/storage"
)

// ProfileRequest carries the birth details for a horoscope profile.
type ProfileRequest struct {
	Name         string `json:"name" validate:"required"`
	DateOfBirth  string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	TimeOfBirth  string `json:"time_of_birth" validate:"omitempty,datetime=15:04:05"`
	PlaceOfBirth string `json:"place_of_birth"`
	Gender       string `json:"gender"`
	ProfileImage string `json:"profile_image" validate:"omitempty,url"`
}

// ProfileHandler handles the protected profile endpoints.
type ProfileHandler struct {
	store    storage.Store
	validate *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(store storage.Store) *ProfileHandler {
	return &ProfileHandler{
		store:    store,
		validate: validator.New(),
	}
}

// SaveProfile creates or updates the authenticated user's profile.
func (h *ProfileHandler) SaveProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body.",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid input data.",
		})
	}

	profile := &models.UserProfile{
		UserID:       middleware.UserID(c),
		Name:         req.Name,
		DateOfBirth:  req.DateOfBirth,
		TimeOfBirth:  req.TimeOfBirth,
		PlaceOfBirth: req.PlaceOfBirth,
		Gender:       req.Gender,
		ProfileImage: req.ProfileImage,
	}

	saved, err := h.store.SaveProfile(c.Context(), profile)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error saving profile.",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Profile saved successfully.",
		"profile": saved,
	})
}

// GetProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.store.GetProfile(c.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Profile not found.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error fetching profile.",
		})
	}
	return c.JSON(profile)
}
