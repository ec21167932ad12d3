package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/astroveda/astro-backend/internal/services"
	"github.com/astroveda/astro-backend/internal/storage"
)

// HealthHandler reports service, storage and OTP-delivery status.
type HealthHandler struct {
	Version  string
	store    storage.Store
	notifier services.Notifier
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, store storage.Store, notifier services.Notifier) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		store:    store,
		notifier: notifier,
	}
}

// Check returns the health status of the service. The store is probed
// with a lookup expected to miss; only an I/O failure marks it down.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "OK"
	code := fiber.StatusOK

	storeHealthy := true
	_, err := h.store.FindUserByEmailOrPhone(c.Context(), "healthcheck@invalid.local", "")
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		storeHealthy = false
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"service": "Astro Backend",
		"version": h.Version,
		"services": fiber.Map{
			"database": storeHealthy,
			"notifier": notifierChannel(h.notifier),
		},
	})
}

// notifierChannel names the configured OTP delivery channel.
func notifierChannel(n services.Notifier) string {
	switch v := n.(type) {
	case *services.ChannelNotifier:
		switch {
		case v.Email != nil && v.SMS != nil:
			return "email+sms"
		case v.Email != nil:
			return "email"
		case v.SMS != nil:
			return "sms"
		}
		return "none"
	case services.LogNotifier:
		return "log"
	}
	return "custom"
}
