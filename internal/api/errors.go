package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/Lumos-Labs-HQ/datagen/internal/store"
	"github.com/gofiber/fiber/v2"
)

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(kind, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(kind, service.ErrForbidden), errors.Is(kind, service.ErrLimitExceeded):
		return fiber.StatusForbidden
	case errors.Is(kind, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(kind, service.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler renders every error as {"error": ..., "message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		body := fiber.Map{"error": svcErr.Title}
		if svcErr.Message != "" {
			body["message"] = svcErr.Message
		}
		return c.Status(statusFor(svcErr.Kind)).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   http.StatusText(fe.Code),
			"message": fe.Message,
		})
	}

	log.Printf("[SERVER] Error: %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal Server Error",
		"message": "Something went wrong",
	})
}
