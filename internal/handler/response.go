package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/service"
)

func respondOK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func respondCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func respondFail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// respondError maps service errors to HTTP statuses. Unexpected errors are
// logged under tag and answered with a generic message.
func respondError(c *fiber.Ctx, tag string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return respondFail(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return respondFail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		return respondFail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrArchiveDisabled):
		return respondFail(c, fiber.StatusServiceUnavailable, err.Error())
	}

	log.Printf("[%s] %s %s failed: %v", tag, c.Method(), c.Path(), err)
	return respondFail(c, fiber.StatusInternalServerError, "internal server error")
}

// ErrorHandler is the Fiber fallback for errors returned by handlers and middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return respondFail(c, fe.Code, fe.Message)
	}
	return respondError(c, "HTTP", err)
}
