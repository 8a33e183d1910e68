package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/service"
)

// JobRunner runs the daily notification job on demand
type JobRunner interface {
	Run(ctx context.Context) (*domain.JobSummary, error)
}

// NotificationHandler handles the notification feed and the manual job trigger
type NotificationHandler struct {
	notifications *service.NotificationService
	job           JobRunner
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *service.NotificationService, job JobRunner) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		job:           job,
	}
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	notifications, err := h.notifications.List(c.UserContext())
	if err != nil {
		return respondError(c, "Notifications", err)
	}
	return respondOK(c, notifications)
}

// MarkRead handles PATCH /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, "Notifications", err)
	}
	return respondOK(c, fiber.Map{"id": c.Params("id"), "is_unread": false})
}

// Run handles POST /v1/notifications/run
// Runs the same job the scheduler triggers daily and returns its summary
func (h *NotificationHandler) Run(c *fiber.Ctx) error {
	summary, err := h.job.Run(c.UserContext())
	if err != nil {
		return respondError(c, "Notifications", err)
	}
	return respondOK(c, summary)
}
