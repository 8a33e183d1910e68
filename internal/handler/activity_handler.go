package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/gymledger/internal/service"
)

// ActivityHandler handles activity catalog endpoints
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Create handles POST /v1/activities
func (h *ActivityHandler) Create(c *fiber.Ctx) error {
	var req service.ActivityInput
	if err := c.BodyParser(&req); err != nil {
		return respondFail(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.activities.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, "Activities", err)
	}
	return respondCreated(c, activity)
}

// ListAvailable handles GET /v1/activities
func (h *ActivityHandler) ListAvailable(c *fiber.Ctx) error {
	activities, err := h.activities.ListAvailable(c.UserContext())
	if err != nil {
		return respondError(c, "Activities", err)
	}
	return respondOK(c, activities)
}

// Get handles GET /v1/activities/:id
func (h *ActivityHandler) Get(c *fiber.Ctx) error {
	activity, err := h.activities.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Activities", err)
	}
	return respondOK(c, activity)
}

// Update handles PUT /v1/activities/:id
// Only the fields present in the body are changed
func (h *ActivityHandler) Update(c *fiber.Ctx) error {
	var req service.ActivityInput
	if err := c.BodyParser(&req); err != nil {
		return respondFail(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.activities.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, "Activities", err)
	}
	return respondOK(c, activity)
}
