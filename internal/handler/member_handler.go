package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/gymledger/internal/service"
)

// MemberHandler handles member API endpoints
type MemberHandler struct {
	members  *service.MemberService
	renewals *service.RenewalService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(members *service.MemberService, renewals *service.RenewalService) *MemberHandler {
	return &MemberHandler{
		members:  members,
		renewals: renewals,
	}
}

// Create handles POST /v1/members
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req service.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return respondFail(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.members.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, "Members", err)
	}
	return respondCreated(c, member)
}

// List handles GET /v1/members
// Query params: page (default 1), limit (default 10, max 100), search
func (h *MemberHandler) List(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 10))

	result, err := h.members.List(c.UserContext(), c.Query("search"), page, limit)
	if err != nil {
		return respondError(c, "Members", err)
	}
	return respondOK(c, result)
}

// All handles GET /v1/members/all
func (h *MemberHandler) All(c *fiber.Ctx) error {
	members, err := h.members.All(c.UserContext())
	if err != nil {
		return respondError(c, "Members", err)
	}
	return respondOK(c, members)
}

// Get handles GET /v1/members/:id
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	member, err := h.members.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Members", err)
	}
	return respondOK(c, member)
}

// Update handles PUT /v1/members/:id
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	var req service.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return respondFail(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.members.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, "Members", err)
	}
	return respondOK(c, member)
}

// Renew handles PUT /v1/members/:id/renew
// Extends the plan by one period from today without recording a payment
func (h *MemberHandler) Renew(c *fiber.Ctx) error {
	member, err := h.renewals.Renew(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Members", err)
	}
	return respondOK(c, member)
}
