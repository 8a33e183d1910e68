package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/gymledger/internal/service"
	"github.com/mansoorceksport/gymledger/internal/telemetry"
)

// PaymentHandler handles payment and billing endpoints
type PaymentHandler struct {
	payments *service.PaymentService
	renewals *service.RenewalService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *service.PaymentService, renewals *service.RenewalService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		renewals: renewals,
	}
}

// Create handles POST /v1/payments
// Records the payment and renews the member's plan from today
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondFail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.MemberID == "" {
		return respondFail(c, fiber.StatusUnprocessableEntity, "member_id is required")
	}

	telemetry.SetSpanAttribute(c, "gym.member_id", req.MemberID)

	result, err := h.renewals.RenewWithPayment(c.UserContext(), req)
	if err != nil {
		return respondError(c, "Payments", err)
	}
	return respondCreated(c, result)
}

// List handles GET /v1/payments
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	payments, err := h.payments.List(c.UserContext())
	if err != nil {
		return respondError(c, "Payments", err)
	}
	return respondOK(c, payments)
}

// Delete handles DELETE /v1/payments/:id
// Notifications that reference the payment are removed with it
func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	if err := h.payments.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, "Payments", err)
	}
	return respondOK(c, fiber.Map{"id": c.Params("id")})
}

// Current handles GET /v1/payments/current
func (h *PaymentHandler) Current(c *fiber.Ctx) error {
	summary, err := h.payments.CurrentBilling(c.UserContext())
	if err != nil {
		return respondError(c, "Payments", err)
	}
	return respondOK(c, summary)
}

// IncomePerMonth handles GET /v1/payments/income-per-month
func (h *PaymentHandler) IncomePerMonth(c *fiber.Ctx) error {
	income, err := h.payments.IncomePerMonth(c.UserContext())
	if err != nil {
		return respondError(c, "Payments", err)
	}
	return respondOK(c, income)
}

// MonthlyBilling handles GET /v1/payments/:month/:year
func (h *PaymentHandler) MonthlyBilling(c *fiber.Ctx) error {
	year, month, ok := billingPeriod(c)
	if !ok {
		return respondFail(c, fiber.StatusBadRequest, "month and year must be numbers")
	}

	summary, err := h.payments.MonthlyBilling(c.UserContext(), year, month)
	if err != nil {
		return respondError(c, "Payments", err)
	}
	return respondOK(c, summary)
}

// Archive handles POST /v1/payments/:month/:year/archive
// Uploads the month's billing summary to object storage
func (h *PaymentHandler) Archive(c *fiber.Ctx) error {
	year, month, ok := billingPeriod(c)
	if !ok {
		return respondFail(c, fiber.StatusBadRequest, "month and year must be numbers")
	}

	archive, err := h.payments.ArchiveMonthlyBilling(c.UserContext(), year, month)
	if err != nil {
		return respondError(c, "Payments", err)
	}
	return respondCreated(c, archive)
}

func billingPeriod(c *fiber.Ctx) (int, time.Month, bool) {
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return 0, 0, false
	}
	return year, time.Month(month), true
}
