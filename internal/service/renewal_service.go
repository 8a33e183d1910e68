package service

import (
	"context"
	"log"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/telemetry"
	"github.com/oklog/ulid/v2"
)

// PaymentRequest is a payment taken at the front desk
type PaymentRequest struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
	// Months covered; zero means the plan type's own period
	Months int `json:"months"`
}

// RenewalResult reports what a payment did. PlanExtended is false when the
// payment was stored but the member could not be updated; such payments need
// manual reconciliation.
type RenewalResult struct {
	Payment      *domain.Payment `json:"payment"`
	Member       *domain.Member  `json:"member"`
	PlanExtended bool            `json:"plan_extended"`
}

// RenewalService applies payments and manual renewals to member plans
type RenewalService struct {
	members  domain.MemberRepository
	payments domain.PaymentRepository
	cache    domain.CacheRepository
	metrics  *telemetry.Metrics
	rules    Rules
}

// NewRenewalService creates a new RenewalService. cache and metrics may be nil.
func NewRenewalService(
	members domain.MemberRepository,
	payments domain.PaymentRepository,
	cache domain.CacheRepository,
	metrics *telemetry.Metrics,
	rules Rules,
) *RenewalService {
	return &RenewalService{
		members:  members,
		payments: payments,
		cache:    cache,
		metrics:  metrics,
		rules:    rules,
	}
}

// RenewWithPayment records a payment and extends the member's plan from now.
// The payment is written first; a failed member update afterwards is reported
// in the result instead of as an error because the money was already taken.
func (s *RenewalService) RenewWithPayment(ctx context.Context, req PaymentRequest) (*RenewalResult, error) {
	if req.Amount <= 0 {
		return nil, domain.NewValidationError("amount", "must be greater than zero")
	}
	if req.Months < 0 {
		return nil, domain.NewValidationError("months", "must not be negative")
	}

	member, err := s.members.GetByID(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}

	months := req.Months
	if months == 0 {
		months = member.Plan.Type.Months()
	}

	now := s.rules.now()
	payment := &domain.Payment{
		ReceiptNo:   ulid.Make().String(),
		Amount:      req.Amount,
		Months:      months,
		MemberID:    member.ID,
		ActivityIDs: append([]string(nil), member.ActivityIDs...),
		Date:        now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	result := &RenewalResult{Payment: payment, Member: member}

	previous := member.Plan
	member.Plan.Renew(now, months)
	if err := s.members.Update(ctx, member); err != nil {
		member.Plan = previous
		log.Printf("[Renewal] RECONCILE payment %s (receipt %s) stored but member %s was not extended: %v",
			payment.ID, payment.ReceiptNo, member.ID, err)
	} else {
		result.PlanExtended = true
	}

	s.metrics.PaymentRecorded(ctx, payment.Amount, result.PlanExtended)
	invalidateDashboard(ctx, s.cache)

	log.Printf("[Renewal] Payment %s of %d for member %s, expires %s",
		payment.ReceiptNo, payment.Amount, member.ID, member.Plan.ExpirationDate.Format("2006-01-02"))
	return result, nil
}

// Renew extends a member's plan by one plan period from now without a payment
func (s *RenewalService) Renew(ctx context.Context, memberID string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	member.Plan.Renew(s.rules.now(), member.Plan.Type.Months())
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}

	invalidateDashboard(ctx, s.cache)
	return member, nil
}
