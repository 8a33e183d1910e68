package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// ErrArchiveDisabled is returned when no object storage is configured
var ErrArchiveDisabled = errors.New("billing archive storage is not configured")

// BillingArchive is the result of uploading a monthly billing report
type BillingArchive struct {
	Summary *domain.BillingSummary `json:"summary"`
	URL     string                 `json:"url"`
}

// PaymentService exposes the payment ledger and the billing reports built on it
type PaymentService struct {
	payments      domain.PaymentRepository
	notifications domain.NotificationRepository
	activities    domain.ActivityRepository
	files         domain.FileRepository
	cache         domain.CacheRepository
	rules         Rules
}

// NewPaymentService creates a new PaymentService. files and cache may be nil.
func NewPaymentService(
	payments domain.PaymentRepository,
	notifications domain.NotificationRepository,
	activities domain.ActivityRepository,
	files domain.FileRepository,
	cache domain.CacheRepository,
	rules Rules,
) *PaymentService {
	return &PaymentService{
		payments:      payments,
		notifications: notifications,
		activities:    activities,
		files:         files,
		cache:         cache,
		rules:         rules,
	}
}

// List returns every payment, newest first
func (s *PaymentService) List(ctx context.Context) ([]*domain.Payment, error) {
	return s.payments.List(ctx)
}

// Delete removes a payment and the notifications that reference it
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if err := s.payments.Delete(ctx, id); err != nil {
		return err
	}

	removed, err := s.notifications.DeleteByPaymentID(ctx, id)
	if err != nil {
		return fmt.Errorf("payment %s deleted but notifications were not: %w", id, err)
	}
	if removed > 0 {
		log.Printf("[Payments] Deleted payment %s and %d linked notifications", id, removed)
	}

	invalidateDashboard(ctx, s.cache)
	return nil
}

// MonthlyBilling totals the payments dated in the given calendar month and
// splits them by what was paid for: strength only, classes only, or both
func (s *PaymentService) MonthlyBilling(ctx context.Context, year int, month time.Month) (*domain.BillingSummary, error) {
	if month < time.January || month > time.December {
		return nil, domain.NewValidationError("month", "must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, domain.NewValidationError("year", "is out of range")
	}

	loc := s.rules.loc()
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)

	payments, err := s.payments.GetBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoriesOf(ctx, payments)
	if err != nil {
		return nil, err
	}

	summary := &domain.BillingSummary{Year: year, Month: month, Count: len(payments)}
	for _, p := range payments {
		summary.Total += p.Amount

		var strength, class bool
		for _, id := range p.ActivityIDs {
			switch categories[id] {
			case domain.CategoryStrength:
				strength = true
			case domain.CategoryClass:
				class = true
			}
		}

		switch {
		case strength && class:
			summary.PromotionPayments += p.Amount
		case class:
			summary.ClassPayments += p.Amount
		case strength:
			summary.StrengthPayments += p.Amount
		}
	}
	return summary, nil
}

// CurrentBilling is MonthlyBilling for the current month
func (s *PaymentService) CurrentBilling(ctx context.Context) (*domain.BillingSummary, error) {
	now := s.rules.now()
	return s.MonthlyBilling(ctx, now.Year(), now.Month())
}

// IncomePerMonth returns the trailing twelve months of income, oldest first,
// with empty months reported as zero
func (s *PaymentService) IncomePerMonth(ctx context.Context) ([]domain.MonthlyIncome, error) {
	now := s.rules.now()
	window := newMonthWindow(now, s.rules.loc())

	sums, err := s.payments.SumByMonth(ctx, window.start(), now, s.rules.loc())
	if err != nil {
		return nil, err
	}

	totals := window.bucketIncome(sums)
	out := make([]domain.MonthlyIncome, len(window))
	for i, m := range window {
		out[i] = domain.MonthlyIncome{Year: m.Year(), Month: m.Month(), TotalIncome: totals[i]}
	}
	return out, nil
}

// ArchiveMonthlyBilling uploads the month's billing summary as JSON to object storage
func (s *PaymentService) ArchiveMonthlyBilling(ctx context.Context, year int, month time.Month) (*BillingArchive, error) {
	if s.files == nil {
		return nil, ErrArchiveDisabled
	}

	summary, err := s.MonthlyBilling(ctx, year, month)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode billing summary: %w", err)
	}

	filename := fmt.Sprintf("billing/%s.json", domain.MonthKey(year, month))
	url, err := s.files.Upload(ctx, body, filename, "application/json")
	if err != nil {
		return nil, err
	}

	log.Printf("[Payments] Archived billing %s to %s", domain.MonthKey(year, month), url)
	return &BillingArchive{Summary: summary, URL: url}, nil
}

func (s *PaymentService) categoriesOf(ctx context.Context, payments []*domain.Payment) (map[string]domain.Category, error) {
	var ids []string
	seen := map[string]bool{}
	for _, p := range payments {
		for _, id := range p.ActivityIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	categories := make(map[string]domain.Category, len(ids))
	if len(ids) == 0 {
		return categories, nil
	}

	activities, err := s.activities.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range activities {
		categories[a.ID] = a.Category
	}
	return categories, nil
}
