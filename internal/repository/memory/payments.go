package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// PaymentRepository stores payments in memory
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
	// FailCreate makes Create return the given error; used to simulate store outages
	FailCreate error
}

// NewPaymentRepository constructs an empty payment store
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[string]domain.Payment)}
}

func clonePayment(p domain.Payment) *domain.Payment {
	p.ActivityIDs = append([]string(nil), p.ActivityIDs...)
	return &p
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return r.FailCreate
	}
	if payment.ID == "" {
		payment.ID = newID()
	}
	payment.CreatedAt = time.Now()
	r.payments[payment.ID] = *clonePayment(*payment)
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *PaymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	return r.filter(func(domain.Payment) bool { return true }), nil
}

func (r *PaymentRepository) GetBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	return r.filter(func(p domain.Payment) bool {
		return !p.Date.Before(from) && p.Date.Before(to)
	}), nil
}

func (r *PaymentRepository) SumByMonth(ctx context.Context, from, to time.Time, loc *time.Location) ([]domain.MonthlyIncome, error) {
	totals := make(map[string]*domain.MonthlyIncome)
	for _, p := range r.filter(func(p domain.Payment) bool { return within(p.Date, from, to) }) {
		d := p.Date.In(loc)
		key := domain.MonthKey(d.Year(), d.Month())
		if totals[key] == nil {
			totals[key] = &domain.MonthlyIncome{Year: d.Year(), Month: d.Month()}
		}
		totals[key].TotalIncome += p.Amount
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.MonthlyIncome, 0, len(keys))
	for _, k := range keys {
		out = append(out, *totals[k])
	}
	return out, nil
}

func (r *PaymentRepository) filter(keep func(domain.Payment) bool) []*domain.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Payment{}
	for _, p := range r.payments {
		if keep(p) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
