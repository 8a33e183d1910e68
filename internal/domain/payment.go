package domain

import (
	"context"
	"time"
)

// Payment is an append-only ledger entry. Activities are snapshotted from the
// member at payment time so later plan edits do not rewrite revenue history.
type Payment struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	ReceiptNo   string    `bson:"receipt_no" json:"receipt_no"`
	Amount      int64     `bson:"amount" json:"amount"` // Amount in smallest currency unit
	Months      int       `bson:"months,omitempty" json:"months,omitempty"`
	MemberID    string    `bson:"member" json:"member"`
	ActivityIDs []string  `bson:"activities" json:"activities"`
	Date        time.Time `bson:"date" json:"date"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// MonthlyIncome is the summed payment amount of one calendar month
type MonthlyIncome struct {
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	TotalIncome int64      `json:"total_income"`
}

// BillingSummary splits one month's income by the kind of plan paid for
type BillingSummary struct {
	Year              int        `json:"year"`
	Month             time.Month `json:"month"`
	Total             int64      `json:"total"`
	StrengthPayments  int64      `json:"strength_payments"`
	ClassPayments     int64      `json:"class_payments"`
	PromotionPayments int64      `json:"promotion_payments"`
	Count             int        `json:"count"`
}

// PaymentRepository defines persistence operations for payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Payment, error)
	// GetBetween returns payments dated in [from, to)
	GetBetween(ctx context.Context, from, to time.Time) ([]*Payment, error)
	// SumByMonth groups payments dated in [from, to] by calendar month in loc
	SumByMonth(ctx context.Context, from, to time.Time, loc *time.Location) ([]MonthlyIncome, error)
}
