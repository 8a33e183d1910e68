package domain

import (
	"time"
)

// PlanType is a member's billing cycle
type PlanType string

const (
	PlanMonthly    PlanType = "monthly"
	PlanSemiAnnual PlanType = "semiannual"
)

// Valid reports whether t is a known plan type
func (t PlanType) Valid() bool {
	return t == PlanMonthly || t == PlanSemiAnnual
}

// Months returns the number of calendar months one billing period covers
func (t PlanType) Months() int {
	if t == PlanSemiAnnual {
		return 6
	}
	return 1
}

// Plan is embedded in Member and describes its current validity window
type Plan struct {
	Type            PlanType  `bson:"type" json:"type"`
	Promotion       bool      `bson:"promotion" json:"promotion"`
	Price           int64     `bson:"price" json:"price"`
	StartDate       time.Time `bson:"start_date" json:"start_date"`
	ExpirationDate  time.Time `bson:"expiration_date" json:"expiration_date"`
	LastRenewalDate time.Time `bson:"last_renewal_date" json:"last_renewal_date"`
}

// Renew resets the plan relative to now: expiration becomes now + months and
// the renewal timestamp becomes now. Any balance left on the previous period
// is not carried over.
func (p *Plan) Renew(now time.Time, months int) {
	if months <= 0 {
		months = p.Type.Months()
	}
	p.LastRenewalDate = now
	p.ExpirationDate = AddMonths(now, months)
}

// AddMonths advances t by n calendar months in t's location. Day overflow
// rolls forward (Jan 31 + 1 month = Mar 3 in a non-leap year).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// PlanPricing holds the two configured price tiers
type PlanPricing struct {
	BasePrice      int64
	PromotionPrice int64
}

// PlanInput is the raw plan selection coming from a member form
type PlanInput struct {
	Type       PlanType
	StartDate  string
	Promotion  bool
	Activities []*Activity
}

// PlanQuote is the computed price and validity window for a plan selection
type PlanQuote struct {
	Price          int64
	Promotion      bool
	StartDate      time.Time
	ExpirationDate time.Time
}

// CalculatePlan computes price, promotion flag and expiration for a plan selection.
// The promotion tier applies when it is requested explicitly or when the
// activities mix strength training with at least one class.
func CalculatePlan(in PlanInput, pricing PlanPricing, loc *time.Location) (*PlanQuote, error) {
	if !in.Type.Valid() {
		return nil, NewValidationError("plan.type", "must be monthly or semiannual")
	}

	start, err := ParseDate(in.StartDate, loc)
	if err != nil {
		return nil, NewValidationError("plan.start_date", "invalid start date")
	}

	promotion := in.Promotion || IsPromotionEligible(in.Activities)
	price := pricing.BasePrice
	if promotion {
		price = pricing.PromotionPrice
	}

	return &PlanQuote{
		Price:          price,
		Promotion:      promotion,
		StartDate:      start,
		ExpirationDate: AddMonths(start, in.Type.Months()),
	}, nil
}

// IsPromotionEligible reports whether the selection holds both a strength
// training activity and a class
func IsPromotionEligible(activities []*Activity) bool {
	var strength, class bool
	for _, a := range activities {
		if a == nil {
			continue
		}
		switch a.Category {
		case CategoryStrength:
			strength = true
		case CategoryClass:
			class = true
		}
	}
	return strength && class
}
