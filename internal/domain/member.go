package domain

import (
	"context"
	"time"
)

// Member is a gym customer with an embedded plan
type Member struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	Name             string    `bson:"name" json:"name"`
	Email            string    `bson:"email" json:"email"`
	Cellphone        string    `bson:"cellphone" json:"cellphone"`
	BirthDate        time.Time `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	Plan             Plan      `bson:"plan" json:"plan"`
	ActivityIDs      []string  `bson:"activities" json:"activities"`
	AutomaticRenewal bool      `bson:"automatic_renewal" json:"automatic_renewal"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberFilter narrows member listings. Search matches name or email,
// case-insensitively.
type MemberFilter struct {
	Search string
	Skip   int64
	Limit  int64
}

// MemberRepository defines persistence operations for members
type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Member, error)
	Update(ctx context.Context, member *Member) error

	List(ctx context.Context, filter MemberFilter) ([]*Member, error)
	Count(ctx context.Context, filter MemberFilter) (int64, error)
	GetAll(ctx context.Context) ([]*Member, error)

	// Plan window queries (all bounds inclusive)
	GetExpiringBetween(ctx context.Context, from, to time.Time) ([]*Member, error)
	CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	// CountActiveAt counts members with plan.start_date <= at <= plan.expiration_date
	CountActiveAt(ctx context.Context, at time.Time) (int64, error)
}
