package domain

import (
	"context"
	"time"
)

// Category classifies an activity for promotion pricing and billing
type Category string

const (
	CategoryStrength Category = "strength"
	CategoryClass    Category = "class"
)

// Activity is something a member can sign up for (weights room, a class...)
type Activity struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Available bool      `bson:"available" json:"available"`
	Price     int64     `bson:"price" json:"price"`
	Category  Category  `bson:"category" json:"category"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ActivityRepository defines persistence operations for activities
type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetByID(ctx context.Context, id string) (*Activity, error)
	// GetByIDs returns the activities that exist among ids; missing ids are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*Activity, error)
	ListAvailable(ctx context.Context) ([]*Activity, error)
	Update(ctx context.Context, activity *Activity) error
	Count(ctx context.Context) (int64, error)
}
