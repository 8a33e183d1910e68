package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoActivityRepository implements domain.ActivityRepository
type MongoActivityRepository struct {
	collection *mongo.Collection
}

func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	coll := db.Collection("activities")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoActivityRepository{
		collection: coll,
	}
}

func (r *MongoActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	now := time.Now()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	objID := primitive.NewObjectID()
	activity.ID = objID.Hex()

	doc := bson.M{
		"_id":        objID,
		"name":       activity.Name,
		"available":  activity.Available,
		"price":      activity.Price,
		"category":   string(activity.Category),
		"created_at": activity.CreatedAt,
		"updated_at": activity.UpdatedAt,
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *MongoActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return mapBsonToActivity(raw), nil
}

func (r *MongoActivityRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Activity, error) {
	objIDs := toObjectIDs(ids)
	if len(objIDs) == 0 {
		return []*domain.Activity{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
}

func (r *MongoActivityRepository) ListAvailable(ctx context.Context) ([]*domain.Activity, error) {
	return r.find(ctx, bson.M{"available": true})
}

func (r *MongoActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	objID, err := primitive.ObjectIDFromHex(activity.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	activity.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":       activity.Name,
			"available":  activity.Available,
			"price":      activity.Price,
			"category":   string(activity.Category),
			"updated_at": activity.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoActivityRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func (r *MongoActivityRepository) find(ctx context.Context, filter bson.M) ([]*domain.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []*domain.Activity{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		activities = append(activities, mapBsonToActivity(raw))
	}
	return activities, cursor.Err()
}

func mapBsonToActivity(raw bson.M) *domain.Activity {
	activity := &domain.Activity{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		activity.ID = oid.Hex()
	}
	if name, ok := raw["name"].(string); ok {
		activity.Name = name
	}
	if available, ok := raw["available"].(bool); ok {
		activity.Available = available
	}
	activity.Price = bsonInt64(raw["price"])
	if category, ok := raw["category"].(string); ok {
		activity.Category = domain.Category(category)
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		activity.CreatedAt = created.Time()
	}
	if updated, ok := raw["updated_at"].(primitive.DateTime); ok {
		activity.UpdatedAt = updated.Time()
	}

	return activity
}
