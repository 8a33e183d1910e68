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

// MongoNotificationRepository implements domain.NotificationRepository
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	coll := db.Collection("notifications")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "member", Value: 1}}},
		{
			Keys:    bson.D{{Key: "payment", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})

	return &MongoNotificationRepository{
		collection: coll,
	}
}

func (r *MongoNotificationRepository) CreateMany(ctx context.Context, notifications []*domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		objID := primitive.NewObjectID()
		n.ID = objID.Hex()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}

		doc := bson.M{
			"_id":         objID,
			"kind":        string(n.Kind),
			"title":       n.Title,
			"description": n.Description,
			"member":      n.MemberID,
			"is_unread":   n.IsUnread,
			"created_at":  n.CreatedAt,
		}
		if n.PaymentID != "" {
			doc["payment"] = n.PaymentID
		}
		docs = append(docs, doc)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) List(ctx context.Context) ([]*domain.Notification, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoNotificationRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.Notification, error) {
	return r.find(ctx, bson.M{"created_at": bson.M{"$gte": from, "$lt": to}})
}

func (r *MongoNotificationRepository) ListByKind(ctx context.Context, kind domain.NotificationKind) ([]*domain.Notification, error) {
	return r.find(ctx, bson.M{"kind": string(kind)})
}

func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"is_unread": false}})
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	objIDs := toObjectIDs(ids)
	if len(objIDs) == 0 {
		return 0, nil
	}
	return r.deleteMany(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
}

func (r *MongoNotificationRepository) DeleteByKindCreatedBefore(ctx context.Context, kind domain.NotificationKind, before time.Time) (int64, error) {
	return r.deleteMany(ctx, bson.M{
		"kind":       string(kind),
		"created_at": bson.M{"$lt": before},
	})
}

func (r *MongoNotificationRepository) DeleteByPaymentID(ctx context.Context, paymentID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"payment": paymentID})
}

func (r *MongoNotificationRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MongoNotificationRepository) find(ctx context.Context, filter bson.M) ([]*domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []*domain.Notification{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		notifications = append(notifications, mapBsonToNotification(raw))
	}
	return notifications, cursor.Err()
}

func mapBsonToNotification(raw bson.M) *domain.Notification {
	n := &domain.Notification{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		n.ID = oid.Hex()
	}
	if kind, ok := raw["kind"].(string); ok {
		n.Kind = domain.NotificationKind(kind)
	}
	if title, ok := raw["title"].(string); ok {
		n.Title = title
	}
	if description, ok := raw["description"].(string); ok {
		n.Description = description
	}
	if member, ok := raw["member"].(string); ok {
		n.MemberID = member
	}
	if payment, ok := raw["payment"].(string); ok {
		n.PaymentID = payment
	}
	if unread, ok := raw["is_unread"].(bool); ok {
		n.IsUnread = unread
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		n.CreatedAt = created.Time()
	}

	return n
}
