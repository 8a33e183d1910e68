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

// MongoPaymentRepository implements domain.PaymentRepository
type MongoPaymentRepository struct {
	collection *mongo.Collection
}

func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	coll := db.Collection("payments")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "member", Value: 1}}},
		{
			Keys: bson.D{{Key: "receipt_no", Value: 1}},
			// payments imported without a receipt share the empty value
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"receipt_no": bson.M{"$gt": ""}}),
		},
	})

	return &MongoPaymentRepository{
		collection: coll,
	}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	payment.CreatedAt = time.Now()
	objID := primitive.NewObjectID()
	payment.ID = objID.Hex()

	doc := bson.M{
		"_id":        objID,
		"receipt_no": payment.ReceiptNo,
		"amount":     payment.Amount,
		"member":     payment.MemberID,
		"activities": stringsOrEmpty(payment.ActivityIDs),
		"date":       payment.Date,
		"created_at": payment.CreatedAt,
	}
	if payment.Months > 0 {
		doc["months"] = payment.Months
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return mapBsonToPayment(raw), nil
}

func (r *MongoPaymentRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoPaymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoPaymentRepository) GetBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	return r.find(ctx, bson.M{"date": bson.M{"$gte": from, "$lt": to}})
}

// SumByMonth buckets payments by the calendar month of their date in loc
func (r *MongoPaymentRepository) SumByMonth(ctx context.Context, from, to time.Time, loc *time.Location) ([]domain.MonthlyIncome, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"date": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": bson.M{"date": "$date", "timezone": loc.String()}},
				"month": bson.M{"$month": bson.M{"date": "$date", "timezone": loc.String()}},
			},
			"total": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate income: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode income: %w", err)
	}

	incomes := make([]domain.MonthlyIncome, 0, len(rows))
	for _, row := range rows {
		incomes = append(incomes, domain.MonthlyIncome{
			Year:        row.ID.Year,
			Month:       time.Month(row.ID.Month),
			TotalIncome: row.Total,
		})
	}
	return incomes, nil
}

func (r *MongoPaymentRepository) find(ctx context.Context, filter bson.M) ([]*domain.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []*domain.Payment{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode payment: %w", err)
		}
		payments = append(payments, mapBsonToPayment(raw))
	}
	return payments, cursor.Err()
}

func mapBsonToPayment(raw bson.M) *domain.Payment {
	payment := &domain.Payment{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	if receipt, ok := raw["receipt_no"].(string); ok {
		payment.ReceiptNo = receipt
	}
	payment.Amount = bsonInt64(raw["amount"])
	payment.Months = int(bsonInt64(raw["months"]))
	if member, ok := raw["member"].(string); ok {
		payment.MemberID = member
	}
	payment.ActivityIDs = bsonStrings(raw["activities"])
	if date, ok := raw["date"].(primitive.DateTime); ok {
		payment.Date = date.Time()
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		payment.CreatedAt = created.Time()
	}

	return payment
}
