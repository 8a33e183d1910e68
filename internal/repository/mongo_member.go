package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMemberRepository implements domain.MemberRepository
type MongoMemberRepository struct {
	collection *mongo.Collection
}

func NewMongoMemberRepository(db *mongo.Database) *MongoMemberRepository {
	coll := db.Collection("members")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "plan.expiration_date", Value: 1}}},
		{Keys: bson.D{{Key: "plan.start_date", Value: 1}, {Key: "plan.expiration_date", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})

	return &MongoMemberRepository{
		collection: coll,
	}
}

func (r *MongoMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now
	objID := primitive.NewObjectID()
	member.ID = objID.Hex()

	doc := memberToBson(member)
	doc["_id"] = objID
	doc["created_at"] = member.CreatedAt

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (r *MongoMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return mapBsonToMember(raw), nil
}

func (r *MongoMemberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return mapBsonToMember(raw), nil
}

func (r *MongoMemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Member, error) {
	objIDs := toObjectIDs(ids)
	if len(objIDs) == 0 {
		return []*domain.Member{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, nil)
}

func (r *MongoMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	objID, err := primitive.ObjectIDFromHex(member.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	member.UpdatedAt = time.Now()
	update := bson.M{"$set": memberToBson(member)}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to update member: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoMemberRepository) List(ctx context.Context, filter domain.MemberFilter) ([]*domain.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	return r.find(ctx, memberSearchQuery(filter.Search), opts)
}

func (r *MongoMemberRepository) Count(ctx context.Context, filter domain.MemberFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, memberSearchQuery(filter.Search))
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (r *MongoMemberRepository) GetAll(ctx context.Context) ([]*domain.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoMemberRepository) GetExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Member, error) {
	return r.find(ctx, expiringQuery(from, to), nil)
}

func (r *MongoMemberRepository) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, expiringQuery(from, to))
	if err != nil {
		return 0, fmt.Errorf("failed to count expiring members: %w", err)
	}
	return count, nil
}

func (r *MongoMemberRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("failed to count new members: %w", err)
	}
	return count, nil
}

func (r *MongoMemberRepository) CountActiveAt(ctx context.Context, at time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"plan.start_date":      bson.M{"$lte": at},
		"plan.expiration_date": bson.M{"$gte": at},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return count, nil
}

func (r *MongoMemberRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Member, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find members: %w", err)
	}
	defer cursor.Close(ctx)

	members := []*domain.Member{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode member: %w", err)
		}
		members = append(members, mapBsonToMember(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

func memberSearchQuery(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"email": pattern},
	}}
}

func expiringQuery(from, to time.Time) bson.M {
	return bson.M{"plan.expiration_date": bson.M{"$gte": from, "$lte": to}}
}

func memberToBson(member *domain.Member) bson.M {
	doc := bson.M{
		"name":      member.Name,
		"email":     member.Email,
		"cellphone": member.Cellphone,
		"plan": bson.M{
			"type":              string(member.Plan.Type),
			"promotion":         member.Plan.Promotion,
			"price":             member.Plan.Price,
			"start_date":        member.Plan.StartDate,
			"expiration_date":   member.Plan.ExpirationDate,
			"last_renewal_date": member.Plan.LastRenewalDate,
		},
		"activities":        stringsOrEmpty(member.ActivityIDs),
		"automatic_renewal": member.AutomaticRenewal,
		"updated_at":        member.UpdatedAt,
	}
	if !member.BirthDate.IsZero() {
		doc["birth_date"] = member.BirthDate
	}
	return doc
}

func mapBsonToMember(raw bson.M) *domain.Member {
	member := &domain.Member{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		member.ID = oid.Hex()
	}
	if name, ok := raw["name"].(string); ok {
		member.Name = name
	}
	if email, ok := raw["email"].(string); ok {
		member.Email = email
	}
	if cellphone, ok := raw["cellphone"].(string); ok {
		member.Cellphone = cellphone
	}
	if birth, ok := raw["birth_date"].(primitive.DateTime); ok {
		member.BirthDate = birth.Time()
	}
	if plan, ok := raw["plan"].(bson.M); ok {
		if planType, ok := plan["type"].(string); ok {
			member.Plan.Type = domain.PlanType(planType)
		}
		if promotion, ok := plan["promotion"].(bool); ok {
			member.Plan.Promotion = promotion
		}
		member.Plan.Price = bsonInt64(plan["price"])
		if start, ok := plan["start_date"].(primitive.DateTime); ok {
			member.Plan.StartDate = start.Time()
		}
		if expiration, ok := plan["expiration_date"].(primitive.DateTime); ok {
			member.Plan.ExpirationDate = expiration.Time()
		}
		if renewal, ok := plan["last_renewal_date"].(primitive.DateTime); ok {
			member.Plan.LastRenewalDate = renewal.Time()
		}
	}
	member.ActivityIDs = bsonStrings(raw["activities"])
	if renewal, ok := raw["automatic_renewal"].(bool); ok {
		member.AutomaticRenewal = renewal
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		member.CreatedAt = created.Time()
	}
	if updated, ok := raw["updated_at"].(primitive.DateTime); ok {
		member.UpdatedAt = updated.Time()
	}

	return member
}
