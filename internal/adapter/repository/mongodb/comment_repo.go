package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

const commentCollectionName = "comments"

// CommentRepository implements domain.CommentRepository using MongoDB.
type CommentRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewCommentRepository(db *mongo.Database, log *logger.Logger) (*CommentRepository, error) {
	collection := db.Collection(commentCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "property", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for comments collection", zap.Error(err))
	}

	return &CommentRepository{
		collection: collection,
		logger:     log.Named("CommentRepository"),
	}, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	doc, err := fromDomainComment(c)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	c.ID = doc.ID.Hex()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert comment", zap.Error(err))
		return fmt.Errorf("%w: db insert failed: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (r *CommentRepository) FindByProperty(ctx context.Context, propertyID string) ([]*domain.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	cursor, err := r.collection.Find(ctx, bson.M{"property": oid})
	if err != nil {
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []*commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: db cursor all failed: %v", domain.ErrPersistence, err)
	}

	comments := make([]*domain.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, toDomainComment(doc))
	}
	return comments, nil
}

// DeleteByProperty removes every comment attached to propertyID. Zero
// deletions is not an error; the cascade treats it as already clean.
func (r *CommentRepository) DeleteByProperty(ctx context.Context, propertyID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return 0, domain.ErrNotFound
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"property": oid})
	if err != nil {
		return 0, fmt.Errorf("%w: db delete failed: %v", domain.ErrPersistence, err)
	}
	r.logger.Info("Comments deleted for property",
		zap.String("property_id", propertyID),
		zap.Int64("count", result.DeletedCount))
	return result.DeletedCount, nil
}

func (r *CommentRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, domain.ErrNotFound
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"user": oid})
	if err != nil {
		return 0, fmt.Errorf("%w: db delete failed: %v", domain.ErrPersistence, err)
	}
	return result.DeletedCount, nil
}

func fromDomainComment(c *domain.Comment) (*commentDocument, error) {
	propertyID, err := primitive.ObjectIDFromHex(c.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("invalid property reference %q", c.PropertyID)
	}
	userID, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user reference %q", c.UserID)
	}
	return &commentDocument{
		Property: propertyID,
		User:     userID,
		Text:     c.Text,
		Rate:     c.Rate,
	}, nil
}

func toDomainComment(d *commentDocument) *domain.Comment {
	return &domain.Comment{
		ID:         d.ID.Hex(),
		PropertyID: d.Property.Hex(),
		UserID:     d.User.Hex(),
		Text:       d.Text,
		Rate:       d.Rate,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
