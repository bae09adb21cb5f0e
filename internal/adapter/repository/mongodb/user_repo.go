package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

const userCollectionName = "users"

// UserRepository gives the purge cascade read and delete access to user
// records. Account management itself lives in another service.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection(userCollectionName),
		logger:     log.Named("UserRepository"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrPersistence, err)
	}

	user := &domain.User{
		ID:    doc.ID.Hex(),
		Email: doc.Email,
	}
	if doc.PhotoProfile != nil {
		user.PhotoProfile = &domain.MediaAsset{
			URL:      doc.PhotoProfile.URL,
			PublicID: doc.PhotoProfile.PublicID,
		}
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%w: db delete failed: %v", domain.ErrPersistence, err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("User deleted from DB", zap.String("user_id", id))
	return nil
}
