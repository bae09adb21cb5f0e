package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

const propertyCollectionName = "properties"

// PropertyRepository implements domain.PropertyRepository using MongoDB.
type PropertyRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewPropertyRepository creates the repository and ensures indexes.
func NewPropertyRepository(db *mongo.Database, log *logger.Logger) (*PropertyRepository, error) {
	collection := db.Collection(propertyCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "service_type", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for properties collection", zap.Error(err))
		// Indexes may already exist or be created manually; not fatal at startup.
	} else {
		log.Info("Successfully ensured indexes for properties collection")
	}

	return &PropertyRepository{
		collection: collection,
		logger:     log.Named("PropertyRepository"),
	}, nil
}

// Create inserts a new property. The domain entity gets its generated ID and
// timestamps back.
func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	r.logger.Info("Creating property in DB", zap.String("owner", p.Owner), zap.String("title", p.Title))

	doc, err := fromDomainProperty(p)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Version = 1

	p.ID = doc.ID.Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert property", zap.Error(err))
		return fmt.Errorf("%w: db insert failed: %v", domain.ErrPersistence, err)
	}
	return nil
}

// FindByID retrieves a property by its hex id.
func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc propertyDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrPersistence, err)
	}
	return toDomainProperty(&doc), nil
}

// FindByOwner lists every property owned by ownerID. Used by the user purge
// cascade.
func (r *PropertyRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner": ownerID})
	if err != nil {
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []*propertyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: db cursor all failed: %v", domain.ErrPersistence, err)
	}

	properties := make([]*domain.Property, 0, len(docs))
	for _, doc := range docs {
		properties = append(properties, toDomainProperty(doc))
	}
	return properties, nil
}

func (r *PropertyRepository) UpdateLocation(ctx context.Context, id, ownerID, city string, location domain.GeoPoint) (*domain.Property, error) {
	return r.updateOwned(ctx, id, ownerID, nil, bson.M{
		"city":     city,
		"location": geoPointDocument{Type: location.Type, Coordinates: location.Coordinates},
	})
}

func (r *PropertyRepository) UpdateDetails(ctx context.Context, id, ownerID string, details domain.DetailsUpdate) (*domain.Property, error) {
	return r.updateOwned(ctx, id, ownerID, nil, bson.M{
		"title":         details.Title,
		"description":   details.Description,
		"service_type":  string(details.ServiceType),
		"property_type": details.PropertyType,
		"address":       details.Address,
		"max_adults":    details.MaxAdults,
		"max_childs":    details.MaxChilds,
		"price":         fromDomainPrice(details.Price),
	})
}

func (r *PropertyRepository) UpdateOffers(ctx context.Context, id, ownerID string, offers []string) (*domain.Property, error) {
	return r.updateOwned(ctx, id, ownerID, nil, bson.M{"offers": offers})
}

func (r *PropertyRepository) UpdateNearbyPlaces(ctx context.Context, id, ownerID string, places []string) (*domain.Property, error) {
	return r.updateOwned(ctx, id, ownerID, nil, bson.M{"nearby_places": places})
}

func (r *PropertyRepository) UpdatePrice(ctx context.Context, id, ownerID string, serviceType domain.ServiceType, price domain.Price, deposit float64) (*domain.Property, error) {
	return r.updateOwned(ctx, id, ownerID, nil, bson.M{
		"service_type": string(serviceType),
		"price":        fromDomainPrice(price),
		"deposit":      deposit,
	})
}

func (r *PropertyRepository) ReplaceMainImages(ctx context.Context, id, ownerID string, version int64, images []domain.MediaAsset) (*domain.Property, error) {
	return r.updateOwned(ctx, id, ownerID, &version, bson.M{"main_images": fromDomainAssets(images)})
}

func (r *PropertyRepository) ReplaceRooms(ctx context.Context, id, ownerID string, version int64, rooms []domain.RoomCount, galleries []domain.RoomGallery) (*domain.Property, error) {
	roomDocs := make([]roomCountDocument, 0, len(rooms))
	for _, room := range rooms {
		roomID, err := primitive.ObjectIDFromHex(room.RoomID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid room reference %q", domain.ErrPersistence, room.RoomID)
		}
		roomDocs = append(roomDocs, roomCountDocument{RoomID: roomID, Count: room.Count})
	}
	galleryDocs, err := fromDomainGalleries(galleries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return r.updateOwned(ctx, id, ownerID, &version, bson.M{
		"rooms":        roomDocs,
		"rooms_images": galleryDocs,
	})
}

func (r *PropertyRepository) ReplaceRoomGalleries(ctx context.Context, id, ownerID string, version int64, galleries []domain.RoomGallery) (*domain.Property, error) {
	galleryDocs, err := fromDomainGalleries(galleries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return r.updateOwned(ctx, id, ownerID, &version, bson.M{"rooms_images": galleryDocs})
}

// Delete removes the property record. Media and dependent records are the
// cascade's business, not this method's.
func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
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
	r.logger.Info("Property deleted from DB", zap.String("property_id", id))
	return nil
}

// updateOwned applies a conditional update: the document must still carry
// ownerID (and, when version is given, the expected version) for the write to
// land. A miss is classified so a concurrent writer surfaces as ErrNotOwner
// or ErrOptimisticLock instead of a silent lost update.
func (r *PropertyRepository) updateOwned(ctx context.Context, id, ownerID string, version *int64, set bson.M) (*domain.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	filter := bson.M{"_id": oid, "owner": ownerID}
	if version != nil {
		filter["version"] = *version
	}
	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc propertyDocument
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classifyMiss(ctx, oid, ownerID)
		}
		r.logger.Error("Conditional update failed", zap.String("property_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: db update failed: %v", domain.ErrPersistence, err)
	}
	return toDomainProperty(&doc), nil
}

func (r *PropertyRepository) classifyMiss(ctx context.Context, oid primitive.ObjectID, ownerID string) error {
	var doc propertyDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: db findone failed: %v", domain.ErrPersistence, err)
	}
	if doc.Owner != ownerID {
		return domain.ErrNotOwner
	}
	return domain.ErrOptimisticLock
}
