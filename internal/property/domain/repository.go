package domain

import "context"

// DetailsUpdate carries the textual fields of a property update. The price is
// included because changing the service type without a matching price shape
// must be rejected as one unit.
type DetailsUpdate struct {
	Title        string
	Description  string
	ServiceType  ServiceType
	PropertyType string
	Address      string
	MaxAdults    int
	MaxChilds    int
	Price        Price
}

// PropertyRepository is the only component allowed to mutate a property's
// stored state. Update methods are conditional: they only apply when the
// record still belongs to ownerID (and, for media replacement, still carries
// the expected version), so a concurrent writer surfaces as ErrNotOwner or
// ErrOptimisticLock instead of a silent lost update.
type PropertyRepository interface {
	Create(ctx context.Context, p *Property) error
	FindByID(ctx context.Context, id string) (*Property, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*Property, error)

	UpdateLocation(ctx context.Context, id, ownerID, city string, location GeoPoint) (*Property, error)
	UpdateDetails(ctx context.Context, id, ownerID string, details DetailsUpdate) (*Property, error)
	UpdateOffers(ctx context.Context, id, ownerID string, offers []string) (*Property, error)
	UpdateNearbyPlaces(ctx context.Context, id, ownerID string, places []string) (*Property, error)
	UpdatePrice(ctx context.Context, id, ownerID string, serviceType ServiceType, price Price, deposit float64) (*Property, error)

	ReplaceMainImages(ctx context.Context, id, ownerID string, version int64, images []MediaAsset) (*Property, error)
	ReplaceRooms(ctx context.Context, id, ownerID string, version int64, rooms []RoomCount, galleries []RoomGallery) (*Property, error)
	ReplaceRoomGalleries(ctx context.Context, id, ownerID string, version int64, galleries []RoomGallery) (*Property, error)

	Delete(ctx context.Context, id string) error
}

// CommentRepository persists the dependent comment records.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	FindByProperty(ctx context.Context, propertyID string) ([]*Comment, error)
	DeleteByProperty(ctx context.Context, propertyID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// UserRepository exposes the slice of the user record the cascade needs.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// MediaStorage is the remote object store the property media lives in.
// Remove and RemoveMany are idempotent: deleting an already-deleted or
// unknown id is treated as already satisfied.
type MediaStorage interface {
	Upload(ctx context.Context, att Attachment) (MediaAsset, error)
	Remove(ctx context.Context, publicID string) error
	RemoveMany(ctx context.Context, publicIDs []string) error
}

// ScratchStore deletes request-scoped temp files by stored name.
type ScratchStore interface {
	Remove(name string) error
}

// PropertyCache is a read-through cache for property projections. A cache
// error is never fatal; callers fall back to the repository.
type PropertyCache interface {
	Get(ctx context.Context, id string) (*Property, error)
	Set(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id string) error
}
