package domain

import "time"

// ServiceType tells how a property is offered on the platform.
type ServiceType string

const (
	ServiceSell           ServiceType = "sell"
	ServiceRentByDay      ServiceType = "rent by day"
	ServiceRentByMonth    ServiceType = "rent by month"
	ServiceRentDayAndMonth ServiceType = "rent by day & month"
)

// IsValid checks if the ServiceType is one of the defined constants.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceSell, ServiceRentByDay, ServiceRentByMonth, ServiceRentDayAndMonth:
		return true
	}
	return false
}

// RequiresCompositePrice reports whether this service type is priced with a
// {perDay, perMonth} pair instead of a single amount.
func (s ServiceType) RequiresCompositePrice() bool {
	return s == ServiceRentDayAndMonth
}

// GeoPoint is a GeoJSON point: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string
	Coordinates []float64
}

// MediaAsset identifies one stored image: the public URL and the remote
// object's id used to delete it later. Both fields are always set; a partial
// asset is never constructed.
type MediaAsset struct {
	URL      string
	PublicID string
}

// Price is a union keyed by the property's ServiceType: a single amount for
// sell / rent by day / rent by month, or a perDay+perMonth pair for the
// combined rent type. Exactly one of the two shapes is populated.
type Price struct {
	Single   *float64
	PerDay   *float64
	PerMonth *float64
}

// IsComposite reports whether the price carries the perDay+perMonth shape.
func (p Price) IsComposite() bool {
	return p.PerDay != nil && p.PerMonth != nil
}

// MatchesServiceType reports whether the price shape is the one the given
// service type requires, with all populated amounts non-negative.
func (p Price) MatchesServiceType(s ServiceType) bool {
	if s.RequiresCompositePrice() {
		return p.Single == nil && p.IsComposite() && *p.PerDay >= 0 && *p.PerMonth >= 0
	}
	return p.Single != nil && p.PerDay == nil && p.PerMonth == nil && *p.Single >= 0
}

// RoomCount declares how many rooms of one room type the property has.
type RoomCount struct {
	RoomID string
	Count  int
}

// RoomGallery holds the images of one declared room type.
type RoomGallery struct {
	RoomID string
	Images []MediaAsset
}

// MainImageCount is how many main images every property carries.
const MainImageCount = 5

// Property is the aggregate root. It exclusively owns its media: deleting the
// property deletes every MediaAsset it references from the remote store.
type Property struct {
	ID           string
	City         string
	Location     GeoPoint
	Title        string
	ServiceType  ServiceType
	PropertyType string
	Address      string
	MaxAdults    int
	MaxChilds    int
	Description  string
	Owner        string
	Offers       []string
	Rooms        []RoomCount
	NearbyPlaces []string
	MainImages   []MediaAsset
	RoomsImages  []RoomGallery
	Price        Price
	Deposit      float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64 // For optimistic locking on media replacement
}

// AllAssets returns every MediaAsset the property references: the main set
// plus every room gallery. Used by the deletion cascade.
func (p *Property) AllAssets() []MediaAsset {
	assets := make([]MediaAsset, 0, len(p.MainImages))
	assets = append(assets, p.MainImages...)
	for _, g := range p.RoomsImages {
		assets = append(assets, g.Images...)
	}
	return assets
}

// Comment is a dependent record referencing a property. Comments are deleted
// en masse when the property or their author is deleted.
type Comment struct {
	ID         string
	UserID     string
	PropertyID string
	Text       string
	Rate       int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// User is carried only as a cascade target: purging a user removes all owned
// properties (with their media) and the profile photo.
type User struct {
	ID           string
	Email        string
	PhotoProfile *MediaAsset
}

// Attachment is a transient local copy of one uploaded file. It lives in the
// scratch store for the duration of a single request and is deleted
// unconditionally by the time that request returns.
type Attachment struct {
	FieldKey   string // multipart field key the file arrived under
	StoredName string // name inside the scratch store, used for deletion
	Path       string // absolute path on local storage
	Size       int64
}
