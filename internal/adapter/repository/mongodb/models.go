package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aqarhub/property-service/internal/property/domain"
)

type geoPointDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type mediaAssetDocument struct {
	URL      string `bson:"url"`
	PublicID string `bson:"public_id"`
}

type roomCountDocument struct {
	RoomID primitive.ObjectID `bson:"_id"`
	Count  int                `bson:"count"`
}

type roomGalleryDocument struct {
	Room   primitive.ObjectID   `bson:"room"`
	Images []mediaAssetDocument `bson:"images"`
}

// propertyDocument is the stored shape of a property. The price field is
// deliberately loose: a plain number for single-priced service types, or a
// {perDay, perMonth} subdocument for the combined rent type. Existing data
// already uses this column shape.
type propertyDocument struct {
	ID           primitive.ObjectID    `bson:"_id,omitempty"`
	City         string                `bson:"city"`
	Location     geoPointDocument      `bson:"location"`
	Title        string                `bson:"title"`
	ServiceType  string                `bson:"service_type"`
	PropertyType string                `bson:"property_type"`
	Address      string                `bson:"address"`
	MaxAdults    int                   `bson:"max_adults"`
	MaxChilds    int                   `bson:"max_childs"`
	Description  string                `bson:"description"`
	Owner        string                `bson:"owner"`
	Offers       []string              `bson:"offers"`
	Rooms        []roomCountDocument   `bson:"rooms"`
	NearbyPlaces []string              `bson:"nearby_places"`
	MainImages   []mediaAssetDocument  `bson:"main_images"`
	RoomsImages  []roomGalleryDocument `bson:"rooms_images"`
	Price        interface{}           `bson:"price"`
	Deposit      float64               `bson:"deposit"`
	CreatedAt    time.Time             `bson:"created_at"`
	UpdatedAt    time.Time             `bson:"updated_at"`
	Version      int64                 `bson:"version"`
}

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      primitive.ObjectID `bson:"user"`
	Property  primitive.ObjectID `bson:"property"`
	Text      string             `bson:"text"`
	Rate      int                `bson:"rate"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type userDocument struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Email        string              `bson:"email"`
	PhotoProfile *mediaAssetDocument `bson:"photo_profile,omitempty"`
}

func fromDomainProperty(p *domain.Property) (*propertyDocument, error) {
	if p == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if p.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("fromDomainProperty: invalid ID %q: %w", p.ID, err)
		}
	}

	rooms := make([]roomCountDocument, 0, len(p.Rooms))
	for _, r := range p.Rooms {
		roomID, err := primitive.ObjectIDFromHex(r.RoomID)
		if err != nil {
			return nil, fmt.Errorf("fromDomainProperty: invalid room reference %q: %w", r.RoomID, err)
		}
		rooms = append(rooms, roomCountDocument{RoomID: roomID, Count: r.Count})
	}

	galleries, err := fromDomainGalleries(p.RoomsImages)
	if err != nil {
		return nil, err
	}

	return &propertyDocument{
		ID:           docID,
		City:         p.City,
		Location:     geoPointDocument{Type: p.Location.Type, Coordinates: p.Location.Coordinates},
		Title:        p.Title,
		ServiceType:  string(p.ServiceType),
		PropertyType: p.PropertyType,
		Address:      p.Address,
		MaxAdults:    p.MaxAdults,
		MaxChilds:    p.MaxChilds,
		Description:  p.Description,
		Owner:        p.Owner,
		Offers:       p.Offers,
		Rooms:        rooms,
		NearbyPlaces: p.NearbyPlaces,
		MainImages:   fromDomainAssets(p.MainImages),
		RoomsImages:  galleries,
		Price:        fromDomainPrice(p.Price),
		Deposit:      p.Deposit,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}, nil
}

func toDomainProperty(d *propertyDocument) *domain.Property {
	if d == nil {
		return nil
	}

	rooms := make([]domain.RoomCount, 0, len(d.Rooms))
	for _, r := range d.Rooms {
		rooms = append(rooms, domain.RoomCount{RoomID: r.RoomID.Hex(), Count: r.Count})
	}

	galleries := make([]domain.RoomGallery, 0, len(d.RoomsImages))
	for _, g := range d.RoomsImages {
		galleries = append(galleries, domain.RoomGallery{RoomID: g.Room.Hex(), Images: toDomainAssets(g.Images)})
	}

	return &domain.Property{
		ID:           d.ID.Hex(),
		City:         d.City,
		Location:     domain.GeoPoint{Type: d.Location.Type, Coordinates: d.Location.Coordinates},
		Title:        d.Title,
		ServiceType:  domain.ServiceType(d.ServiceType),
		PropertyType: d.PropertyType,
		Address:      d.Address,
		MaxAdults:    d.MaxAdults,
		MaxChilds:    d.MaxChilds,
		Description:  d.Description,
		Owner:        d.Owner,
		Offers:       d.Offers,
		Rooms:        rooms,
		NearbyPlaces: d.NearbyPlaces,
		MainImages:   toDomainAssets(d.MainImages),
		RoomsImages:  galleries,
		Price:        toDomainPrice(d.Price),
		Deposit:      d.Deposit,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Version:      d.Version,
	}
}

func fromDomainAssets(assets []domain.MediaAsset) []mediaAssetDocument {
	docs := make([]mediaAssetDocument, 0, len(assets))
	for _, a := range assets {
		docs = append(docs, mediaAssetDocument{URL: a.URL, PublicID: a.PublicID})
	}
	return docs
}

func toDomainAssets(docs []mediaAssetDocument) []domain.MediaAsset {
	assets := make([]domain.MediaAsset, 0, len(docs))
	for _, d := range docs {
		assets = append(assets, domain.MediaAsset{URL: d.URL, PublicID: d.PublicID})
	}
	return assets
}

func fromDomainGalleries(galleries []domain.RoomGallery) ([]roomGalleryDocument, error) {
	docs := make([]roomGalleryDocument, 0, len(galleries))
	for _, g := range galleries {
		roomID, err := primitive.ObjectIDFromHex(g.RoomID)
		if err != nil {
			return nil, fmt.Errorf("invalid room reference %q in gallery: %w", g.RoomID, err)
		}
		docs = append(docs, roomGalleryDocument{Room: roomID, Images: fromDomainAssets(g.Images)})
	}
	return docs, nil
}

// fromDomainPrice stores the union in its historical column shape.
func fromDomainPrice(p domain.Price) interface{} {
	if p.IsComposite() {
		return primitive.M{"perDay": *p.PerDay, "perMonth": *p.PerMonth}
	}
	if p.Single != nil {
		return *p.Single
	}
	return nil
}

// toDomainPrice decodes the loose price column. Numbers come back as
// float64/int32/int64 depending on how they were written; objects as
// primitive.D or primitive.M.
func toDomainPrice(v interface{}) domain.Price {
	switch val := v.(type) {
	case float64:
		return domain.Price{Single: &val}
	case int32:
		f := float64(val)
		return domain.Price{Single: &f}
	case int64:
		f := float64(val)
		return domain.Price{Single: &f}
	case primitive.M:
		return compositeFromMap(map[string]interface{}(val))
	case primitive.D:
		m := make(map[string]interface{}, len(val))
		for _, e := range val {
			m[e.Key] = e.Value
		}
		return compositeFromMap(m)
	}
	return domain.Price{}
}

func compositeFromMap(m map[string]interface{}) domain.Price {
	perDay, okDay := numericValue(m["perDay"])
	perMonth, okMonth := numericValue(m["perMonth"])
	if !okDay || !okMonth {
		return domain.Price{}
	}
	return domain.Price{PerDay: &perDay, PerMonth: &perMonth}
}

func numericValue(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}
