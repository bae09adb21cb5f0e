package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aqarhub/property-service/internal/property/domain"
)

// RoomImagesDecl is one entry of the client-submitted roomsImages metadata
// list. Its position in the list is what the matcher probes field keys with.
type RoomImagesDecl struct {
	Room string `json:"room"`
}

// PropertyInput is the fully normalized create payload. Scalar bounds are
// declared as validator tags; cross-field rules (price shape, room/gallery
// correspondence, reference syntax) live in Validate.
type PropertyInput struct {
	City         string `validate:"required"`
	Location     domain.GeoPoint
	Title        string             `validate:"required,min=10"`
	ServiceType  domain.ServiceType `validate:"required"`
	PropertyType string             `validate:"required"`
	Address      string             `validate:"required"`
	MaxAdults    int                `validate:"min=1"`
	MaxChilds    int                `validate:"min=0"`
	Description  string             `validate:"required,min=30"`
	Offers       []string
	Rooms        []domain.RoomCount
	NearbyPlaces []string
	RoomsImages  []RoomImagesDecl
	Price        domain.Price
	Deposit      float64 `validate:"min=0"`
}

type locationPayload struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type roomCountPayload struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

type compositePricePayload struct {
	PerDay   *float64 `json:"perDay"`
	PerMonth *float64 `json:"perMonth"`
}

// Normalize decodes the JSON-text sub-fields of a submission into a typed
// payload. Any sub-field that is present but not valid JSON fails with
// ErrMalformedPayload; absent structured fields default to empty, matching
// what clients have always been allowed to omit.
func Normalize(fields map[string]string) (*PropertyInput, error) {
	in := &PropertyInput{
		City:         strings.TrimSpace(fields["city"]),
		Title:        strings.TrimSpace(fields["title"]),
		ServiceType:  domain.ServiceType(strings.TrimSpace(fields["serviceType"])),
		PropertyType: strings.TrimSpace(fields["propertyType"]),
		Address:      strings.TrimSpace(fields["address"]),
		Description:  strings.TrimSpace(fields["description"]),
	}

	var loc locationPayload
	if err := decodeJSONField(fields, "location", "{}", &loc); err != nil {
		return nil, err
	}
	in.Location = domain.GeoPoint{Type: loc.Type, Coordinates: loc.Coordinates}

	if err := decodeJSONField(fields, "offers", "[]", &in.Offers); err != nil {
		return nil, err
	}
	if err := decodeJSONField(fields, "nearbyPlaces", "[]", &in.NearbyPlaces); err != nil {
		return nil, err
	}

	rooms, err := decodeRooms(fields["rooms"])
	if err != nil {
		return nil, err
	}
	in.Rooms = rooms

	decls, err := decodeRoomImagesDecls(fields["roomsImages"])
	if err != nil {
		return nil, err
	}
	in.RoomsImages = decls

	price, err := CoercePrice(fields["price"])
	if err != nil {
		return nil, err
	}
	in.Price = price

	in.MaxAdults, err = decodeIntField(fields, "maxAdults")
	if err != nil {
		return nil, err
	}
	in.MaxChilds, err = decodeIntField(fields, "maxChilds")
	if err != nil {
		return nil, err
	}

	if raw, ok := fields["deposite"]; ok && strings.TrimSpace(raw) != "" {
		in.Deposit, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: deposite is not a number", domain.ErrMalformedPayload)
		}
	}

	return in, nil
}

// NormalizeRoomsUpdate decodes the sub-fields of a room-set replacement:
// the new room-count list and its roomsImages metadata.
func NormalizeRoomsUpdate(fields map[string]string) ([]domain.RoomCount, []RoomImagesDecl, error) {
	rooms, err := decodeRooms(fields["rooms"])
	if err != nil {
		return nil, nil, err
	}
	decls, err := decodeRoomImagesDecls(fields["roomsImages"])
	if err != nil {
		return nil, nil, err
	}
	return rooms, decls, nil
}

// NormalizeRoomDecls decodes just the roomsImages metadata list, used when
// only the galleries are replaced and the room set stays as persisted.
func NormalizeRoomDecls(fields map[string]string) ([]RoomImagesDecl, error) {
	return decodeRoomImagesDecls(fields["roomsImages"])
}

// CoercePrice turns the textual price field into a typed variant before
// schema validation: a brace-delimited object decodes as the composite
// {perDay, perMonth} shape, anything else as a plain number. A missing price
// is a validation failure on the field; unparsable text is a malformed
// payload. Shape-vs-service matching is the validator's job, not done here.
func CoercePrice(raw string) (domain.Price, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Price{}, &domain.ValidationError{Field: "price", Reason: "required"}
	}

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var composite compositePricePayload
		if err := json.Unmarshal([]byte(trimmed), &composite); err != nil {
			return domain.Price{}, fmt.Errorf("%w: price is not valid JSON", domain.ErrMalformedPayload)
		}
		return domain.Price{PerDay: composite.PerDay, PerMonth: composite.PerMonth}, nil
	}

	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return domain.Price{}, fmt.Errorf("%w: price is not a number", domain.ErrMalformedPayload)
	}
	return domain.Price{Single: &amount}, nil
}

func decodeRooms(raw string) ([]domain.RoomCount, error) {
	var payload []roomCountPayload
	if err := decodeJSON(raw, "[]", "rooms", &payload); err != nil {
		return nil, err
	}
	rooms := make([]domain.RoomCount, 0, len(payload))
	for _, r := range payload {
		rooms = append(rooms, domain.RoomCount{RoomID: r.ID, Count: r.Count})
	}
	return rooms, nil
}

func decodeRoomImagesDecls(raw string) ([]RoomImagesDecl, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = "[]"
	}
	// roomsImages must decode as a list; anything else is rejected outright.
	var decls []RoomImagesDecl
	if err := json.Unmarshal([]byte(trimmed), &decls); err != nil {
		return nil, fmt.Errorf("%w: roomsImages must be an array", domain.ErrMalformedPayload)
	}
	return decls, nil
}

func decodeJSONField(fields map[string]string, name, fallback string, dst interface{}) error {
	return decodeJSON(fields[name], fallback, name, dst)
}

func decodeJSON(raw, fallback, name string, dst interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = fallback
	}
	if err := json.Unmarshal([]byte(trimmed), dst); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON", domain.ErrMalformedPayload, name)
	}
	return nil
}

func decodeIntField(fields map[string]string, name string) (int, error) {
	raw := strings.TrimSpace(fields[name])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", domain.ErrMalformedPayload, name)
	}
	return v, nil
}
