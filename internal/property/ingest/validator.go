package ingest

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aqarhub/property-service/internal/property/domain"
)

var validate = validator.New()

// Validate checks the fully normalized payload. Validation is all-or-nothing
// for the request: the first violated rule short-circuits with a
// ValidationError naming the offending field. Callers that want an exhaustive
// error list should validate before submitting attachments.
func Validate(in *PropertyInput) error {
	if !in.ServiceType.IsValid() {
		return &domain.ValidationError{Field: "serviceType", Reason: "must be one of: sell, rent by day, rent by month, rent by day & month"}
	}

	if err := validate.Struct(in); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return structFieldError(errs[0])
		}
		return &domain.ValidationError{Field: "payload", Reason: err.Error()}
	}

	if in.Location.Type != "Point" {
		return &domain.ValidationError{Field: "location", Reason: "type must be Point"}
	}
	if len(in.Location.Coordinates) != 2 {
		return &domain.ValidationError{Field: "location", Reason: "coordinates must hold [longitude, latitude]"}
	}

	if err := validateReferences("offers", in.Offers); err != nil {
		return err
	}
	if err := validateReferences("nearbyPlaces", in.NearbyPlaces); err != nil {
		return err
	}
	if err := ValidateRooms(in.Rooms); err != nil {
		return err
	}
	if err := ValidateRoomDecls(in.RoomsImages, in.Rooms); err != nil {
		return err
	}

	if err := ValidatePriceShape(in.ServiceType, in.Price); err != nil {
		return err
	}

	return nil
}

// ValidateRooms checks room references and per-room counts.
func ValidateRooms(rooms []domain.RoomCount) error {
	for _, r := range rooms {
		if !isReference(r.RoomID) {
			return &domain.ValidationError{Field: "rooms", Reason: fmt.Sprintf("%q is not a valid room reference", r.RoomID)}
		}
		if r.Count < 1 {
			return &domain.ValidationError{Field: "rooms", Reason: "count must be at least 1"}
		}
	}
	return nil
}

// ValidateRoomDecls enforces the room/gallery correspondence: every declared
// room has exactly one metadata entry and vice versa, each naming a valid,
// unique room reference from the room-count list.
func ValidateRoomDecls(decls []RoomImagesDecl, rooms []domain.RoomCount) error {
	if len(decls) != len(rooms) {
		return &domain.ValidationError{
			Field:  "roomsImages",
			Reason: fmt.Sprintf("%d entries for %d declared rooms", len(decls), len(rooms)),
		}
	}
	declared := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		declared[r.RoomID] = true
	}
	seen := make(map[string]bool, len(decls))
	for i, d := range decls {
		if !isReference(d.Room) {
			return &domain.ValidationError{Field: "roomsImages", Reason: fmt.Sprintf("entry %d has no valid room reference", i)}
		}
		if !declared[d.Room] {
			return &domain.ValidationError{Field: "roomsImages", Reason: fmt.Sprintf("room %s is not in the rooms list", d.Room)}
		}
		if seen[d.Room] {
			return &domain.ValidationError{Field: "roomsImages", Reason: fmt.Sprintf("room %s declared twice", d.Room)}
		}
		seen[d.Room] = true
	}
	return nil
}

// ValidatePriceShape applies the discriminated price rule: the combined rent
// type takes a {perDay, perMonth} pair, every other service type a single
// non-negative amount.
func ValidatePriceShape(serviceType domain.ServiceType, price domain.Price) error {
	if price.MatchesServiceType(serviceType) {
		return nil
	}
	if serviceType.RequiresCompositePrice() {
		return &domain.ValidationError{Field: "price", Reason: "perDay and perMonth are required for rent by day & month"}
	}
	return &domain.ValidationError{Field: "price", Reason: fmt.Sprintf("a single non-negative amount is required for %s", serviceType)}
}

func validateReferences(field string, ids []string) error {
	for _, id := range ids {
		if !isReference(id) {
			return &domain.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a valid reference", id)}
		}
	}
	return nil
}

func isReference(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func structFieldError(fe validator.FieldError) error {
	field := lowerFirst(fe.Field())
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "min":
		switch fe.Kind().String() {
		case "string":
			reason = fmt.Sprintf("must be at least %s characters", fe.Param())
		default:
			reason = fmt.Sprintf("must be at least %s", fe.Param())
		}
	default:
		reason = fmt.Sprintf("failed the %s rule", fe.Tag())
	}
	return &domain.ValidationError{Field: field, Reason: reason}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
