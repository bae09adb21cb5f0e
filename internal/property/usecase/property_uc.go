package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/platform/metrics"
	"github.com/aqarhub/property-service/internal/property/domain"
	"github.com/aqarhub/property-service/internal/property/ingest"
)

// PropertyUsecase serves reads and the non-media update flows.
type PropertyUsecase struct {
	repo    domain.PropertyRepository
	cache   domain.PropertyCache
	events  EventPublisher
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewPropertyUsecase(
	repo domain.PropertyRepository,
	cache domain.PropertyCache,
	events EventPublisher,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *PropertyUsecase {
	return &PropertyUsecase{
		repo:    repo,
		cache:   cache,
		events:  events,
		metrics: mm,
		logger:  log.Named("PropertyUsecase"),
	}
}

// GetProperty reads through the cache. A cache failure is only logged; the
// repository stays the source of truth.
func (uc *PropertyUsecase) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, id)
		if err != nil {
			uc.logger.Warn("Cache read failed", zap.String("property_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, property); err != nil {
			uc.logger.Warn("Cache write failed", zap.String("property_id", id), zap.Error(err))
		}
	}
	return property, nil
}

func (uc *PropertyUsecase) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	return uc.repo.FindByOwner(ctx, ownerID)
}

func (uc *PropertyUsecase) UpdateLocation(ctx context.Context, id, ownerID, city string, location domain.GeoPoint) (*domain.Property, error) {
	if city == "" {
		return nil, &domain.ValidationError{Field: "city", Reason: "is required"}
	}
	if location.Type != "Point" || len(location.Coordinates) != 2 {
		return nil, &domain.ValidationError{Field: "location", Reason: "must be a GeoJSON Point with two coordinates"}
	}

	property, err := uc.repo.UpdateLocation(ctx, id, ownerID, city, location)
	if err != nil {
		return nil, err
	}
	uc.afterUpdate(ctx, property)
	return property, nil
}

func (uc *PropertyUsecase) UpdateDetails(ctx context.Context, id, ownerID string, details domain.DetailsUpdate) (*domain.Property, error) {
	if !details.ServiceType.IsValid() {
		return nil, &domain.ValidationError{Field: "serviceType", Reason: "unknown service type"}
	}
	if len(details.Title) < 10 {
		return nil, &domain.ValidationError{Field: "title", Reason: "must be at least 10 characters"}
	}
	if len(details.Description) < 30 {
		return nil, &domain.ValidationError{Field: "description", Reason: "must be at least 30 characters"}
	}
	if details.MaxAdults < 1 {
		return nil, &domain.ValidationError{Field: "maxAdults", Reason: "must be at least 1"}
	}
	if details.MaxChilds < 0 {
		return nil, &domain.ValidationError{Field: "maxChilds", Reason: "must not be negative"}
	}
	if err := ingest.ValidatePriceShape(details.ServiceType, details.Price); err != nil {
		return nil, err
	}

	property, err := uc.repo.UpdateDetails(ctx, id, ownerID, details)
	if err != nil {
		return nil, err
	}
	uc.afterUpdate(ctx, property)
	return property, nil
}

func (uc *PropertyUsecase) UpdateOffers(ctx context.Context, id, ownerID string, offers []string) (*domain.Property, error) {
	property, err := uc.repo.UpdateOffers(ctx, id, ownerID, offers)
	if err != nil {
		return nil, err
	}
	uc.afterUpdate(ctx, property)
	return property, nil
}

func (uc *PropertyUsecase) UpdateNearbyPlaces(ctx context.Context, id, ownerID string, places []string) (*domain.Property, error) {
	property, err := uc.repo.UpdateNearbyPlaces(ctx, id, ownerID, places)
	if err != nil {
		return nil, err
	}
	uc.afterUpdate(ctx, property)
	return property, nil
}

// UpdatePrice changes the price and, optionally, the service type. The shape
// of the new price must match the new service type before anything is
// written.
func (uc *PropertyUsecase) UpdatePrice(ctx context.Context, id, ownerID string, serviceType domain.ServiceType, price domain.Price, deposit float64) (*domain.Property, error) {
	if !serviceType.IsValid() {
		return nil, &domain.ValidationError{Field: "serviceType", Reason: "unknown service type"}
	}
	if deposit < 0 {
		return nil, &domain.ValidationError{Field: "deposite", Reason: "must not be negative"}
	}
	if err := ingest.ValidatePriceShape(serviceType, price); err != nil {
		return nil, err
	}

	property, err := uc.repo.UpdatePrice(ctx, id, ownerID, serviceType, price, deposit)
	if err != nil {
		return nil, err
	}
	uc.afterUpdate(ctx, property)
	return property, nil
}

func (uc *PropertyUsecase) afterUpdate(ctx context.Context, property *domain.Property) {
	uc.metrics.IncUpdated()

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, property.ID); err != nil {
			uc.logger.Warn("Cache invalidation failed", zap.String("property_id", property.ID), zap.Error(err))
		}
	}
	if uc.events != nil {
		if err := uc.events.Publish(ctx, subjectPropertyUpdated, map[string]interface{}{
			"property_id": property.ID,
			"owner_id":    property.Owner,
		}); err != nil {
			uc.logger.Error("Failed to publish event", zap.String("subject", subjectPropertyUpdated), zap.Error(err))
		}
	}
}
