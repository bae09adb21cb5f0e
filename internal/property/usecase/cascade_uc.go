package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/platform/metrics"
	"github.com/aqarhub/property-service/internal/property/domain"
)

const adminRole = "admin"

// CascadeUsecase tears down aggregates in dependency order: remote media
// first, then dependent records, then the record itself. Running the remote
// deletes first means a partial failure leaves a record that still renders,
// and a retry finds the remote deletes idempotent.
type CascadeUsecase struct {
	properties domain.PropertyRepository
	comments   domain.CommentRepository
	users      domain.UserRepository
	storage    domain.MediaStorage
	cache      domain.PropertyCache
	events     EventPublisher
	metrics    *metrics.MetricsManager
	logger     *logger.Logger
}

func NewCascadeUsecase(
	properties domain.PropertyRepository,
	comments domain.CommentRepository,
	users domain.UserRepository,
	storage domain.MediaStorage,
	cache domain.PropertyCache,
	events EventPublisher,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *CascadeUsecase {
	return &CascadeUsecase{
		properties: properties,
		comments:   comments,
		users:      users,
		storage:    storage,
		cache:      cache,
		events:     events,
		metrics:    mm,
		logger:     log.Named("CascadeUsecase"),
	}
}

// DeleteProperty removes a property and everything hanging off it. Only the
// owner or an admin may delete.
func (uc *CascadeUsecase) DeleteProperty(ctx context.Context, id, requesterID, requesterRole string) error {
	property, err := uc.properties.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if property.Owner != requesterID && requesterRole != adminRole {
		return domain.ErrNotOwner
	}

	if err := uc.deletePropertyCascade(ctx, property); err != nil {
		return err
	}

	uc.metrics.IncDeleted()
	uc.publish(ctx, subjectPropertyDeleted, map[string]interface{}{
		"property_id": property.ID,
		"owner_id":    property.Owner,
	})
	return nil
}

// PurgeUser removes a user account and every trace of it: all owned
// properties (each with its own full cascade), the profile photo, every
// comment the user wrote anywhere, and finally the user record. Only the
// user themselves or an admin may purge.
func (uc *CascadeUsecase) PurgeUser(ctx context.Context, userID, requesterID, requesterRole string) error {
	if userID != requesterID && requesterRole != adminRole {
		return domain.ErrNotOwner
	}

	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	properties, err := uc.properties.FindByOwner(ctx, userID)
	if err != nil {
		return err
	}
	for _, property := range properties {
		if err := uc.deletePropertyCascade(ctx, property); err != nil {
			return err
		}
		uc.metrics.IncDeleted()
	}

	if user.PhotoProfile != nil && user.PhotoProfile.PublicID != "" {
		if err := uc.removeAssets(ctx, []string{user.PhotoProfile.PublicID}); err != nil {
			return err
		}
	}

	removed, err := uc.comments.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := uc.users.Delete(ctx, userID); err != nil {
		return err
	}

	uc.logger.Info("User purged",
		zap.String("user_id", userID),
		zap.Int("properties", len(properties)),
		zap.Int64("comments", removed))

	uc.publish(ctx, subjectUserPurged, map[string]interface{}{
		"user_id":    userID,
		"properties": len(properties),
	})
	return nil
}

// deletePropertyCascade runs the per-property teardown: remote assets,
// comments, record, cache entry.
func (uc *CascadeUsecase) deletePropertyCascade(ctx context.Context, property *domain.Property) error {
	assets := property.AllAssets()
	ids := make([]string, 0, len(assets))
	for _, asset := range assets {
		ids = append(ids, asset.PublicID)
	}
	if err := uc.removeAssets(ctx, ids); err != nil {
		return err
	}

	if _, err := uc.comments.DeleteByProperty(ctx, property.ID); err != nil {
		return err
	}

	if err := uc.properties.Delete(ctx, property.ID); err != nil {
		return err
	}

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, property.ID); err != nil {
			uc.logger.Warn("Cache invalidation failed", zap.String("property_id", property.ID), zap.Error(err))
		}
	}

	uc.logger.Info("Property cascade complete",
		zap.String("property_id", property.ID),
		zap.Int("assets", len(ids)))
	return nil
}

func (uc *CascadeUsecase) removeAssets(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return uc.storage.RemoveMany(cleanupCtx, ids)
}

func (uc *CascadeUsecase) publish(ctx context.Context, subject string, payload interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, subject, payload); err != nil {
		uc.logger.Error("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
