package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/platform/metrics"
	"github.com/aqarhub/property-service/internal/property/domain"
	"github.com/aqarhub/property-service/internal/property/ingest"
)

// MediaUsecase handles the replacement flows that swap stored galleries for
// freshly uploaded ones. The ordering is fixed: upload the new set, persist
// conditionally on the version read before uploading, and only then free the
// old assets. A failed persist reverses the new uploads and leaves the old
// ones untouched.
type MediaUsecase struct {
	repo          domain.PropertyRepository
	storage       domain.MediaStorage
	scratch       domain.ScratchStore
	cache         domain.PropertyCache
	events        EventPublisher
	metrics       *metrics.MetricsManager
	logger        *logger.Logger
	uploadTimeout time.Duration
}

func NewMediaUsecase(
	repo domain.PropertyRepository,
	storage domain.MediaStorage,
	scratch domain.ScratchStore,
	cache domain.PropertyCache,
	events EventPublisher,
	mm *metrics.MetricsManager,
	log *logger.Logger,
	uploadTimeout time.Duration,
) *MediaUsecase {
	return &MediaUsecase{
		repo:          repo,
		storage:       storage,
		scratch:       scratch,
		cache:         cache,
		events:        events,
		metrics:       mm,
		logger:        log.Named("MediaUsecase"),
		uploadTimeout: uploadTimeout,
	}
}

// ReplaceMainImages swaps the five-image main gallery.
func (uc *MediaUsecase) ReplaceMainImages(ctx context.Context, id, ownerID string, files []domain.Attachment) (*domain.Property, error) {
	defer uc.cleanupScratch(files)

	if len(files) != domain.MainImageCount {
		return nil, domain.ErrMainImageCount
	}

	current, err := uc.loadOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	assets, err := uploadGroup(ctx, uc.storage, uc.metrics, uc.uploadTimeout, "main", files)
	if err != nil {
		uc.reverse(ctx, assets)
		return nil, err
	}

	updated, err := uc.repo.ReplaceMainImages(ctx, id, ownerID, current.Version, assets)
	if err != nil {
		uc.reverse(ctx, assets)
		return nil, err
	}

	uc.freeAssets(ctx, current.MainImages)
	uc.afterReplace(ctx, updated)
	return updated, nil
}

// ReplaceRooms swaps both the room list and every room gallery. The declared
// galleries must match the new room list one to one.
func (uc *MediaUsecase) ReplaceRooms(ctx context.Context, id, ownerID string, rooms []domain.RoomCount, decls []ingest.RoomImagesDecl, sub ingest.Submission) (*domain.Property, error) {
	defer uc.cleanupScratch(sub.Files)

	if err := ingest.ValidateRooms(rooms); err != nil {
		return nil, err
	}
	if err := ingest.ValidateRoomDecls(decls, rooms); err != nil {
		return nil, err
	}

	groups := ingest.GroupByField(sub.Files)
	roomGroups, err := ingest.MatchRoomGroups(decls, groups)
	if err != nil {
		return nil, err
	}

	current, err := uc.loadOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	uploaded, galleries, err := uc.uploadGalleries(ctx, decls, roomGroups)
	if err != nil {
		uc.reverse(ctx, uploaded)
		return nil, err
	}

	updated, err := uc.repo.ReplaceRooms(ctx, id, ownerID, current.Version, rooms, galleries)
	if err != nil {
		uc.reverse(ctx, uploaded)
		return nil, err
	}

	var old []domain.MediaAsset
	for _, gallery := range current.RoomsImages {
		old = append(old, gallery.Images...)
	}
	uc.freeAssets(ctx, old)
	uc.afterReplace(ctx, updated)
	return updated, nil
}

// ReplaceRoomImages swaps the galleries while keeping the room list. Every
// declared gallery must reference a room the property already has, and every
// existing room must get a gallery.
func (uc *MediaUsecase) ReplaceRoomImages(ctx context.Context, id, ownerID string, decls []ingest.RoomImagesDecl, sub ingest.Submission) (*domain.Property, error) {
	defer uc.cleanupScratch(sub.Files)

	current, err := uc.loadOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if err := ingest.ValidateRoomDecls(decls, current.Rooms); err != nil {
		return nil, err
	}

	groups := ingest.GroupByField(sub.Files)
	roomGroups, err := ingest.MatchRoomGroups(decls, groups)
	if err != nil {
		return nil, err
	}

	uploaded, galleries, err := uc.uploadGalleries(ctx, decls, roomGroups)
	if err != nil {
		uc.reverse(ctx, uploaded)
		return nil, err
	}

	updated, err := uc.repo.ReplaceRoomGalleries(ctx, id, ownerID, current.Version, galleries)
	if err != nil {
		uc.reverse(ctx, uploaded)
		return nil, err
	}

	var old []domain.MediaAsset
	for _, gallery := range current.RoomsImages {
		old = append(old, gallery.Images...)
	}
	uc.freeAssets(ctx, old)
	uc.afterReplace(ctx, updated)
	return updated, nil
}

// loadOwned fetches the property and checks ownership up front, before any
// upload spends bandwidth. The persist step re-checks both conditions.
func (uc *MediaUsecase) loadOwned(ctx context.Context, id, ownerID string) (*domain.Property, error) {
	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property.Owner != ownerID {
		return nil, domain.ErrNotOwner
	}
	return property, nil
}

// uploadGalleries runs the gallery groups in declaration order, each group's
// files uploading concurrently.
func (uc *MediaUsecase) uploadGalleries(ctx context.Context, decls []ingest.RoomImagesDecl, roomGroups [][]domain.Attachment) ([]domain.MediaAsset, []domain.RoomGallery, error) {
	var uploaded []domain.MediaAsset
	galleries := make([]domain.RoomGallery, 0, len(roomGroups))
	for i, group := range roomGroups {
		assets, err := uploadGroup(ctx, uc.storage, uc.metrics, uc.uploadTimeout, decls[i].Room, group)
		uploaded = append(uploaded, assets...)
		if err != nil {
			return uploaded, nil, err
		}
		galleries = append(galleries, domain.RoomGallery{
			RoomID: decls[i].Room,
			Images: assets,
		})
	}
	return uploaded, galleries, nil
}

// reverse deletes new uploads after a failed replacement.
func (uc *MediaUsecase) reverse(ctx context.Context, assets []domain.MediaAsset) {
	if len(assets) == 0 {
		return
	}
	uc.logger.Warn("Reversing uploaded assets after failed replacement", zap.Int("count", len(assets)))

	ids := make([]string, 0, len(assets))
	for _, asset := range assets {
		ids = append(ids, asset.PublicID)
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := uc.storage.RemoveMany(cleanupCtx, ids); err != nil {
		uc.logger.Error("Failed to reverse some uploaded assets", zap.Error(err))
	}
	uc.metrics.AddReversals(len(ids))
}

// freeAssets deletes the superseded assets after the new state is durable.
// Failures are logged; the record already points at the new set.
func (uc *MediaUsecase) freeAssets(ctx context.Context, assets []domain.MediaAsset) {
	if len(assets) == 0 {
		return
	}
	ids := make([]string, 0, len(assets))
	for _, asset := range assets {
		ids = append(ids, asset.PublicID)
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := uc.storage.RemoveMany(cleanupCtx, ids); err != nil {
		uc.logger.Error("Failed to remove superseded assets", zap.Error(err))
	}
}

func (uc *MediaUsecase) cleanupScratch(files []domain.Attachment) {
	for _, att := range files {
		if err := uc.scratch.Remove(att.StoredName); err != nil {
			uc.logger.Warn("Failed to remove scratch file",
				zap.String("file", att.StoredName), zap.Error(err))
		}
	}
}

func (uc *MediaUsecase) afterReplace(ctx context.Context, property *domain.Property) {
	uc.metrics.IncUpdated()

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, property.ID); err != nil {
			uc.logger.Warn("Cache invalidation failed", zap.String("property_id", property.ID), zap.Error(err))
		}
	}
	if uc.events != nil {
		if err := uc.events.Publish(ctx, subjectPropertyMediaReplaced, map[string]interface{}{
			"property_id": property.ID,
			"owner_id":    property.Owner,
		}); err != nil {
			uc.logger.Error("Failed to publish event", zap.String("subject", subjectPropertyMediaReplaced), zap.Error(err))
		}
	}
}
