package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/platform/metrics"
	"github.com/aqarhub/property-service/internal/property/domain"
	"github.com/aqarhub/property-service/internal/property/ingest"
)

// EventPublisher is what the usecases need from the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Mailer sends the owner a notification after a successful publish.
type Mailer interface {
	SendPropertyPublishedEmail(toEmail, propertyTitle string) error
}

const (
	subjectPropertyCreated       = "property.created"
	subjectPropertyUpdated       = "property.updated"
	subjectPropertyMediaReplaced = "property.media.replaced"
	subjectPropertyDeleted       = "property.deleted"
	subjectUserPurged            = "user.purged"
)

// IngestUsecase runs the all-or-nothing property submission pipeline:
// normalize, match media to rooms, validate, upload, persist. Any failure
// after the first upload reverses every asset already stored remotely, and
// scratch files are removed no matter how the attempt ends.
type IngestUsecase struct {
	repo          domain.PropertyRepository
	storage       domain.MediaStorage
	scratch       domain.ScratchStore
	cache         domain.PropertyCache
	users         domain.UserRepository
	events        EventPublisher
	mailer        Mailer
	metrics       *metrics.MetricsManager
	logger        *logger.Logger
	uploadTimeout time.Duration
}

func NewIngestUsecase(
	repo domain.PropertyRepository,
	storage domain.MediaStorage,
	scratch domain.ScratchStore,
	cache domain.PropertyCache,
	users domain.UserRepository,
	events EventPublisher,
	mailer Mailer,
	mm *metrics.MetricsManager,
	log *logger.Logger,
	uploadTimeout time.Duration,
) *IngestUsecase {
	return &IngestUsecase{
		repo:          repo,
		storage:       storage,
		scratch:       scratch,
		cache:         cache,
		users:         users,
		events:        events,
		mailer:        mailer,
		metrics:       mm,
		logger:        log.Named("IngestUsecase"),
		uploadTimeout: uploadTimeout,
	}
}

// CreateProperty turns a raw multipart submission into a persisted property.
// Validation runs in full before the first byte reaches remote storage, so a
// rejected payload never costs an upload.
func (uc *IngestUsecase) CreateProperty(ctx context.Context, ownerID string, sub ingest.Submission) (*domain.Property, error) {
	ctx, span := otel.Tracer("property-service/ingest").Start(ctx, "IngestUsecase.CreateProperty")
	defer span.End()

	defer uc.cleanupScratch(sub.Files)

	uc.logger.Info("CreateProperty: submission received",
		zap.String("owner", ownerID),
		zap.Int("files", len(sub.Files)))

	in, err := ingest.Normalize(sub.Fields)
	if err != nil {
		return nil, err
	}

	groups := ingest.GroupByField(sub.Files)
	mainImages, err := ingest.MatchMainImages(groups)
	if err != nil {
		return nil, err
	}
	roomGroups, err := ingest.MatchRoomGroups(in.RoomsImages, groups)
	if err != nil {
		return nil, err
	}

	if err := ingest.Validate(in); err != nil {
		return nil, err
	}

	uploaded, mainAssets, galleries, err := uc.uploadAll(ctx, in.RoomsImages, mainImages, roomGroups)
	if err != nil {
		uc.reverseUploads(ctx, uploaded)
		return nil, err
	}

	property := &domain.Property{
		City:         in.City,
		Location:     in.Location,
		Title:        in.Title,
		ServiceType:  in.ServiceType,
		PropertyType: in.PropertyType,
		Address:      in.Address,
		MaxAdults:    in.MaxAdults,
		MaxChilds:    in.MaxChilds,
		Description:  in.Description,
		Owner:        ownerID,
		Offers:       in.Offers,
		Rooms:        in.Rooms,
		NearbyPlaces: in.NearbyPlaces,
		MainImages:   mainAssets,
		RoomsImages:  galleries,
		Price:        in.Price,
		Deposit:      in.Deposit,
	}

	if err := uc.repo.Create(ctx, property); err != nil {
		uc.logger.Error("CreateProperty: persistence failed, reversing uploads", zap.Error(err))
		uc.reverseUploads(ctx, uploaded)
		return nil, err
	}

	uc.metrics.IncCreated()
	uc.logger.Info("CreateProperty: property created",
		zap.String("property_id", property.ID),
		zap.Int("assets", len(uploaded)))

	uc.publishEvent(ctx, subjectPropertyCreated, map[string]interface{}{
		"property_id": property.ID,
		"owner_id":    property.Owner,
		"city":        property.City,
	})
	uc.notifyOwner(ctx, ownerID, property.Title)

	return property, nil
}

// uploadAll stores every attachment remotely: the main gallery first, then
// each room gallery in declaration order. Files within one group upload
// concurrently. On error it returns whatever made it to remote storage so the
// caller can reverse exactly that.
func (uc *IngestUsecase) uploadAll(
	ctx context.Context,
	decls []ingest.RoomImagesDecl,
	mainImages []domain.Attachment,
	roomGroups [][]domain.Attachment,
) ([]domain.MediaAsset, []domain.MediaAsset, []domain.RoomGallery, error) {
	var uploaded []domain.MediaAsset

	mainAssets, err := uploadGroup(ctx, uc.storage, uc.metrics, uc.uploadTimeout, "main", mainImages)
	uploaded = append(uploaded, mainAssets...)
	if err != nil {
		return uploaded, nil, nil, err
	}

	galleries := make([]domain.RoomGallery, 0, len(roomGroups))
	for i, group := range roomGroups {
		assets, err := uploadGroup(ctx, uc.storage, uc.metrics, uc.uploadTimeout, decls[i].Room, group)
		uploaded = append(uploaded, assets...)
		if err != nil {
			return uploaded, nil, nil, err
		}
		galleries = append(galleries, domain.RoomGallery{
			RoomID: decls[i].Room,
			Images: assets,
		})
	}
	return uploaded, mainAssets, galleries, nil
}

// reverseUploads removes every asset that reached remote storage during a
// failed attempt. It runs on a context detached from the request so a client
// disconnect cannot strand remote files.
func (uc *IngestUsecase) reverseUploads(ctx context.Context, uploaded []domain.MediaAsset) {
	if len(uploaded) == 0 {
		return
	}
	uc.logger.Warn("Reversing uploaded assets after failed attempt", zap.Int("count", len(uploaded)))

	ids := make([]string, 0, len(uploaded))
	for _, asset := range uploaded {
		ids = append(ids, asset.PublicID)
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := uc.storage.RemoveMany(cleanupCtx, ids); err != nil {
		uc.logger.Error("Failed to reverse some uploaded assets", zap.Error(err))
	}
	uc.metrics.AddReversals(len(ids))
}

// cleanupScratch removes staged files regardless of outcome.
func (uc *IngestUsecase) cleanupScratch(files []domain.Attachment) {
	for _, att := range files {
		if err := uc.scratch.Remove(att.StoredName); err != nil {
			uc.logger.Warn("Failed to remove scratch file",
				zap.String("file", att.StoredName), zap.Error(err))
		}
	}
}

func (uc *IngestUsecase) publishEvent(ctx context.Context, subject string, payload interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, subject, payload); err != nil {
		uc.logger.Error("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// notifyOwner emails the owner about a successful publish. Lookup and send
// failures are logged, never surfaced: the property is already live.
func (uc *IngestUsecase) notifyOwner(ctx context.Context, ownerID, title string) {
	if uc.mailer == nil || uc.users == nil {
		return
	}
	user, err := uc.users.FindByID(ctx, ownerID)
	if err != nil || user.Email == "" {
		return
	}
	if err := uc.mailer.SendPropertyPublishedEmail(user.Email, title); err != nil {
		uc.logger.Warn("Failed to send publish notification", zap.String("owner", ownerID), zap.Error(err))
	}
}
